// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud holds the configuration model and the Google Cloud client
// wiring. Configuration is read from TOML files (see LoadConfig) and mirrors
// the sections below; credentials for model providers come from the
// environment (see LoadCredentials).
package cloud

import (
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// DefaultSafetySettings disables content blocking for every harm category.
// Frames from films and trailers routinely trip the default thresholds.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

type BigQueryDataSource struct {
	DatasetName   string `toml:"dataset"`
	AnalysisTable string `toml:"analysis_table"` // one row per answered ask/chat call
}

type PromptTemplates struct {
	// DefaultSystemPrompt is used by Ask when the caller sends no prompt, and
	// by the Pub/Sub workflow for every new video.
	DefaultSystemPrompt string `toml:"default_system_prompt"`
	// Instructions overrides the built-in signature instructions when set.
	Instructions string `toml:"instructions"`
}

// VertexAiLLMModel configures one Gemini model reachable through genai.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // requests per second
}

type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

type Storage struct {
	VideoInputBucket  string `toml:"video_input_bucket"`
	FrameOutputBucket string `toml:"frame_output_bucket"`
	SignedURLMinutes  int    `toml:"signed_url_minutes"`
}

// Extraction holds the extraction defaults used by the Pub/Sub workflow and
// by HTTP requests that leave a field out. Zero values mean "not set".
type Extraction struct {
	FPS          float64 `toml:"fps" json:"fps"`
	MaxFrames    int     `toml:"max_frames" json:"max_frames"`
	ResizeScale  float64 `toml:"resize_scale" json:"resize_scale"`
	ResizeWidth  int     `toml:"resize_width" json:"resize_width"`
	ResizeHeight int     `toml:"resize_height" json:"resize_height"`
	// PersistFrames makes the Pub/Sub workflow write the frames it sends to
	// the model below gs://<frame_output_bucket>/<video name>/.
	PersistFrames bool `toml:"persist_frames" json:"persist_frames"`
}

// Options converts the defaults into extractor options.
func (e Extraction) Options() []model.ExtractorOption {
	opts := make([]model.ExtractorOption, 0, 3)
	if e.FPS > 0 {
		opts = append(opts, model.WithFPS(e.FPS))
	}
	if e.MaxFrames > 0 {
		opts = append(opts, model.WithMaxFrames(e.MaxFrames))
	}
	switch {
	case e.ResizeWidth > 0 && e.ResizeHeight > 0:
		opts = append(opts, model.WithResizeDims(e.ResizeWidth, e.ResizeHeight))
	case e.ResizeScale > 0:
		opts = append(opts, model.WithResizeScale(e.ResizeScale))
	}
	return opts
}

// Analysis holds the analyzer defaults.
type Analysis struct {
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	// Module is "predict" or "chain_of_thought".
	Module string `toml:"module"`
	// GeminiAgent names the agent_models entry Gemini requests are sent
	// through, for its rate limit and safety settings.
	GeminiAgent string `toml:"gemini_agent"`
}

// Options converts the defaults into analyzer options; unset values fall
// back to the model package defaults.
func (a Analysis) Options() []model.AnalyzerOption {
	opts := make([]model.AnalyzerOption, 0, 3)
	if a.Model != "" {
		opts = append(opts, model.WithModelName(a.Model))
	}
	if a.Temperature > 0 {
		opts = append(opts, model.WithTemperature(a.Temperature))
	}
	if a.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(a.MaxTokens))
	}
	return opts
}

type Telemetry struct {
	// Enabled turns on the Cloud Trace and Cloud Monitoring exporters.
	Enabled bool `toml:"enabled"`
}

type Server struct {
	Port           int   `toml:"port"`
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
	// LocalRoot is the only directory HTTP requests may name local videos
	// and output paths in. Empty allows gs:// URIs only.
	LocalRoot string `toml:"local_root"`
}

type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		ThreadPoolSize            int    `toml:"thread_pool_size"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`
	Extraction         Extraction                   `toml:"extraction"`
	Analysis           Analysis                     `toml:"analysis"`
	Telemetry          Telemetry                    `toml:"telemetry"`
	Server             Server                       `toml:"server"`
	// Credentials are never read from TOML.
	Credentials Credentials `toml:"-"`
}

func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
}
