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

package analyzer

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/frames"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

const jsonMIMEType = "application/json"

// GeminiClientFactory opens a Gemini API client for an explicit API key.
type GeminiClientFactory func(ctx context.Context, apiKey string) (cloud.GenerativeModels, error)

// NewGeminiAPIClient is the default GeminiClientFactory.
func NewGeminiAPIClient(ctx context.Context, apiKey string) (cloud.GenerativeModels, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// GeminiModel calls Gemini through the shared rate limited agent. Frames are
// sent inline as JPEG parts.
type GeminiModel struct {
	agent        *cloud.QuotaAwareGenerativeAIModel
	newClient    GeminiClientFactory
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
}

// NewGeminiModel wraps agent. agent may be nil, in which case only calls that
// carry an explicit API key succeed.
func NewGeminiModel(name string, agent *cloud.QuotaAwareGenerativeAIModel, factory GeminiClientFactory) *GeminiModel {
	if factory == nil {
		factory = NewGeminiAPIClient
	}
	meter := otel.Meter(meterName)
	out := &GeminiModel{agent: agent, newClient: factory}
	out.inputTokens, _ = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.input", name))
	out.outputTokens, _ = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.output", name))
	return out
}

func (g *GeminiModel) Generate(ctx context.Context, prompt *Prompt, cfg *model.AnalyzerConfig) (*Completion, error) {
	agent, err := g.agentFor(ctx, cfg)
	if err != nil {
		return nil, err
	}

	agent.GenerativeContentConfig.SystemInstruction = systemInstruction(agent.GenerativeContentConfig, prompt.System)
	contents, err := geminiContents(prompt)
	if err != nil {
		return nil, err
	}
	text, usage, err := cloud.GenerateMultiModalResponse(ctx, g.inputTokens, g.outputTokens, agent, contents)
	if err != nil {
		return nil, err
	}
	return &Completion{Text: text, Model: cfg.ModelName(), Usage: usage}, nil
}

// agentFor derives the per call agent: the requested model, the call's
// sampling parameters and, with an explicit key, a dedicated client.
func (g *GeminiModel) agentFor(ctx context.Context, cfg *model.AnalyzerConfig) (*cloud.QuotaAwareGenerativeAIModel, error) {
	base := g.agent
	if key := cfg.APIKey(); key != "" {
		handle, err := g.newClient(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		if base == nil {
			base = cloud.NewQuotaAwareModel(nil, cfg.Model(), handle, 0)
		} else {
			cp := *base
			cp.ModelHandle = handle
			base = &cp
		}
	}
	if base == nil {
		return nil, fmt.Errorf("no gemini client configured for %s", cfg.ModelName())
	}

	config := &genai.GenerateContentConfig{}
	if base.GenerativeContentConfig != nil {
		cp := *base.GenerativeContentConfig
		config = &cp
	}
	config.Temperature = genai.Ptr[float32](float32(cfg.Temperature()))
	config.MaxOutputTokens = int32(cfg.MaxTokens())
	config.ResponseMIMEType = jsonMIMEType
	return base.Derive(cfg.Model(), config), nil
}

// systemInstruction places the rendered signature after any configured persona.
func systemInstruction(config *genai.GenerateContentConfig, system string) *genai.Content {
	parts := []*genai.Part{}
	if config.SystemInstruction != nil {
		parts = append(parts, config.SystemInstruction.Parts...)
	}
	parts = append(parts, cloud.NewTextPart(system))
	return &genai.Content{Parts: parts}
}

// geminiContents maps turns onto genai roles. Gemini has no in-conversation
// system role, so system turns are sent as user text in place.
func geminiContents(prompt *Prompt) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(prompt.Turns)+1)
	for _, turn := range prompt.Turns {
		role, text := string(genai.RoleUser), turn.Text
		switch turn.Role {
		case model.RoleAssistant:
			role = string(genai.RoleModel)
		case model.RoleSystem:
			text = "[system] " + turn.Text
		}
		parts := make([]*genai.Part, 0, len(turn.Frames)+1)
		for _, frame := range turn.Frames {
			b, err := frames.EncodeJPEG(frame, frames.DefaultJPEGQuality)
			if err != nil {
				return nil, err
			}
			parts = append(parts, cloud.NewImagePart(b, frames.JPEGMimeType))
		}
		parts = append(parts, cloud.NewTextPart(text))
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, nil
}
