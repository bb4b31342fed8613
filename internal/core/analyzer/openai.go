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
	"errors"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/frames"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// reasoningPrefixes are the model families that take max_completion_tokens
// and reject a custom temperature.
var reasoningPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

func isReasoningModel(name string) bool {
	for _, p := range reasoningPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// OpenAIModel calls the OpenAI chat completions API. Frames are sent as
// base64 JPEG data URIs.
type OpenAIModel struct {
	creds        cloud.Credentials
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
}

// NewOpenAIModel uses creds for calls without an explicit API key.
func NewOpenAIModel(name string, creds cloud.Credentials) *OpenAIModel {
	meter := otel.Meter(meterName)
	out := &OpenAIModel{creds: creds}
	out.inputTokens, _ = meter.Int64Counter(fmt.Sprintf("%s.openai.token.input", name))
	out.outputTokens, _ = meter.Int64Counter(fmt.Sprintf("%s.openai.token.output", name))
	return out
}

func (o *OpenAIModel) client(cfg *model.AnalyzerConfig) (*openai.Client, error) {
	key := cfg.APIKey()
	if key == "" {
		key = o.creds.OpenAIAPIKey
	}
	if key == "" {
		return nil, errors.New("no OpenAI API key: set OPENAI_API_KEY or pass one explicitly")
	}
	config := openai.DefaultConfig(key)
	if o.creds.OpenAIBaseURL != "" {
		config.BaseURL = o.creds.OpenAIBaseURL
	}
	config.OrgID = o.creds.OpenAIOrgID
	return openai.NewClientWithConfig(config), nil
}

func (o *OpenAIModel) Generate(ctx context.Context, prompt *Prompt, cfg *model.AnalyzerConfig) (*Completion, error) {
	client, err := o.client(cfg)
	if err != nil {
		return nil, err
	}
	messages, err := openAIMessages(prompt)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model:    cfg.Model(),
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if isReasoningModel(cfg.Model()) {
		req.MaxCompletionTokens = cfg.MaxTokens()
	} else {
		req.MaxTokens = cfg.MaxTokens()
		req.Temperature = float32(cfg.Temperature())
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	usage := model.TokenUsage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens}
	o.inputTokens.Add(ctx, int64(usage.PromptTokens))
	o.outputTokens.Add(ctx, int64(usage.CompletionTokens))

	return &Completion{Text: resp.Choices[0].Message.Content, Model: cfg.ModelName(), Usage: usage}, nil
}

func openAIMessages(prompt *Prompt) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(prompt.Turns)+1)
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: prompt.System})
	}
	for _, turn := range prompt.Turns {
		role := openai.ChatMessageRoleUser
		switch turn.Role {
		case model.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case model.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		if len(turn.Frames) == 0 {
			messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
			continue
		}

		parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: turn.Text}}
		for _, frame := range turn.Frames {
			uri, err := frames.DataURI(frame)
			if err != nil {
				return nil, err
			}
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: uri, Detail: openai.ImageURLDetailAuto},
			})
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
	}
	return messages, nil
}
