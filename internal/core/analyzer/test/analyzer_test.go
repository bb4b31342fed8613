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

package analyzer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/analyzer"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	test "github.com/jaycherian/gcp-go-video-analyzer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T, opts ...model.AnalyzerOption) *model.AnalyzerConfig {
	t.Helper()
	cfg, err := model.NewAnalyzerConfig(opts...)
	require.NoError(t, err)
	return cfg
}

func TestAskAnswersWithAllFrames(t *testing.T) {
	lm := &test.EchoModel{}
	a := analyzer.NewVideoAnalyzer(lm)

	resp, err := a.Ask(context.Background(), test.SolidFrames(3), "what happens?", defaultConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "3 frames: system_prompt: what happens?", resp.Answer())
	assert.Equal(t, 3, resp.FrameCount)
	assert.Equal(t, "VideoSignature", resp.Signature)
	assert.Equal(t, model.DefaultModelName, resp.Model)
	assert.Equal(t, 300, resp.Usage.PromptTokens)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, 1, lm.Calls())

	prompt := lm.LastPrompt()
	assert.Contains(t, prompt.System, model.DefaultInstructions)
	assert.Contains(t, prompt.System, `"answer"`)
	assert.Contains(t, prompt.System, `For example: {"answer": "<answer>"}`)
}

func TestAskRejectsEmptyFrames(t *testing.T) {
	lm := &test.EchoModel{}
	_, err := analyzer.NewVideoAnalyzer(lm).Ask(context.Background(), nil, "anything?", defaultConfig(t))
	assert.True(t, errors.Is(err, model.ErrEmptyExtraction))
	assert.Zero(t, lm.Calls())
}

func TestChatRejectsMalformedHistory(t *testing.T) {
	tests := []struct {
		name     string
		messages []model.ChatMessage
	}{
		{"empty", nil},
		{"starts with assistant", []model.ChatMessage{{Role: model.RoleAssistant, Content: "hi"}, {Role: model.RoleUser, Content: "?"}}},
		{"ends with assistant", []model.ChatMessage{{Role: model.RoleUser, Content: "?"}, {Role: model.RoleAssistant, Content: "hi"}}},
		{"unknown role", []model.ChatMessage{{Role: "tool", Content: "x"}, {Role: model.RoleUser, Content: "?"}}},
	}
	lm := &test.EchoModel{}
	a := analyzer.NewVideoAnalyzer(lm)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Chat(context.Background(), test.SolidFrames(1), tt.messages, defaultConfig(t))
			assert.True(t, errors.Is(err, model.ErrMalformedChatHistory), "got %v", err)
		})
	}
	assert.Zero(t, lm.Calls())
}

func TestChatAttachesFramesToFirstUserTurn(t *testing.T) {
	lm := &test.EchoModel{}
	messages := []model.ChatMessage{
		{Role: model.RoleUser, Content: "who is on screen?"},
		{Role: model.RoleAssistant, Content: "a chef"},
		{Role: model.RoleSystem, Content: "answer in one word"},
		{Role: model.RoleUser, Content: "what are they cooking?"},
		{Role: model.RoleUser, Content: "be brief"},
	}

	resp, err := analyzer.NewVideoAnalyzer(lm).Chat(context.Background(), test.SolidFrames(2), messages, defaultConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "2 frames: be brief", resp.Answer())
	assert.Equal(t, "VideoChatSignature", resp.Signature)

	prompt := lm.LastPrompt()
	require.Len(t, prompt.Turns, 5)
	assert.Len(t, prompt.Turns[0].Frames, 2)
	for _, turn := range prompt.Turns[1:] {
		assert.Empty(t, turn.Frames)
	}
	roles := make([]model.Role, 0, len(prompt.Turns))
	texts := make([]string, 0, len(prompt.Turns))
	for _, turn := range prompt.Turns {
		roles = append(roles, turn.Role)
		texts = append(texts, turn.Text)
	}
	assert.Equal(t, []model.Role{model.RoleUser, model.RoleAssistant, model.RoleSystem, model.RoleUser, model.RoleUser}, roles)
	assert.Equal(t, "answer in one word", texts[2], "system turns stay where they were sent")
	assert.NotContains(t, prompt.System, "answer in one word")
}

func TestChainOfThoughtAddsReasoning(t *testing.T) {
	lm := &test.EchoModel{}
	resp, err := analyzer.NewVideoAnalyzer(lm).Ask(context.Background(), test.SolidFrames(1), "why?", defaultConfig(t),
		analyzer.WithModule(analyzer.NewChainOfThought()))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Reasoning())
	assert.NotEmpty(t, resp.Answer())
	assert.Equal(t, model.FieldReasoning, lm.LastPrompt().Outputs[0].Name)
	assert.Equal(t, 1, lm.Calls(), "reasoning and answer come from one call")
}

func TestCustomSignature(t *testing.T) {
	sig := model.Signature{
		Name:         "SceneTags",
		Instructions: "Tag the scene",
		Inputs:       []model.Field{{Name: "focus", Description: "What to look for", Kind: model.KindText}},
		Outputs: []model.Field{
			{Name: "people", Description: "Number of people", Kind: model.KindNumber},
			{Name: "tags", Description: "Scene tags", Kind: model.KindTextList},
		},
	}
	lm := &test.EchoModel{Reply: "```json\n{\"people\": 2, \"tags\": [\"kitchen\", \"night\"]}\n```"}

	resp, err := analyzer.NewVideoAnalyzer(lm).Ask(context.Background(), test.SolidFrames(2), "people", defaultConfig(t),
		analyzer.WithSignature(sig))
	require.NoError(t, err)
	assert.Equal(t, 2.0, resp.Fields["people"])
	assert.Equal(t, []string{"kitchen", "night"}, resp.Fields["tags"])
	assert.Equal(t, "focus: people", lm.LastPrompt().Turns[0].Text, "the prompt binds to the first text input")
	assert.Len(t, lm.LastPrompt().Turns[0].Frames, 2, "frames input is added to custom signatures")
}

func TestDelegateFailureIsModelCallError(t *testing.T) {
	cause := errors.New("503 overloaded")
	lm := &test.EchoModel{Err: cause}
	_, err := analyzer.NewVideoAnalyzer(lm).Ask(context.Background(), test.SolidFrames(1), "?", defaultConfig(t))
	assert.True(t, errors.Is(err, model.ErrModelCall))
	assert.True(t, errors.Is(err, cause), "the cause is kept")
	assert.Equal(t, 1, lm.Calls(), "no retries")
}

func TestPlainTextReply(t *testing.T) {
	lm := &test.EchoModel{Reply: "A dog chases a ball."}
	a := analyzer.NewVideoAnalyzer(lm)

	resp, err := a.Ask(context.Background(), test.SolidFrames(1), "?", defaultConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "A dog chases a ball.", resp.Answer())

	_, err = a.Ask(context.Background(), test.SolidFrames(1), "?", defaultConfig(t), analyzer.WithModule(analyzer.NewChainOfThought()))
	assert.True(t, errors.Is(err, model.ErrModelCall), "two outputs need a json reply")
}

func TestParseOutputs(t *testing.T) {
	outputs := []model.Field{
		{Name: "reasoning", Kind: model.KindText},
		{Name: "answer", Kind: model.KindText},
	}

	fields, err := analyzer.ParseOutputs(`Sure! {"answer": "42"} hope that helps`, outputs)
	require.NoError(t, err)
	assert.Equal(t, "", fields["reasoning"])
	assert.Equal(t, "42", fields["answer"])

	_, err = analyzer.ParseOutputs(`{"reasoning": "hmm"}`, outputs)
	assert.True(t, errors.Is(err, model.ErrModelCall))
}

func TestModuleByName(t *testing.T) {
	m, err := analyzer.ModuleByName("")
	require.NoError(t, err)
	assert.Equal(t, "Predict", m.Name())

	m, err = analyzer.ModuleByName("chain_of_thought")
	require.NoError(t, err)
	assert.Equal(t, "ChainOfThought", m.Name())

	_, err = analyzer.ModuleByName("ReAct")
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))
}

func TestRouterDispatchesByProvider(t *testing.T) {
	openai := &test.EchoModel{}
	gemini := &test.EchoModel{}
	router := analyzer.NewRouter().
		Register(openai, analyzer.ProviderOpenAI).
		Register(gemini, analyzer.ProviderGoogle, analyzer.ProviderVertex, analyzer.ProviderGemini)
	a := analyzer.NewVideoAnalyzer(router)
	frames := test.SolidFrames(1)

	for _, name := range []string{"openai/gpt-4o", "openai/o4-mini"} {
		_, err := a.Ask(context.Background(), frames, "?", defaultConfig(t, model.WithModelName(name)))
		require.NoError(t, err)
	}
	for _, name := range []string{"google/gemini-2.5-flash", "vertex/gemini-2.5-pro", "gemini-2.0-flash"} {
		_, err := a.Ask(context.Background(), frames, "?", defaultConfig(t, model.WithModelName(name)))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, openai.Calls())
	assert.Equal(t, 3, gemini.Calls())

	_, err := a.Ask(context.Background(), frames, "?", defaultConfig(t, model.WithModelName("anthropic/claude")))
	assert.True(t, errors.Is(err, model.ErrModelCall))
}

// singleCall is a caller-supplied strategy that never touches the request state.
type singleCall struct{}

func (singleCall) Name() string { return "SingleCall" }

func (singleCall) Forward(ctx context.Context, lm analyzer.LanguageModel, req *model.AnalysisRequest) (*model.AnalysisResponse, error) {
	prompt := &analyzer.Prompt{
		System:  "describe the frames",
		Turns:   []analyzer.Turn{{Role: model.RoleUser, Text: req.Prompt, Frames: req.Frames}},
		Outputs: req.Signature.Outputs,
	}
	completion, err := lm.Generate(ctx, prompt, req.Config)
	if err != nil {
		return nil, err
	}
	fields, err := analyzer.ParseOutputs(completion.Text, prompt.Outputs)
	if err != nil {
		return nil, err
	}
	return &model.AnalysisResponse{
		RequestID:  req.ID,
		Model:      completion.Model,
		Signature:  req.Signature.Name,
		Fields:     fields,
		FrameCount: prompt.FrameCount(),
		Usage:      completion.Usage,
	}, nil
}

func TestCustomModule(t *testing.T) {
	lm := &test.EchoModel{}
	resp, err := analyzer.NewVideoAnalyzer(lm).Ask(context.Background(), test.SolidFrames(2), "count them", defaultConfig(t),
		analyzer.WithModule(singleCall{}))
	require.NoError(t, err)
	assert.Equal(t, "2 frames: count them", resp.Answer())
	assert.Equal(t, 1, lm.Calls())
}

func TestCustomModuleFailureIsTyped(t *testing.T) {
	lm := &test.EchoModel{Err: errors.New("upstream closed")}
	_, err := analyzer.NewVideoAnalyzer(lm).Ask(context.Background(), test.SolidFrames(1), "?", defaultConfig(t),
		analyzer.WithModule(singleCall{}))
	assert.True(t, errors.Is(err, model.ErrModelCall), "got %v", err)
}
