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

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/analyzer"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// EchoModel is an analyzer.LanguageModel that answers every output field with
// a description of what it was sent, e.g. "3 frames: what happens?".
type EchoModel struct {
	// Err, when set, is returned instead of a completion.
	Err error
	// Reply, when set, is returned verbatim instead of the echo.
	Reply string

	mu      sync.Mutex
	prompts []*analyzer.Prompt
	configs []*model.AnalyzerConfig
}

func (e *EchoModel) Generate(_ context.Context, prompt *analyzer.Prompt, cfg *model.AnalyzerConfig) (*analyzer.Completion, error) {
	e.mu.Lock()
	e.prompts = append(e.prompts, prompt)
	e.configs = append(e.configs, cfg)
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}
	if e.Reply != "" {
		return &analyzer.Completion{Text: e.Reply}, nil
	}

	last := ""
	if n := len(prompt.Turns); n > 0 {
		last = prompt.Turns[n-1].Text
	}
	reply := make(map[string]any, len(prompt.Outputs))
	for _, f := range prompt.Outputs {
		reply[f.Name] = fmt.Sprintf("%d frames: %s", prompt.FrameCount(), last)
	}
	b, err := json.Marshal(reply)
	if err != nil {
		return nil, err
	}
	return &analyzer.Completion{
		Text:  string(b),
		Model: cfg.ModelName(),
		Usage: model.TokenUsage{PromptTokens: 100 * prompt.FrameCount(), CompletionTokens: 10},
	}, nil
}

// Calls returns how many times Generate ran.
func (e *EchoModel) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.prompts)
}

// LastPrompt returns the most recent prompt, or nil.
func (e *EchoModel) LastPrompt() *analyzer.Prompt {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.prompts) == 0 {
		return nil
	}
	return e.prompts[len(e.prompts)-1]
}

// SolidFrames returns n 8x8 frames, one per second.
func SolidFrames(n int) model.FrameSequence {
	seq := make(model.FrameSequence, 0, n)
	for i := 0; i < n; i++ {
		pix := make([]byte, 8*8*model.RGBChannels)
		for p := range pix {
			pix[p] = byte(i * 10)
		}
		f, err := model.NewFrame(i, float64(i), 8, 8, model.RGBChannels, pix)
		if err != nil {
			panic(err)
		}
		seq = append(seq, f)
	}
	return seq
}
