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

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// Completion is the raw reply of one model call.
type Completion struct {
	Text  string
	Model string
	Usage model.TokenUsage
}

// LanguageModel performs a single call against a vision language model.
// Implementations must not retry.
type LanguageModel interface {
	Generate(ctx context.Context, prompt *Prompt, cfg *model.AnalyzerConfig) (*Completion, error)
}

// LanguageModelFunc adapts a function to LanguageModel.
type LanguageModelFunc func(ctx context.Context, prompt *Prompt, cfg *model.AnalyzerConfig) (*Completion, error)

func (f LanguageModelFunc) Generate(ctx context.Context, prompt *Prompt, cfg *model.AnalyzerConfig) (*Completion, error) {
	return f(ctx, prompt, cfg)
}
