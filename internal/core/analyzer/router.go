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
	"strings"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// Provider names accepted as the prefix of a model name.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
	ProviderVertex = "vertex"
	ProviderGemini = "gemini"
)

// Router dispatches each call to the backend named by the provider prefix of
// the configured model name. A bare "gemini*" model name is routed to Gemini.
type Router struct {
	backends map[string]LanguageModel
}

func NewRouter() *Router {
	return &Router{backends: make(map[string]LanguageModel)}
}

// Register binds lm to one or more provider names.
func (r *Router) Register(lm LanguageModel, providers ...string) *Router {
	for _, p := range providers {
		r.backends[p] = lm
	}
	return r
}

// Resolve returns the backend for cfg.
func (r *Router) Resolve(cfg *model.AnalyzerConfig) (LanguageModel, error) {
	provider := cfg.Provider()
	if provider == "" && strings.HasPrefix(cfg.ModelName(), ProviderGemini) {
		provider = ProviderGemini
	}
	lm, ok := r.backends[provider]
	if !ok {
		return nil, model.NewError(model.KindModelCall, "route-model", "no backend for model %q", cfg.ModelName())
	}
	return lm, nil
}

func (r *Router) Generate(ctx context.Context, prompt *Prompt, cfg *model.AnalyzerConfig) (*Completion, error) {
	lm, err := r.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return lm.Generate(ctx, prompt, cfg)
}
