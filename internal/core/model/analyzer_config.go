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

package model

import "strings"

// Analyzer defaults.
const (
	DefaultModelName   = "openai/o4-mini"
	DefaultTemperature = 1.0
	DefaultMaxTokens   = 20_000
)

// AnalyzerConfig identifies the model and the sampling parameters of an
// analysis call. It is immutable after construction.
type AnalyzerConfig struct {
	modelName   string
	temperature float64
	maxTokens   int
	apiKey      string
}

// AnalyzerOption sets one field of an AnalyzerConfig under construction.
type AnalyzerOption func(c *AnalyzerConfig)

func WithModelName(name string) AnalyzerOption {
	return func(c *AnalyzerConfig) { c.modelName = name }
}

func WithTemperature(t float64) AnalyzerOption {
	return func(c *AnalyzerConfig) { c.temperature = t }
}

func WithMaxTokens(n int) AnalyzerOption {
	return func(c *AnalyzerConfig) { c.maxTokens = n }
}

// WithAPIKey sets an explicit credential. Without it the model backend uses
// the credential from the environment.
func WithAPIKey(key string) AnalyzerOption {
	return func(c *AnalyzerConfig) { c.apiKey = key }
}

// NewAnalyzerConfig builds an AnalyzerConfig from the defaults and the given
// options, failing with InvalidConfig when a value is out of range.
func NewAnalyzerConfig(opts ...AnalyzerOption) (*AnalyzerConfig, error) {
	c := &AnalyzerConfig{
		modelName:   DefaultModelName,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	const op = "analyzer-config"
	if strings.TrimSpace(c.modelName) == "" {
		return nil, NewError(KindInvalidConfig, op, "model_name must not be empty")
	}
	if c.temperature < 0 {
		return nil, NewError(KindInvalidConfig, op, "temperature must be >= 0, got %v", c.temperature)
	}
	if c.maxTokens <= 0 {
		return nil, NewError(KindInvalidConfig, op, "max_tokens must be > 0, got %d", c.maxTokens)
	}
	return c, nil
}

// ModelName returns the full "provider/model" identifier.
func (c *AnalyzerConfig) ModelName() string { return c.modelName }

// Provider returns the part of the model name before the first "/", or "" if there is none.
func (c *AnalyzerConfig) Provider() string {
	if i := strings.Index(c.modelName, "/"); i > 0 {
		return c.modelName[:i]
	}
	return ""
}

// Model returns the model name without its provider prefix.
func (c *AnalyzerConfig) Model() string {
	if i := strings.Index(c.modelName, "/"); i > 0 {
		return c.modelName[i+1:]
	}
	return c.modelName
}

func (c *AnalyzerConfig) Temperature() float64 { return c.temperature }

func (c *AnalyzerConfig) MaxTokens() int { return c.maxTokens }

// APIKey returns the explicit credential, or "" when the environment should be used.
func (c *AnalyzerConfig) APIKey() string { return c.apiKey }
