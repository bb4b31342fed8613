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

package cloud

import (
	"github.com/caarlos0/env/v11"
)

// Credentials are the secrets the model backends need. They are read from the
// process environment only, never from the TOML files.
type Credentials struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIOrgID   string `env:"OPENAI_ORG_ID"`
	// GeminiAPIKey switches genai from Vertex AI to the Gemini API backend.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadCredentials parses Credentials from the environment.
func LoadCredentials() (Credentials, error) {
	var creds Credentials
	if err := env.Parse(&creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// APIKeyFor returns the key configured for a model provider prefix such as
// "openai" or "gemini", or "" when none is set.
func (c Credentials) APIKeyFor(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini", "google":
		return c.GeminiAPIKey
	}
	return ""
}
