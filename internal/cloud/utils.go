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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

const (
	ConfigFileBaseName  = ".env"
	ConfigFileExtension = ".toml"
	ConfigSeparator     = "."
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // directory holding the config files
	EnvConfigRuntime    = "GCP_RUNTIME"       // selects .env.<runtime>.toml, defaults to "test"
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig decodes .env.toml and then .env.<GCP_RUNTIME>.toml from the
// GCP_CONFIG_PREFIX directory into baseConfig, so values in the runtime file
// override the base file. Missing files are skipped.
func LoadConfig(baseConfig interface{}) error {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	for _, name := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(name) {
			slog.Debug("configuration file not found, skipping", "file", name)
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
	}
	return nil
}

// LoadApplicationConfig loads the TOML configuration and the credentials
// from the environment.
func LoadApplicationConfig() (*Config, error) {
	config := NewConfig()
	if err := LoadConfig(config); err != nil {
		return nil, err
	}
	creds, err := LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials from the environment: %w", err)
	}
	config.Credentials = creds
	return config, nil
}

// GenerateMultiModalResponse sends contents to the model once and returns the
// concatenated text of all candidates, with any markdown json fence removed.
// Token usage is added to the two counters when they are non-nil.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	agent *QuotaAwareGenerativeAIModel,
	contents []*genai.Content) (string, model.TokenUsage, error) {

	var usage model.TokenUsage
	resp, err := agent.GenerateContent(ctx, contents)
	if err != nil {
		return "", usage, err
	}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		if inputTokenCounter != nil {
			inputTokenCounter.Add(ctx, int64(usage.PromptTokens))
		}
		if outputTokenCounter != nil {
			outputTokenCounter.Add(ctx, int64(usage.CompletionTokens))
		}
	}

	var value strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				value.WriteString(part.Text)
			}
		}
	}
	return TrimJSONFence(value.String()), usage, nil
}

// TrimJSONFence strips a surrounding ```json ... ``` markdown fence.
func TrimJSONFence(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimPrefix(value, "```")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value)
}

// NewTextPart wraps text in a genai part.
func NewTextPart(in string) *genai.Part {
	return &genai.Part{Text: in}
}

// NewImagePart wraps encoded image bytes in an inline genai part.
func NewImagePart(data []byte, mimeType string) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}}
}
