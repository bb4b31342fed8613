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
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients holds every Google Cloud client the server uses.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	GenAIClient     *genai.Client
	BigQueryClient  *bigquery.Client
	IAMClient       *credentials.IamCredentialsClient // signs frame URLs
	PubSubListeners map[string]*PubSubListener
	AgentModels     map[string]*QuotaAwareGenerativeAIModel
}

func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BigQueryClient != nil {
		_ = c.BigQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// GenAIClientConfig selects the Gemini API backend when an API key is
// configured and Vertex AI in the configured project otherwise.
func GenAIClientConfig(config *Config) *genai.ClientConfig {
	if config.Credentials.GeminiAPIKey != "" {
		return &genai.ClientConfig{
			APIKey:  config.Credentials.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
	return &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	}
}

// NewAgentModels builds one rate limited model per agent_models entry.
func NewAgentModels(config *Config, handle GenerativeModels) map[string]*QuotaAwareGenerativeAIModel {
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for key, values := range config.AgentModels {
		generateConfig := &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](values.Temperature),
			TopP:             genai.Ptr[float32](values.TopP),
			TopK:             genai.Ptr[float32](values.TopK),
			MaxOutputTokens:  values.MaxTokens,
			SafetySettings:   DefaultSafetySettings,
			ResponseMIMEType: values.OutputFormat,
		}
		if values.SystemInstructions != "" {
			generateConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
		}
		agentModels[key] = NewQuotaAwareModel(generateConfig, values.Model, handle, values.RateLimit)
	}
	return agentModels
}

// NewCloudServiceClients connects to every service the configuration names.
// The caller owns the result and must Close it.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	clients := &ServiceClients{StorageClient: sc}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		clients.Close()
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	clients.PubsubClient = pc

	gc, err := genai.NewClient(ctx, GenAIClientConfig(config))
	if err != nil {
		clients.Close()
		return nil, fmt.Errorf("genai client: %w", err)
	}
	clients.GenAIClient = gc

	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		clients.Close()
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	clients.BigQueryClient = bc

	ic, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		clients.Close()
		return nil, fmt.Errorf("iam credentials client: %w", err)
	}
	clients.IAMClient = ic

	clients.PubSubListeners = make(map[string]*PubSubListener)
	for key, values := range config.TopicSubscriptions {
		clients.PubSubListeners[key] = NewPubSubListener(pc, values.Name, nil)
	}

	clients.AgentModels = NewAgentModels(config, gc.Models)
	slog.InfoContext(ctx, "cloud clients ready",
		"project", config.Application.GoogleProjectId,
		"location", config.Application.GoogleLocation,
		"agent_models", len(clients.AgentModels),
		"listeners", len(clients.PubSubListeners))
	return clients, nil
}
