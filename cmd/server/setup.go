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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/api"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/analyzer"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/media"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/services"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/workflow"
)

// StateManager holds the shared components of the server.
type StateManager struct {
	config   *cloud.Config
	cloud    *cloud.ServiceClients
	analyzer *analyzer.VideoAnalyzer
	decoder  media.Decoder
	api      *api.Server
}

var state = &StateManager{}

// SetupOS defaults the configuration directory to ./configs and the runtime
// to "local" unless the environment already sets them.
func SetupOS() error {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		return os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return nil
}

func GetConfig() (*cloud.Config, error) {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			return nil, fmt.Errorf("failed to setup environment: %w", err)
		}
		config, err := cloud.LoadApplicationConfig()
		if err != nil {
			return nil, err
		}
		state.config = config
	}
	return state.config, nil
}

// NewLanguageModel routes "openai/..." models to OpenAI and every Google
// provider to Gemini through the configured agent.
func NewLanguageModel(config *cloud.Config, clients *cloud.ServiceClients) *analyzer.Router {
	agent := clients.AgentModels[config.Analysis.GeminiAgent]
	if agent == nil {
		slog.Warn("no gemini agent configured, gemini models need a per call api key",
			"agent", config.Analysis.GeminiAgent)
	}
	gemini := analyzer.NewGeminiModel("gemini", agent, analyzer.NewGeminiAPIClient)
	openAI := analyzer.NewOpenAIModel("openai", config.Credentials)

	return analyzer.NewRouter().
		Register(openAI, analyzer.ProviderOpenAI).
		Register(gemini, analyzer.ProviderGemini, analyzer.ProviderGoogle, analyzer.ProviderVertex)
}

// InitState connects to Google Cloud and builds the analyzer, the HTTP
// handlers and the Pub/Sub workflows.
func InitState(ctx context.Context) error {
	config, err := GetConfig()
	if err != nil {
		return err
	}

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients
	state.decoder = media.NewFFmpegDecoder()
	state.analyzer = analyzer.NewVideoAnalyzer(NewLanguageModel(config, cloudClients))

	datasetName := config.BigQueryDataSource.DatasetName
	analysisTable := config.BigQueryDataSource.AnalysisTable

	state.api = &api.Server{
		Config:   config,
		Pipeline: workflow.NewExtractionPipeline(state.decoder,
			workflow.WithStorageClient(cloudClients.StorageClient),
			workflow.WithDecodeWorkers(config.Application.ThreadPoolSize)),
		Analyzer: state.analyzer,
		Fetcher:  commands.NewGCSToTempFile("api-gcs-to-temp-file", cloudClients.StorageClient, "video-request-"),
		Analyses: &services.AnalysisService{
			BigqueryClient: cloudClients.BigQueryClient,
			DatasetName:    datasetName,
			AnalysisTable:  analysisTable,
		},
		Frames: &services.FrameService{
			StorageClient: cloudClients.StorageClient,
			SignerEmail:   config.Application.SignerServiceAccountEmail,
			Sign:          services.IAMSigner(cloudClients.IAMClient, config.Application.SignerServiceAccountEmail),
		},
		Uploads: &api.GCSVideoStore{
			Client: cloudClients.StorageClient,
			Bucket: config.Storage.VideoInputBucket,
		},
		Recorder: cloudClients.BigQueryClient.Dataset(datasetName).Table(analysisTable).Inserter(),
	}

	return SetupListeners(ctx, config, cloudClients)
}
