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

package workflow

import (
	"fmt"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/analyzer"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/media"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// VideoAnalysisWorkflow runs when a video is finalized in the input bucket:
// it downloads the video, extracts frames with the configured defaults, asks
// the default prompt about them and stores the answer in BigQuery.
type VideoAnalysisWorkflow struct {
	cor.BaseCommand
	config   *cloud.Config
	clients  *cloud.ServiceClients
	analyzer *analyzer.VideoAnalyzer
	decoder  media.Decoder
	fetcher  cor.Command
	inserter commands.RowInserter
	chain    cor.Chain
}

type WorkflowOption func(*VideoAnalysisWorkflow)

// WithVideoFetcher replaces the GCS download step. The command receives the
// *cloud.GCSObject and must output a local video path.
func WithVideoFetcher(fetcher cor.Command) WorkflowOption {
	return func(w *VideoAnalysisWorkflow) { w.fetcher = fetcher }
}

// WithRowInserter replaces the BigQuery inserter of the analysis table.
func WithRowInserter(inserter commands.RowInserter) WorkflowOption {
	return func(w *VideoAnalysisWorkflow) { w.inserter = inserter }
}

// NewVideoAnalysisWorkflow wires the workflow from the configuration. clients
// may be nil when both the fetcher and the inserter are supplied.
func NewVideoAnalysisWorkflow(
	config *cloud.Config,
	clients *cloud.ServiceClients,
	videoAnalyzer *analyzer.VideoAnalyzer,
	decoder media.Decoder,
	opts ...WorkflowOption) (*VideoAnalysisWorkflow, error) {

	w := &VideoAnalysisWorkflow{
		BaseCommand: *cor.NewBaseCommand("video-analysis-workflow"),
		config:      config,
		clients:     clients,
		analyzer:    videoAnalyzer,
		decoder:     decoder,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.fetcher == nil || w.inserter == nil {
		if clients == nil {
			return nil, fmt.Errorf("%s: cloud clients are required without a fetcher and inserter", w.GetName())
		}
		if w.fetcher == nil {
			w.fetcher = commands.NewGCSToTempFile("gcs-to-temp-file", clients.StorageClient, "video-analysis-")
		}
	}

	analyzerConfig, err := model.NewAnalyzerConfig(config.Analysis.Options()...)
	if err != nil {
		return nil, err
	}
	callOptions, err := AnalyzerCallOptions(config)
	if err != nil {
		return nil, err
	}
	w.initializeChain(analyzerConfig, callOptions)
	return w, nil
}

func (w *VideoAnalysisWorkflow) initializeChain(analyzerConfig *model.AnalyzerConfig, callOptions []analyzer.CallOption) {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewVideoTriggerToGCSObject("video-trigger-to-gcs-object"))
	out.AddCommand(w.fetcher)

	outputBucket := ""
	if w.config.Extraction.PersistFrames {
		outputBucket = w.config.Storage.FrameOutputBucket
	}
	out.AddCommand(commands.NewFrameDestination("frame-destination", w.config.Extraction.Options(), outputBucket))

	pipelineOpts := []PipelineOption{WithDecodeWorkers(w.config.Application.ThreadPoolSize)}
	if w.clients != nil {
		pipelineOpts = append(pipelineOpts, WithStorageClient(w.clients.StorageClient))
	}
	out.AddCommand(NewExtractionPipeline(w.decoder, pipelineOpts...))

	out.AddCommand(commands.NewVideoQuestion("video-question", w.analyzer,
		w.config.PromptTemplates.DefaultSystemPrompt, analyzerConfig, callOptions...))
	if w.inserter != nil {
		out.AddCommand(commands.NewAnalysisPersistWithInserter("write-to-bigquery", w.inserter, commands.AnalysisRecordParam))
	} else {
		out.AddCommand(commands.NewAnalysisPersistToBigQuery("write-to-bigquery", w.clients.BigQueryClient,
			w.config.BigQueryDataSource.DatasetName, w.config.BigQueryDataSource.AnalysisTable, commands.AnalysisRecordParam))
	}
	w.chain = out
}

func (w *VideoAnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// AnalyzerCallOptions turns the configured module and instructions into
// per call analyzer options.
func AnalyzerCallOptions(config *cloud.Config) ([]analyzer.CallOption, error) {
	module, err := analyzer.ModuleByName(config.Analysis.Module)
	if err != nil {
		return nil, err
	}
	opts := []analyzer.CallOption{analyzer.WithModule(module)}
	if instructions := config.PromptTemplates.Instructions; instructions != "" {
		sig := model.VideoSignature()
		sig.Instructions = instructions
		opts = append(opts, analyzer.WithSignature(sig))
	}
	return opts, nil
}
