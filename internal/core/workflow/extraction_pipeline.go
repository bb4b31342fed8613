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

// Package workflow assembles commands into the pipelines the server and the
// Pub/Sub listeners run.
package workflow

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/media"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// ExtractionPipeline turns a video path and an ExtractorConfig into a frame
// sequence. One pipeline may serve any number of concurrent calls; all
// per-call state lives in the cor.Context.
type ExtractionPipeline struct {
	cor.BaseCommand
	decoder media.Decoder
	sink    media.FrameSink
	storage *storage.Client
	workers int
	chain   cor.Chain
}

type PipelineOption func(*ExtractionPipeline)

// WithFrameSink persists every extraction through sink instead of choosing a
// sink from the configured output path.
func WithFrameSink(sink media.FrameSink) PipelineOption {
	return func(p *ExtractionPipeline) { p.sink = sink }
}

// WithStorageClient enables gs:// output paths.
func WithStorageClient(client *storage.Client) PipelineOption {
	return func(p *ExtractionPipeline) { p.storage = client }
}

// WithDecodeWorkers bounds how many frames are decoded concurrently. The
// default is one at a time.
func WithDecodeWorkers(n int) PipelineOption {
	return func(p *ExtractionPipeline) { p.workers = n }
}

func NewExtractionPipeline(decoder media.Decoder, opts ...PipelineOption) *ExtractionPipeline {
	p := &ExtractionPipeline{
		BaseCommand: *cor.NewBaseCommand("frame-extraction"),
		decoder:     decoder,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.initializeChain()
	return p
}

func (p *ExtractionPipeline) initializeChain() {
	out := cor.NewBaseChain(p.GetName())
	out.AddCommand(commands.NewProbeVideo("probe-video", p.decoder))
	out.AddCommand(commands.NewResolveTimeWindow("resolve-time-window"))
	out.AddCommand(commands.NewSampleTimestamps("sample-timestamps"))
	out.AddCommand(commands.NewDecodeFrames("decode-frames", p.decoder, p.workers))
	out.AddCommand(commands.NewResizeFrames("resize-frames"))
	// Persisting runs last so only a complete sequence is ever written.
	out.AddCommand(commands.NewPersistFrames("persist-frames", p.sink, p.storage))
	p.chain = out
}

// Execute runs the chain on the video path in the command's input and leaves
// the model.FrameSequence in its output, so the pipeline can be nested in a
// larger workflow. The ExtractorConfig is read from
// commands.ExtractorConfigParam.
func (p *ExtractionPipeline) Execute(context cor.Context) {
	p.chain.Execute(context)
	if context.HasErrors() {
		return
	}
	seq, ok := context.Get(cor.CtxIn).(model.FrameSequence)
	if !ok || len(seq) == 0 {
		p.Fail(context, model.NewError(model.KindEmptyExtraction, p.GetName(), "pipeline produced no frames"))
		return
	}
	p.Succeed(context, seq)
}

// Run extracts frames from videoPath and reports what was probed, the window
// that was sampled and where frames were persisted. It returns the first
// error any step recorded; on error no partial result is returned.
func (p *ExtractionPipeline) Run(ctx context.Context, videoPath string, cfg *model.ExtractorConfig) (*model.Extraction, error) {
	if cfg == nil {
		return nil, model.NewError(model.KindInvalidConfig, p.GetName(), "nil extractor config")
	}
	chCtx := cor.NewContext(ctx)
	defer chCtx.Close()
	chCtx.Add(cor.CtxIn, videoPath)
	chCtx.Add(commands.ExtractorConfigParam, cfg)

	p.Execute(chCtx)
	if err := chCtx.FirstError(); err != nil {
		return nil, err
	}

	seq, ok := chCtx.Get(cor.CtxOut).(model.FrameSequence)
	if !ok {
		return nil, fmt.Errorf("%s: no frame sequence in context", p.GetName())
	}
	result := &model.Extraction{Frames: seq}
	if info, ok := chCtx.Get(commands.VideoInfoParam).(*model.VideoInfo); ok {
		result.Video = info
	}
	if window, ok := chCtx.Get(commands.TimeWindowParam).(model.TimeWindow); ok {
		result.Window = window
	}
	if written, ok := chCtx.Get(commands.PersistedFramesParam).([]string); ok {
		result.Persisted = written
	}
	return result, nil
}

// Extract returns the frames of videoPath selected by cfg.
func (p *ExtractionPipeline) Extract(ctx context.Context, videoPath string, cfg *model.ExtractorConfig) (model.FrameSequence, error) {
	result, err := p.Run(ctx, videoPath, cfg)
	if err != nil {
		return nil, err
	}
	return result.Frames, nil
}
