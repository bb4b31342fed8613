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

package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/analyzer"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-video-analyzer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

// localFetcher stands in for the GCS download: every object "downloads" to
// a path the stub decoder accepts.
type localFetcher struct {
	cor.BaseCommand
}

func (f *localFetcher) Execute(context cor.Context) {
	obj := context.Get(f.GetInputParam()).(*cloud.GCSObject)
	f.Succeed(context, "/tmp/"+obj.Name)
}

type recordingInserter struct {
	mu   sync.Mutex
	rows []interface{}
}

func (r *recordingInserter) Put(_ context.Context, src interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, src)
	return nil
}

func workflowConfig() *cloud.Config {
	c := cloud.NewConfig()
	c.Extraction.FPS = 1
	c.Extraction.MaxFrames = 4
	c.Extraction.ResizeScale = 0.5
	c.PromptTemplates.DefaultSystemPrompt = "Describe the video"
	c.Analysis.Model = "openai/gpt-4o"
	c.Analysis.Module = "chain_of_thought"
	return c
}

func newWorkflow(t *testing.T, c *cloud.Config, lm *test.EchoModel, inserter *recordingInserter) *workflow.VideoAnalysisWorkflow {
	t.Helper()
	w, err := workflow.NewVideoAnalysisWorkflow(c, nil,
		analyzer.NewVideoAnalyzer(lm), test.NewStubDecoder(),
		workflow.WithVideoFetcher(&localFetcher{BaseCommand: *cor.NewBaseCommand("local-fetcher")}),
		workflow.WithRowInserter(inserter))
	require.NoError(t, err)
	return w
}

func TestVideoAnalysisWorkflow(t *testing.T) {
	traceCtx, span := tracer.Start(ctx, "video-analysis-test")
	defer span.End()

	lm := &test.EchoModel{}
	inserter := &recordingInserter{}
	w := newWorkflow(t, workflowConfig(), lm, inserter)

	acked, nacked := false, false
	ok := cloud.HandleMessage(traceCtx, w, []byte(test.GetTestVideoMessageText()),
		func() { acked = true }, func() { nacked = true })
	if !ok {
		span.SetStatus(codes.Error, "video analysis workflow failed")
	}
	require.True(t, ok)
	assert.True(t, acked)
	assert.False(t, nacked)

	require.Len(t, inserter.rows, 1)
	record := inserter.rows[0].(*model.AnalysisRecord)
	assert.Equal(t, "gs://video_analyzer_input/test-trailer-001.mp4", record.VideoUri)
	assert.Equal(t, model.VideoIdFor(record.VideoUri), record.VideoId)
	assert.Equal(t, "openai/gpt-4o", record.Model)
	assert.Equal(t, 4, record.FrameCount)
	assert.Equal(t, "Describe the video", record.Prompt)
	assert.Equal(t, "4 frames: system_prompt: Describe the video", record.Answer)
	assert.NotEmpty(t, record.Reasoning)
	assert.Equal(t, 1, lm.Calls())

	frames := lm.LastPrompt().Turns[0].Frames
	require.Len(t, frames, 4)
	assert.Equal(t, 32, frames[0].Width)
}

func TestVideoAnalysisWorkflowUsesConfiguredInstructions(t *testing.T) {
	c := workflowConfig()
	c.PromptTemplates.Instructions = "List every vehicle you can see"
	lm := &test.EchoModel{}
	w := newWorkflow(t, c, lm, &recordingInserter{})

	require.True(t, cloud.HandleMessage(ctx, w, []byte(test.GetTestVideoMessageText()), func() {}, func() {}))
	assert.Contains(t, lm.LastPrompt().System, "List every vehicle you can see")
}

func TestVideoAnalysisWorkflowNacksFailures(t *testing.T) {
	tests := []struct {
		name    string
		message string
		lm      *test.EchoModel
	}{
		{"not json", "{", &test.EchoModel{}},
		{"not a video", `{"bucket": "video_analyzer_input", "name": "notes.txt", "contentType": "text/plain"}`, &test.EchoModel{}},
		{"model failure", test.GetTestVideoMessageText(), &test.EchoModel{Err: assert.AnError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inserter := &recordingInserter{}
			w := newWorkflow(t, workflowConfig(), tt.lm, inserter)
			nacked := false
			ok := cloud.HandleMessage(ctx, w, []byte(tt.message), func() {}, func() { nacked = true })
			assert.False(t, ok)
			assert.True(t, nacked)
			assert.Empty(t, inserter.rows)
		})
	}
}

func TestVideoAnalysisWorkflowNeedsClients(t *testing.T) {
	_, err := workflow.NewVideoAnalysisWorkflow(workflowConfig(), nil, analyzer.NewVideoAnalyzer(&test.EchoModel{}), test.NewStubDecoder())
	assert.Error(t, err)

	c := workflowConfig()
	c.Analysis.Module = "tree_of_thought"
	_, err = workflow.NewVideoAnalysisWorkflow(c, nil, analyzer.NewVideoAnalyzer(&test.EchoModel{}), test.NewStubDecoder(),
		workflow.WithVideoFetcher(&localFetcher{BaseCommand: *cor.NewBaseCommand("local-fetcher")}),
		workflow.WithRowInserter(&recordingInserter{}))
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))
}
