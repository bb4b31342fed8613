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

package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/analyzer"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// AnalysisRecordParam holds the *model.AnalysisRecord built by VideoQuestion.
const AnalysisRecordParam = "__ANALYSIS_RECORD__"

// VideoQuestion asks a fixed prompt about the model.FrameSequence on its
// input. It outputs the *model.AnalysisResponse and stores the matching
// BigQuery row under AnalysisRecordParam.
type VideoQuestion struct {
	cor.BaseCommand
	analyzer *analyzer.VideoAnalyzer
	prompt   string
	config   *model.AnalyzerConfig
	options  []analyzer.CallOption
}

func NewVideoQuestion(name string, a *analyzer.VideoAnalyzer, prompt string, config *model.AnalyzerConfig, opts ...analyzer.CallOption) *VideoQuestion {
	return &VideoQuestion{
		BaseCommand: *cor.NewBaseCommand(name),
		analyzer:    a,
		prompt:      prompt,
		config:      config,
		options:     opts,
	}
}

func (c *VideoQuestion) Execute(context cor.Context) {
	seq := context.Get(c.GetInputParam()).(model.FrameSequence)

	resp, err := c.analyzer.Ask(context.GetContext(), seq, c.prompt, c.config, c.options...)
	if err != nil {
		c.Fail(context, err)
		return
	}

	uri := sourceVideo(context)
	record := model.NewAnalysisRecord(uri, &model.AnalysisRequest{Mode: model.ModeAsk, Prompt: c.prompt}, resp)
	context.Add(AnalysisRecordParam, record)
	slog.Info("answered video question", "video", uri, "model", resp.Model, "frames", resp.FrameCount)
	c.Succeed(context, resp)
}

// sourceVideo names the analyzed video: the triggering GCS object when there
// is one, else the probed local path.
func sourceVideo(context cor.Context) string {
	if obj, ok := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject); ok {
		return obj.URI()
	}
	if path, ok := context.Get(VideoPathParam).(string); ok {
		return path
	}
	return ""
}
