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

package api

import (
	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/analyzer"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// ExtractionFields are the extraction options shared by every request that
// takes a video. Fields left out fall back to the [extraction] defaults.
type ExtractionFields struct {
	Video       string      `json:"video" binding:"required"` // local path or gs:// URI
	FPS         *float64    `json:"fps"`
	ResizeScale *float64    `json:"resize_scale"`
	ResizeDims  *model.Dims `json:"resize_dims"`
	StartTime   *string     `json:"start_time"`
	EndTime     *string     `json:"end_time"`
	MaxFrames   *int        `json:"max_frames"`
	OutputPath  string      `json:"output_path"`
}

// ExtractorConfig merges the request over defaults. A resize in the request
// replaces the default resize instead of conflicting with it.
func (f *ExtractionFields) ExtractorConfig(defaults cloud.Extraction) (*model.ExtractorConfig, error) {
	if f.ResizeScale != nil || f.ResizeDims != nil {
		defaults.ResizeScale, defaults.ResizeWidth, defaults.ResizeHeight = 0, 0, 0
	}
	opts := defaults.Options()
	if f.FPS != nil {
		opts = append(opts, model.WithFPS(*f.FPS))
	}
	if f.ResizeScale != nil {
		opts = append(opts, model.WithResizeScale(*f.ResizeScale))
	}
	if f.ResizeDims != nil {
		opts = append(opts, model.WithResizeDims(f.ResizeDims.Width, f.ResizeDims.Height))
	}
	if f.StartTime != nil {
		opts = append(opts, model.WithStartTime(*f.StartTime))
	}
	if f.EndTime != nil {
		opts = append(opts, model.WithEndTime(*f.EndTime))
	}
	if f.MaxFrames != nil {
		opts = append(opts, model.WithMaxFrames(*f.MaxFrames))
	}
	if f.OutputPath != "" {
		opts = append(opts, model.WithOutputPath(f.OutputPath))
	}
	return model.NewExtractorConfig(opts...)
}

// AnalyzerFields override the [analysis] defaults for one call.
type AnalyzerFields struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
	Module      string   `json:"module"` // "predict" or "chain_of_thought"
}

func (f *AnalyzerFields) AnalyzerConfig(defaults cloud.Analysis) (*model.AnalyzerConfig, error) {
	opts := defaults.Options()
	if f.Model != "" {
		opts = append(opts, model.WithModelName(f.Model))
	}
	if f.Temperature != nil {
		opts = append(opts, model.WithTemperature(*f.Temperature))
	}
	if f.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*f.MaxTokens))
	}
	return model.NewAnalyzerConfig(opts...)
}

// CallOptions selects the module (request, then config) and applies the
// configured instructions to the signature of mode.
func (f *AnalyzerFields) CallOptions(config *cloud.Config, mode model.RequestMode) ([]analyzer.CallOption, error) {
	name := f.Module
	if name == "" {
		name = config.Analysis.Module
	}
	module, err := analyzer.ModuleByName(name)
	if err != nil {
		return nil, err
	}
	opts := []analyzer.CallOption{analyzer.WithModule(module)}
	if instructions := config.PromptTemplates.Instructions; instructions != "" {
		sig := model.VideoSignature()
		if mode == model.ModeChat {
			sig = model.VideoChatSignature()
		}
		sig.Instructions = instructions
		opts = append(opts, analyzer.WithSignature(sig))
	}
	return opts, nil
}

type ExtractRequest struct {
	ExtractionFields
}

type AskRequest struct {
	ExtractionFields
	AnalyzerFields
	Prompt string `json:"prompt"`
}

type ChatRequest struct {
	ExtractionFields
	AnalyzerFields
	Messages []model.ChatMessage `json:"messages" binding:"required"`
}

// FrameInfo describes one extracted frame without its pixels.
type FrameInfo struct {
	Index     int     `json:"index"`
	Timestamp float64 `json:"timestamp"`
	Timecode  string  `json:"timecode"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

type ExtractResponse struct {
	Video     *model.VideoInfo `json:"video"`
	Window    model.TimeWindow `json:"window"`
	Frames    []FrameInfo      `json:"frames"`
	Persisted []string         `json:"persisted,omitempty"`
}

type AnalyzeResponse struct {
	*model.AnalysisResponse
	Answer    string           `json:"answer"`
	Reasoning string           `json:"reasoning,omitempty"`
	Window    model.TimeWindow `json:"window"`
}

func frameInfos(seq model.FrameSequence) []FrameInfo {
	out := make([]FrameInfo, len(seq))
	for i, f := range seq {
		out[i] = FrameInfo{
			Index:     f.Index,
			Timestamp: f.Timestamp,
			Timecode:  model.FormatTimecode(f.Timestamp),
			Width:     f.Width,
			Height:    f.Height,
		}
	}
	return out
}
