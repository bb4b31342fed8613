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
	"context"
	"errors"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// localVideo returns a local path for video. gs:// URIs are downloaded with
// the Fetcher; the returned cleanup removes the download.
func (s *Server) localVideo(ctx context.Context, video string) (string, func(), error) {
	const op = "fetch-video"
	if !cloud.IsGCSURI(video) {
		return video, func() {}, nil
	}
	if s.Fetcher == nil {
		return "", nil, model.NewError(model.KindInvalidConfig, op, "gs:// videos are not supported without a storage client")
	}
	obj, err := cloud.ParseGCSURI(video)
	if err != nil {
		return "", nil, model.WrapError(model.KindInvalidConfig, op, err, "bad video uri")
	}

	chCtx := cor.NewContext(ctx)
	chCtx.Add(s.Fetcher.GetInputParam(), obj)
	s.Fetcher.Execute(chCtx)
	if err := chCtx.FirstError(); err != nil {
		chCtx.Close()
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return "", nil, model.WrapError(model.KindVideoNotFound, op, err, "no video at %s", video)
		}
		return "", nil, err
	}
	path, ok := chCtx.Get(s.Fetcher.GetOutputParam()).(string)
	if !ok {
		chCtx.Close()
		return "", nil, model.NewError(model.KindVideoNotFound, op, "%s produced no local file for %s", s.Fetcher.GetName(), video)
	}
	return path, chCtx.Close, nil
}

// extract runs the pipeline for the video fields of a request.
func (s *Server) extract(ctx context.Context, requested *ExtractionFields) (*model.Extraction, error) {
	fields, err := s.confine(*requested)
	if err != nil {
		return nil, err
	}
	cfg, err := fields.ExtractorConfig(s.Config.Extraction)
	if err != nil {
		return nil, err
	}
	path, cleanup, err := s.localVideo(ctx, fields.Video)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return s.Pipeline.Run(ctx, path, cfg)
}

// Extract handles POST /extract and reports the frames without pixels.
func (s *Server) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, model.WrapError(model.KindInvalidConfig, "bind-request", err, "bad extract request"))
		return
	}
	result, err := s.extract(c.Request.Context(), &req.ExtractionFields)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExtractResponse{
		Video:     result.Video,
		Window:    result.Window,
		Frames:    frameInfos(result.Frames),
		Persisted: result.Persisted,
	})
}

// Ask handles POST /ask. An empty prompt falls back to the configured
// default system prompt.
func (s *Server) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, model.WrapError(model.KindInvalidConfig, "bind-request", err, "bad ask request"))
		return
	}
	if req.Prompt == "" {
		req.Prompt = s.Config.PromptTemplates.DefaultSystemPrompt
	}
	cfg, err := req.AnalyzerConfig(s.Config.Analysis)
	if err != nil {
		abortWithError(c, err)
		return
	}
	opts, err := req.CallOptions(s.Config, model.ModeAsk)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	extraction, err := s.extract(ctx, &req.ExtractionFields)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp, err := s.Analyzer.Ask(ctx, extraction.Frames, req.Prompt, cfg, opts...)
	if err != nil {
		abortWithError(c, err)
		return
	}

	r := model.NewAnalysisRequest(model.ModeAsk, extraction.Frames, model.VideoSignature(), cfg)
	r.Prompt = req.Prompt
	s.record(ctx, req.Video, r, resp)
	c.JSON(http.StatusOK, newAnalyzeResponse(resp, extraction))
}

// Chat handles POST /chat. The history is validated before any frame is
// decoded.
func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, model.WrapError(model.KindInvalidConfig, "bind-request", err, "bad chat request"))
		return
	}
	if err := model.ValidateChatHistory(req.Messages); err != nil {
		abortWithError(c, err)
		return
	}
	cfg, err := req.AnalyzerConfig(s.Config.Analysis)
	if err != nil {
		abortWithError(c, err)
		return
	}
	opts, err := req.CallOptions(s.Config, model.ModeChat)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	extraction, err := s.extract(ctx, &req.ExtractionFields)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp, err := s.Analyzer.Chat(ctx, extraction.Frames, req.Messages, cfg, opts...)
	if err != nil {
		abortWithError(c, err)
		return
	}

	r := model.NewAnalysisRequest(model.ModeChat, extraction.Frames, model.VideoChatSignature(), cfg)
	r.Messages = req.Messages
	s.record(ctx, req.Video, r, resp)
	c.JSON(http.StatusOK, newAnalyzeResponse(resp, extraction))
}

// record stores the analysis when a Recorder is configured. A failed insert
// is logged and does not fail the request.
func (s *Server) record(ctx context.Context, video string, req *model.AnalysisRequest, resp *model.AnalysisResponse) {
	if s.Recorder == nil {
		return
	}
	rec := model.NewAnalysisRecord(video, req, resp)
	if err := s.Recorder.Put(ctx, rec); err != nil {
		slog.WarnContext(ctx, "failed to store analysis", "video", video, "request_id", resp.RequestID, "error", err)
	}
}

func newAnalyzeResponse(resp *model.AnalysisResponse, extraction *model.Extraction) AnalyzeResponse {
	return AnalyzeResponse{
		AnalysisResponse: resp,
		Answer:           resp.Answer(),
		Reasoning:        resp.Reasoning(),
		Window:           extraction.Window,
	}
}
