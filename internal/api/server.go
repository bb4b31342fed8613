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

// Package api contains the HTTP routes of the server. Handlers decode a JSON
// request, resolve the video to a local file, run the extraction pipeline and
// hand the frames to the analyzer. Errors are reported as
// {"error": ..., "kind": ...} with a status chosen from the error kind.
package api

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/analyzer"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/workflow"
)

// AnalysisLister reads stored analyses. services.AnalysisService implements it.
type AnalysisLister interface {
	ListByVideo(ctx context.Context, videoUri string, limit int) ([]*model.AnalysisRecord, error)
}

// FrameStore lists persisted frames and hands out signed URLs for them.
// services.FrameService implements it.
type FrameStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	SignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error)
}

// VideoStore stores uploaded videos and returns their URI.
type VideoStore interface {
	Put(ctx context.Context, name string, contentType string, r io.Reader) (string, error)
}

// Server holds the dependencies of the HTTP handlers. Pipeline, Analyzer
// and Config are required; the remaining fields switch their routes off
// (503) when nil.
type Server struct {
	Config   *cloud.Config
	Pipeline *workflow.ExtractionPipeline
	Analyzer *analyzer.VideoAnalyzer
	// Fetcher downloads gs:// videos. It receives a *cloud.GCSObject and
	// outputs a local path, like commands.GCSToTempFile.
	Fetcher  cor.Command
	Analyses AnalysisLister
	Frames   FrameStore
	Uploads  VideoStore
	// Recorder stores one AnalysisRecord per answered ask or chat call.
	Recorder commands.RowInserter
}

// Routes registers every handler below r.
func (s *Server) Routes(r *gin.RouterGroup) {
	r.POST("/extract", s.Extract)
	r.POST("/ask", s.Ask)
	r.POST("/chat", s.Chat)
	r.GET("/analyses", s.ListAnalyses)

	frames := r.Group("/frames")
	{
		frames.GET("", s.ListFrames)
		frames.GET("/url", s.FrameURL)
	}
	FileUpload(r, s)
	Dashboard(r, s)
}
