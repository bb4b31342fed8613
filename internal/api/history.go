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
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// DefaultSignedURLMinutes applies when storage.signed_url_minutes is unset.
const DefaultSignedURLMinutes = 15

// ListAnalyses handles GET /analyses?video=<uri>&limit=<n>.
func (s *Server) ListAnalyses(c *gin.Context) {
	if s.Analyses == nil {
		unavailable(c, "analysis history")
		return
	}
	video := c.Query("video")
	if video == "" {
		abortWithError(c, model.NewError(model.KindInvalidConfig, "list-analyses", "the video query parameter is required"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		abortWithError(c, model.WrapError(model.KindInvalidConfig, "list-analyses", err, "bad limit"))
		return
	}
	records, err := s.Analyses.ListByVideo(c.Request.Context(), video, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ListFrames handles GET /frames?prefix=gs://bucket/<video stem>.
func (s *Server) ListFrames(c *gin.Context) {
	if s.Frames == nil {
		unavailable(c, "frame listing")
		return
	}
	prefix := c.Query("prefix")
	if !cloud.IsGCSURI(prefix) {
		abortWithError(c, model.NewError(model.KindInvalidConfig, "list-frames", "prefix must be a gs:// location, got %q", prefix))
		return
	}
	uris, err := s.Frames.List(c.Request.Context(), prefix)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"frames": uris})
}

// FrameURL handles GET /frames/url?uri=gs://bucket/object.
func (s *Server) FrameURL(c *gin.Context) {
	if s.Frames == nil {
		unavailable(c, "frame signing")
		return
	}
	uri := c.Query("uri")
	if !cloud.IsGCSURI(uri) {
		abortWithError(c, model.NewError(model.KindInvalidConfig, "sign-frame-url", "uri must be a gs:// object, got %q", uri))
		return
	}
	minutes := s.Config.Storage.SignedURLMinutes
	if minutes <= 0 {
		minutes = DefaultSignedURLMinutes
	}
	expires := time.Duration(minutes) * time.Minute
	signed, err := s.Frames.SignedURL(c.Request.Context(), uri, expires)
	if err != nil {
		var kindErr *model.Error
		if !errors.As(err, &kindErr) {
			err = model.WrapError(model.KindInvalidConfig, "sign-frame-url", err, "cannot sign %s", uri)
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": signed, "expires_at": time.Now().Add(expires).UTC()})
}
