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

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// StatusFor maps an error to the HTTP status reported for it.
func StatusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindInvalidConfig, model.KindInvalidTimeFormat, model.KindInvalidTimeRange, model.KindMalformedChatHistory:
		return http.StatusBadRequest
	case model.KindVideoNotFound:
		return http.StatusNotFound
	case model.KindUnreadableVideo, model.KindEmptyExtraction:
		return http.StatusUnprocessableEntity
	case model.KindModelCall:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	} else {
		slog.InfoContext(c.Request.Context(), "request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": string(model.KindOf(err))})
}

func unavailable(c *gin.Context, feature string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": feature + " is not configured"})
}
