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
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// Stats is what GET /stats reports: the defaults requests fall back to and
// which optional features are wired.
type Stats struct {
	Application string           `json:"application"`
	Model       string           `json:"model"`
	Module      string           `json:"module"`
	Extraction  cloud.Extraction `json:"extraction"`
	Listeners   []string         `json:"listeners"`
	Features    map[string]bool  `json:"features"`
}

// Dashboard registers GET /stats.
func Dashboard(r *gin.RouterGroup, s *Server) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			listeners := make([]string, 0, len(s.Config.TopicSubscriptions))
			for key := range s.Config.TopicSubscriptions {
				listeners = append(listeners, key)
			}
			sort.Strings(listeners)

			modelName := s.Config.Analysis.Model
			if modelName == "" {
				modelName = model.DefaultModelName
			}
			module := s.Config.Analysis.Module
			if module == "" {
				module = "predict"
			}
			c.JSON(http.StatusOK, Stats{
				Application: s.Config.Application.Name,
				Model:       modelName,
				Module:      module,
				Extraction:  s.Config.Extraction,
				Listeners:   listeners,
				Features: map[string]bool{
					"gcs_videos": s.Fetcher != nil,
					"history":    s.Analyses != nil,
					"frame_urls": s.Frames != nil,
					"uploads":    s.Uploads != nil,
					"recording":  s.Recorder != nil,
				},
			})
		})
	}
}
