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

// Package model defines the data structures used throughout the application.
// This file contains the "persistent" model: the row written to BigQuery for
// every completed analysis.
package model

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord is one analysis stored in BigQuery. The bigquery tags map the
// fields to table columns for the streaming inserter and for query reads.
type AnalysisRecord struct {
	Id               string    `json:"id" bigquery:"id"`                               // Unique ID of this analysis.
	VideoId          string    `json:"video_id" bigquery:"video_id"`                   // Stable ID derived from the video URI.
	VideoUri         string    `json:"video_uri" bigquery:"video_uri"`                 // Where the analyzed video lives (gs:// or local path).
	RequestId        string    `json:"request_id" bigquery:"request_id"`               // The analyzer request ID.
	Mode             string    `json:"mode" bigquery:"mode"`                           // "ask" or "chat".
	Model            string    `json:"model" bigquery:"model"`                         // Full "provider/model" name.
	Prompt           string    `json:"prompt" bigquery:"prompt"`                       // The prompt, or the last user turn for chat.
	Answer           string    `json:"answer" bigquery:"answer"`                       // The "answer" output field.
	Reasoning        string    `json:"reasoning,omitempty" bigquery:"reasoning"`       // The "reasoning" output field, if any.
	FrameCount       int       `json:"frame_count" bigquery:"frame_count"`             // Number of frames sent to the model.
	PromptTokens     int       `json:"prompt_tokens" bigquery:"prompt_tokens"`         // Input tokens reported by the model.
	CompletionTokens int       `json:"completion_tokens" bigquery:"completion_tokens"` // Output tokens reported by the model.
	CreateDate       time.Time `json:"create_date" bigquery:"create_date"`
}

// VideoIdFor derives a stable UUIDv5 from a video URI so that every analysis
// of the same video shares one ID.
func VideoIdFor(videoUri string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(videoUri)).String()
}

// NewAnalysisRecord builds the BigQuery row for a completed request.
func NewAnalysisRecord(videoUri string, req *AnalysisRequest, resp *AnalysisResponse) *AnalysisRecord {
	prompt := req.Prompt
	if req.Mode == ModeChat && len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}
	return &AnalysisRecord{
		Id:               uuid.NewString(),
		VideoId:          VideoIdFor(videoUri),
		VideoUri:         videoUri,
		RequestId:        resp.RequestID,
		Mode:             string(req.Mode),
		Model:            resp.Model,
		Prompt:           prompt,
		Answer:           resp.Answer(),
		Reasoning:        resp.Reasoning(),
		FrameCount:       resp.FrameCount,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		CreateDate:       time.Now(),
	}
}
