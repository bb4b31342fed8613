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

// Package model_test contains unit tests for the data models defined in the
// model package. This file tests the persistent analysis record.
package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"github.com/stretchr/testify/assert"
)

// TestNewAnalysisRecord verifies that the video ID is a UUIDv5 of the video
// URI, that the create date is set, and that the answer and usage are copied
// from the response.
func TestNewAnalysisRecord(t *testing.T) {
	videoUri := "gs://media_input/test-trailer-001.mp4"
	cfg, err := model.NewAnalyzerConfig()
	assert.Nil(t, err)

	req := model.NewAnalysisRequest(model.ModeAsk, model.FrameSequence{}, model.VideoSignature(), cfg)
	req.Prompt = "describe"
	resp := &model.AnalysisResponse{
		RequestID:  req.ID,
		Model:      cfg.ModelName(),
		Fields:     map[string]any{model.FieldAnswer: "a trailer"},
		FrameCount: 5,
		Usage:      model.TokenUsage{PromptTokens: 100, CompletionTokens: 20},
	}

	record := model.NewAnalysisRecord(videoUri, req, resp)

	generatedID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(videoUri))
	assert.Equal(t, generatedID.String(), record.VideoId)
	assert.NotEmpty(t, record.Id)
	assert.WithinDuration(t, time.Now(), record.CreateDate, time.Second)
	assert.Equal(t, "describe", record.Prompt)
	assert.Equal(t, "a trailer", record.Answer)
	assert.Equal(t, 5, record.FrameCount)
	assert.Equal(t, 100, record.PromptTokens)
	assert.Equal(t, 20, record.CompletionTokens)
	assert.Equal(t, "ask", record.Mode)
}

// TestNewAnalysisRecordChatUsesLastTurn checks that chat records store the last user turn as the prompt.
func TestNewAnalysisRecordChatUsesLastTurn(t *testing.T) {
	cfg, _ := model.NewAnalyzerConfig()
	req := model.NewAnalysisRequest(model.ModeChat, model.FrameSequence{}, model.VideoChatSignature(), cfg)
	req.Messages = []model.ChatMessage{
		{Role: model.RoleUser, Content: "what happens?"},
		{Role: model.RoleAssistant, Content: "a car chase"},
		{Role: model.RoleUser, Content: "who drives?"},
	}
	record := model.NewAnalysisRecord("clip.mp4", req, &model.AnalysisResponse{Fields: map[string]any{}})
	assert.Equal(t, "who drives?", record.Prompt)
	assert.Equal(t, model.VideoIdFor("clip.mp4"), record.VideoId)
}
