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

package model_test

import (
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorConfigRejectsDimsAndScale(t *testing.T) {
	cfg, err := model.NewExtractorConfig(model.WithResizeDims(100, 100), model.WithResizeScale(0.5))
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))
	assert.Equal(t, model.KindInvalidConfig, model.KindOf(err))
}

func TestExtractorConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []model.ExtractorOption
		kind model.ErrorKind
	}{
		{"scale zero", []model.ExtractorOption{model.WithResizeScale(0)}, model.KindInvalidConfig},
		{"scale above one", []model.ExtractorOption{model.WithResizeScale(1.5)}, model.KindInvalidConfig},
		{"zero dims", []model.ExtractorOption{model.WithResizeDims(0, 10)}, model.KindInvalidConfig},
		{"negative fps", []model.ExtractorOption{model.WithFPS(-1)}, model.KindInvalidConfig},
		{"zero max frames", []model.ExtractorOption{model.WithMaxFrames(0)}, model.KindInvalidConfig},
		{"bad start", []model.ExtractorOption{model.WithStartTime("5s")}, model.KindInvalidTimeFormat},
		{"bad end", []model.ExtractorOption{model.WithEndTime("00:61:00")}, model.KindInvalidTimeFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.NewExtractorConfig(tt.opts...)
			require.Error(t, err)
			assert.Equal(t, tt.kind, model.KindOf(err))
		})
	}
}

func TestExtractorConfigAccessors(t *testing.T) {
	cfg, err := model.NewExtractorConfig(
		model.WithFPS(2),
		model.WithResizeScale(0.25),
		model.WithStartTime("00:00:01.500"),
		model.WithMaxFrames(3),
		model.WithOutputPath("/tmp/frames"),
	)
	require.NoError(t, err)
	assert.Equal(t, 2.0, *cfg.FPS())
	assert.Equal(t, 0.25, *cfg.ResizeScale())
	assert.Nil(t, cfg.ResizeDims())
	assert.Equal(t, "00:00:01.500", *cfg.StartTime())
	assert.Nil(t, cfg.EndTime())
	assert.Equal(t, 3, *cfg.MaxFrames())
	assert.Equal(t, "/tmp/frames", cfg.OutputPath())
	assert.True(t, cfg.ResizeRequested())

	// Accessors hand out copies.
	*cfg.FPS() = 100
	assert.Equal(t, 2.0, *cfg.FPS())
}

func TestEmptyExtractorConfigIsValid(t *testing.T) {
	cfg, err := model.NewExtractorConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.FPS())
	assert.False(t, cfg.ResizeRequested())
}

func TestAnalyzerConfigDefaults(t *testing.T) {
	cfg, err := model.NewAnalyzerConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai/o4-mini", cfg.ModelName())
	assert.Equal(t, "openai", cfg.Provider())
	assert.Equal(t, "o4-mini", cfg.Model())
	assert.Equal(t, 1.0, cfg.Temperature())
	assert.Equal(t, 20000, cfg.MaxTokens())
	assert.Equal(t, "", cfg.APIKey())
}

func TestAnalyzerConfigValidation(t *testing.T) {
	_, err := model.NewAnalyzerConfig(model.WithTemperature(-0.1))
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))

	_, err = model.NewAnalyzerConfig(model.WithMaxTokens(0))
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))

	_, err = model.NewAnalyzerConfig(model.WithModelName("  "))
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))

	cfg, err := model.NewAnalyzerConfig(model.WithModelName("gemini-2.0-flash"), model.WithAPIKey("k"))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Provider())
	assert.Equal(t, "gemini-2.0-flash", cfg.Model())
	assert.Equal(t, "k", cfg.APIKey())
}
