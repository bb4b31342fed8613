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

// Package commands contains the cor.Command steps the workflows are built
// from. The extraction steps share the context keys below; each step reads
// its primary input from CtxIn and leaves its result in CtxOut.
package commands

import (
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

const (
	VideoPathParam       = "__VIDEO_PATH__"
	VideoInfoParam       = "__VIDEO_INFO__"
	TimeWindowParam      = "__TIME_WINDOW__"
	ExtractorConfigParam = "__EXTRACTOR_CONFIG__"
	PersistedFramesParam = "__PERSISTED_FRAMES__"
)

var emptyExtractorConfig, _ = model.NewExtractorConfig()

// extractorConfig returns the config stored in the context, or the empty
// config (native rate, whole video, no resize) when none was provided.
func extractorConfig(context cor.Context) *model.ExtractorConfig {
	if cfg, ok := context.Get(ExtractorConfigParam).(*model.ExtractorConfig); ok && cfg != nil {
		return cfg
	}
	return emptyExtractorConfig
}
