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

// Package media holds the collaborators the extraction pipeline talks to:
// a Decoder that knows how to read a video container, and the FrameSink
// implementations that persist extracted frames.
package media

import (
	"context"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// Decoder reads metadata and individual frames from a video file.
//
// Implementations must be safe for concurrent use; the pipeline shares one
// decoder between requests.
type Decoder interface {
	// Probe returns the duration, native frame rate and frame size of the
	// first video stream. A missing file yields VideoNotFound; anything that
	// cannot be opened as video yields UnreadableVideo.
	Probe(ctx context.Context, path string) (*model.VideoInfo, error)

	// DecodeAt returns the RGB frame presented at timestamp seconds. The
	// returned frame has index 0; the caller assigns the ordinal.
	DecodeAt(ctx context.Context, path string, timestamp float64) (*model.Frame, error)
}
