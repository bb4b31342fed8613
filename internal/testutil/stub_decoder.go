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

package test

import (
	"context"
	"math"
	"sync"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// StubDecoder is a deterministic media.Decoder for tests. Every path decodes
// as the same synthetic video unless it is listed in Missing or Unreadable.
// Each frame is a solid color whose red channel is the native frame number
// modulo 256, so tests can tell which frame was decoded.
type StubDecoder struct {
	Duration   float64
	FPS        float64
	Width      int
	Height     int
	Missing    map[string]bool
	Unreadable map[string]bool
	// FailAt makes DecodeAt fail with DecodeError at these timestamps.
	FailAt map[float64]bool

	mu      sync.Mutex
	decoded []float64
}

// NewStubDecoder returns a 20 second, 30 fps, 64x48 video.
func NewStubDecoder() *StubDecoder {
	return &StubDecoder{Duration: 20, FPS: 30, Width: 64, Height: 48}
}

func (d *StubDecoder) Probe(ctx context.Context, path string) (*model.VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Missing[path] {
		return nil, model.NewError(model.KindVideoNotFound, "probe-video", "no video at %s", path)
	}
	if d.Unreadable[path] {
		return nil, model.NewError(model.KindUnreadableVideo, "probe-video", "%s is not a video", path)
	}
	return &model.VideoInfo{Path: path, Duration: d.Duration, NativeFPS: d.FPS, Width: d.Width, Height: d.Height, Codec: "stub"}, nil
}

func (d *StubDecoder) DecodeAt(ctx context.Context, path string, timestamp float64) (*model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.FailAt[timestamp] {
		return nil, model.NewError(model.KindDecodeError, "decode-frames", "corrupt frame at %s", model.FormatTimecode(timestamp))
	}
	d.mu.Lock()
	d.decoded = append(d.decoded, timestamp)
	d.mu.Unlock()

	n := int(math.Round(timestamp * d.FPS))
	pix := make([]byte, d.Width*d.Height*model.RGBChannels)
	for i := 0; i < len(pix); i += model.RGBChannels {
		pix[i] = byte(n % 256)
		pix[i+1] = 128
		pix[i+2] = 64
	}
	return model.NewFrame(0, timestamp, d.Width, d.Height, model.RGBChannels, pix)
}

// Decoded returns the timestamps decoded so far, in call order.
func (d *StubDecoder) Decoded() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float64(nil), d.decoded...)
}

// RecordingSink is a media.FrameSink that keeps what it was given.
type RecordingSink struct {
	Err error

	mu     sync.Mutex
	frames model.FrameSequence
}

func (s *RecordingSink) Persist(ctx context.Context, seq model.FrameSequence) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, seq...)
	names := make([]string, len(seq))
	for i, f := range seq {
		names[i] = model.FormatTimecode(f.Timestamp)
	}
	return names, nil
}

func (s *RecordingSink) Frames() model.FrameSequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
