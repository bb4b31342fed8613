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

package model

import (
	"fmt"
	"image"
)

// RGBChannels is the channel count of frames produced by the decoder (packed RGB24).
const RGBChannels = 3

// Frame is one decoded image sampled from a video. Pix holds Height rows of
// Width*Channels bytes. A Frame is immutable once produced: nothing in this
// module writes to Pix after construction, and callers must not either.
type Frame struct {
	Index     int     `json:"index"`     // Ordinal position in the returned sequence, starting at 0.
	Timestamp float64 `json:"timestamp"` // Source timestamp in seconds.
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Channels  int     `json:"channels"`
	Pix       []byte  `json:"-"`
}

// NewFrame validates the buffer size against the dimensions. Channels must be
// 1 (gray), 3 (RGB) or 4 (RGBA, alpha ignored).
func NewFrame(index int, timestamp float64, width, height, channels int, pix []byte) (*Frame, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid frame geometry %dx%dx%d", width, height, channels)
	}
	if channels != 1 && channels != RGBChannels && channels != 4 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	if want := width * height * channels; len(pix) != want {
		return nil, fmt.Errorf("frame buffer has %d bytes, want %d", len(pix), want)
	}
	return &Frame{Index: index, Timestamp: timestamp, Width: width, Height: height, Channels: channels, Pix: pix}, nil
}

// WithIndex returns a shallow copy of the frame carrying a new ordinal index.
// The pixel buffer is shared, which is safe because frames are never mutated.
func (f *Frame) WithIndex(index int) *Frame {
	out := *f
	out.Index = index
	return &out
}

// RGBA converts the frame to an *image.RGBA for encoding and resampling.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src := (y*f.Width + x) * f.Channels
			dst := img.PixOffset(x, y)
			switch f.Channels {
			case 1:
				img.Pix[dst], img.Pix[dst+1], img.Pix[dst+2] = f.Pix[src], f.Pix[src], f.Pix[src]
			default:
				img.Pix[dst], img.Pix[dst+1], img.Pix[dst+2] = f.Pix[src], f.Pix[src+1], f.Pix[src+2]
			}
			img.Pix[dst+3] = 0xff
		}
	}
	return img
}

// FrameFromRGBA packs an RGBA image into an RGB24 frame.
func FrameFromRGBA(index int, timestamp float64, img *image.RGBA) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h*RGBChannels)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			dst := (y*w + x) * RGBChannels
			copy(pix[dst:dst+3], img.Pix[src:src+3])
		}
	}
	return &Frame{Index: index, Timestamp: timestamp, Width: w, Height: h, Channels: RGBChannels, Pix: pix}
}

// FrameSequence is an ordered list of frames. Insertion order is temporal order.
type FrameSequence []*Frame

// Timestamps lists the source timestamps in order.
func (s FrameSequence) Timestamps() []float64 {
	out := make([]float64, len(s))
	for i, f := range s {
		out[i] = f.Timestamp
	}
	return out
}
