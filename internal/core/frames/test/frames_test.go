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

// Package frames_test contains unit tests for the pure extraction steps:
// time window resolution, timestamp sampling, resizing and encoding.
package frames_test

import (
	"bytes"
	"errors"
	"image/jpeg"
	"math"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/frames"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestResolveKeepsValidWindow(t *testing.T) {
	for _, tt := range []struct {
		start, end string
		s, e       float64
	}{
		{"00:00:05.000", "00:00:10.000", 5, 10},
		{"00:00:00", "00:00:20", 0, 20},
		{"00:00:01.250", "00:00:01.500", 1.25, 1.5},
	} {
		w, err := frames.ResolveTimeWindow(20, ptr(tt.start), ptr(tt.end))
		require.NoError(t, err)
		assert.Equal(t, tt.s, w.Start)
		assert.Equal(t, tt.e, w.End)
	}
}

func TestResolveDefaultsAndClamping(t *testing.T) {
	w, err := frames.ResolveTimeWindow(12.5, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.TimeWindow{Start: 0, End: 12.5}, w)

	w, err = frames.ResolveTimeWindow(12.5, ptr("00:00:10.000"), ptr("00:05:00"))
	require.NoError(t, err)
	assert.Equal(t, 12.5, w.End)
}

func TestResolveRejectsEmptyWindows(t *testing.T) {
	cases := map[string][2]*string{
		"out of order":  {ptr("00:00:08"), ptr("00:00:04")},
		"zero length":   {ptr("00:00:04"), ptr("00:00:04")},
		"past the end":  {ptr("00:01:00"), nil},
		"end at origin": {nil, ptr("00:00:00")},
	}
	for name, c := range cases {
		_, err := frames.ResolveTimeWindow(20, c[0], c[1])
		assert.True(t, errors.Is(err, model.ErrInvalidTimeRange), name)
	}
}

func TestResolveRejectsMalformedTime(t *testing.T) {
	_, err := frames.ResolveTimeWindow(20, ptr("five"), nil)
	assert.True(t, errors.Is(err, model.ErrInvalidTimeFormat))
}

func TestSampleNativeRate(t *testing.T) {
	window := model.TimeWindow{Start: 5, End: 10}
	for _, target := range []*float64{nil, ptr(30.0), ptr(60.0)} {
		ts := frames.SampleTimestamps(window, 30, target)
		require.Len(t, ts, 150)
		assert.InDelta(t, 5.0, ts[0], 1e-9)
		assert.InDelta(t, 10.0-1.0/30, ts[len(ts)-1], 1e-9)
		for i := 1; i < len(ts); i++ {
			assert.Less(t, ts[i-1], ts[i])
		}
	}
}

func TestSampleNativeRateUnalignedWindow(t *testing.T) {
	ts := frames.SampleTimestamps(model.TimeWindow{Start: 0.01, End: 0.2}, 10, nil)
	assert.Equal(t, []float64{0.1}, ts)
}

func TestSampleHalfRateCount(t *testing.T) {
	for _, w := range []model.TimeWindow{{Start: 0, End: 20}, {Start: 5, End: 10}, {Start: 1.25, End: 7.75}, {Start: 0, End: 0.05}} {
		native := 30.0
		target := native / 2
		ts := frames.SampleTimestamps(w, native, &target)
		assert.Equal(t, int(math.Floor(w.Length()*target)), len(ts), w.String())
		for _, v := range ts {
			assert.GreaterOrEqual(t, v, w.Start)
			assert.Less(t, v, w.End)
		}
	}
}

func TestSampleOneFPS(t *testing.T) {
	ts := frames.SampleTimestamps(model.TimeWindow{Start: 5, End: 10}, 30, ptr(1.0))
	assert.Equal(t, []float64{5, 6, 7, 8, 9}, ts)
}

func TestSampleIsDeterministic(t *testing.T) {
	w := model.TimeWindow{Start: 0.333, End: 17.77}
	assert.Equal(t, frames.SampleTimestamps(w, 29.97, ptr(2.5)), frames.SampleTimestamps(w, 29.97, ptr(2.5)))
	assert.Equal(t, frames.SampleTimestamps(w, 29.97, nil), frames.SampleTimestamps(w, 29.97, nil))
}

func TestCapTimestampsKeepsEarliest(t *testing.T) {
	ts := []float64{1, 2, 3, 4}
	assert.Equal(t, []float64{1, 2}, frames.CapTimestamps(ts, ptr(2)))
	assert.Equal(t, ts, frames.CapTimestamps(ts, ptr(10)))
	assert.Equal(t, ts, frames.CapTimestamps(ts, nil))
}

func solidFrame(w, h int) *model.Frame {
	pix := bytes.Repeat([]byte{200, 100, 50}, w*h)
	f, _ := model.NewFrame(3, 2.0, w, h, model.RGBChannels, pix)
	return f
}

func TestTransformScale(t *testing.T) {
	out, err := frames.Transform(solidFrame(640, 480), nil, ptr(0.5))
	require.NoError(t, err)
	assert.Equal(t, 320, out.Width)
	assert.Equal(t, 240, out.Height)
	assert.Equal(t, 320*240*3, len(out.Pix))
	assert.Equal(t, 3, out.Index)
	assert.Equal(t, 2.0, out.Timestamp)
}

func TestTransformScaleNeverBelowOnePixel(t *testing.T) {
	w, h, err := frames.TargetSize(10, 3, nil, ptr(0.01))
	require.NoError(t, err)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)

	w, h, _ = frames.TargetSize(101, 51, nil, ptr(0.5))
	assert.Equal(t, 51, w) // 50.5 rounds half away from zero
	assert.Equal(t, 26, h)
}

func TestTransformDims(t *testing.T) {
	src := solidFrame(64, 48)
	out, err := frames.Transform(src, &model.Dims{Width: 10, Height: 30}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Width)
	assert.Equal(t, 30, out.Height)
	assert.Equal(t, 64, src.Width, "input frame is untouched")
	// A solid color stays solid after resampling.
	for i, want := range []byte{200, 100, 50} {
		assert.InDelta(t, int(want), int(out.Pix[i]), 1)
	}
}

func TestTransformWithoutResize(t *testing.T) {
	src := solidFrame(8, 8)
	out, err := frames.Transform(src, nil, nil)
	require.NoError(t, err)
	assert.Same(t, src, out)
}

func TestTransformRejectsBothOptions(t *testing.T) {
	_, err := frames.Transform(solidFrame(8, 8), &model.Dims{Width: 4, Height: 4}, ptr(0.5))
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))
}

func TestEncodeJPEGAndDataURI(t *testing.T) {
	src := solidFrame(16, 8)
	b, err := frames.EncodeJPEG(src, frames.DefaultJPEGQuality)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	uri, err := frames.DataURI(src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "frame_000001.jpg", frames.FileName(&model.Frame{Index: 0}))
	assert.Equal(t, "frame_000124.jpg", frames.FileName(&model.Frame{Index: 123}))
}
