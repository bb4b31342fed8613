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

package frames

import (
	"math"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// epsilon absorbs float noise when a product such as end*fps lands on an integer.
const epsilon = 1e-9

// SampleTimestamps computes the ordered timestamps to decode from a window.
//
// When targetFPS is nil or at least nativeFPS, one timestamp per native frame
// k/nativeFPS with start <= t < end is returned; frames are never invented.
// Otherwise floor((end-start)*targetFPS) timestamps start + i/targetFPS are
// returned, so a trailing partial step is dropped. Each timestamp is computed
// from its integer index rather than by accumulation, which keeps the output
// identical across runs and platforms.
func SampleTimestamps(window model.TimeWindow, nativeFPS float64, targetFPS *float64) []float64 {
	if nativeFPS <= 0 || window.End <= window.Start {
		return []float64{}
	}
	if targetFPS == nil || *targetFPS >= nativeFPS {
		first := int64(math.Ceil(window.Start*nativeFPS - epsilon))
		last := int64(math.Ceil(window.End*nativeFPS-epsilon)) - 1
		if last < first {
			return []float64{}
		}
		out := make([]float64, 0, last-first+1)
		for k := first; k <= last; k++ {
			out = append(out, float64(k)/nativeFPS)
		}
		return out
	}

	target := *targetFPS
	count := int64(math.Floor(window.Length()*target + epsilon))
	out := make([]float64, 0, count)
	for i := int64(0); i < count; i++ {
		out = append(out, window.Start+float64(i)/target)
	}
	return out
}

// CapTimestamps keeps the first maxFrames timestamps. A nil cap keeps everything.
func CapTimestamps(timestamps []float64, maxFrames *int) []float64 {
	if maxFrames == nil || len(timestamps) <= *maxFrames {
		return timestamps
	}
	return timestamps[:*maxFrames]
}
