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
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// TargetSize computes the output size of a resize. With a scale factor both
// sides are multiplied and rounded to the nearest integer, never below one
// pixel. With dims the size is exactly dims.
func TargetSize(width, height int, dims *model.Dims, scale *float64) (int, int, error) {
	const op = "transform-frame"
	switch {
	case dims != nil && scale != nil:
		return 0, 0, model.NewError(model.KindInvalidConfig, op, "resize_dims and resize_scale are mutually exclusive")
	case dims != nil:
		if dims.Width < 1 || dims.Height < 1 {
			return 0, 0, model.NewError(model.KindInvalidConfig, op, "resize_dims must be at least 1x1")
		}
		return dims.Width, dims.Height, nil
	case scale != nil:
		if *scale <= 0 || *scale > 1 {
			return 0, 0, model.NewError(model.KindInvalidConfig, op, "resize_scale must be in (0, 1]")
		}
		w := int(math.Max(1, math.Round(float64(width) * *scale)))
		h := int(math.Max(1, math.Round(float64(height) * *scale)))
		return w, h, nil
	}
	return width, height, nil
}

// Transform resizes a frame. At most one of dims and scale may be set; when
// neither is, the input frame is returned as is. The input is never modified.
func Transform(frame *model.Frame, dims *model.Dims, scale *float64) (*model.Frame, error) {
	w, h, err := TargetSize(frame.Width, frame.Height, dims, scale)
	if err != nil {
		return nil, err
	}
	if w == frame.Width && h == frame.Height {
		return frame, nil
	}
	src := frame.RGBA()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return model.FrameFromRGBA(frame.Index, frame.Timestamp, dst), nil
}
