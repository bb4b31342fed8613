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
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// Encoding constants shared by the frame sinks and the model backends.
const (
	JPEGMimeType       = "image/jpeg"
	DefaultJPEGQuality = 90
)

// EncodeJPEG encodes a frame as a JPEG image.
func EncodeJPEG(frame *model.Frame, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.RGBA(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame %d as jpeg: %w", frame.Index, err)
	}
	return buf.Bytes(), nil
}

// DataURI encodes a frame as a base64 "data:image/jpeg" URI.
func DataURI(frame *model.Frame) (string, error) {
	b, err := EncodeJPEG(frame, DefaultJPEGQuality)
	if err != nil {
		return "", err
	}
	return "data:" + JPEGMimeType + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// FileName is the persisted name of a frame: a zero padded, one based ordinal.
func FileName(frame *model.Frame) string {
	return fmt.Sprintf("frame_%06d.jpg", frame.Index+1)
}
