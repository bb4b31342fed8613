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

package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/frames"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// FrameSink persists a finished frame sequence as JPEG images named
// frame_000001.jpg, frame_000002.jpg, ... and returns where each one went.
type FrameSink interface {
	Persist(ctx context.Context, seq model.FrameSequence) ([]string, error)
}

// DirectorySink writes frames into a local directory, creating it if needed.
type DirectorySink struct {
	Dir     string
	Quality int
}

func NewDirectorySink(dir string) *DirectorySink {
	return &DirectorySink{Dir: dir, Quality: frames.DefaultJPEGQuality}
}

func (s *DirectorySink) Persist(ctx context.Context, seq model.FrameSequence) ([]string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", s.Dir, err)
	}
	paths := make([]string, 0, len(seq))
	for _, frame := range seq {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		b, err := frames.EncodeJPEG(frame, s.Quality)
		if err != nil {
			return paths, err
		}
		p := filepath.Join(s.Dir, frames.FileName(frame))
		if err := os.WriteFile(p, b, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// GCSSink uploads frames below a gs://bucket/prefix destination.
type GCSSink struct {
	client  *storage.Client
	dest    *cloud.GCSObject
	Quality int
}

func NewGCSSink(client *storage.Client, uri string) (*GCSSink, error) {
	dest, err := cloud.ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	return &GCSSink{client: client, dest: dest, Quality: frames.DefaultJPEGQuality}, nil
}

func (s *GCSSink) Persist(ctx context.Context, seq model.FrameSequence) ([]string, error) {
	bucket := s.client.Bucket(s.dest.Bucket)
	uris := make([]string, 0, len(seq))
	for _, frame := range seq {
		b, err := frames.EncodeJPEG(frame, s.Quality)
		if err != nil {
			return uris, err
		}
		target := s.dest.Child(frames.FileName(frame))
		writer := bucket.Object(target.Name).NewWriter(ctx)
		writer.ContentType = frames.JPEGMimeType
		if _, err := writer.Write(b); err != nil {
			_ = writer.Close()
			return uris, fmt.Errorf("failed to upload %s: %w", target.URI(), err)
		}
		// The object only exists once Close returns without error.
		if err := writer.Close(); err != nil {
			return uris, fmt.Errorf("failed to finalize %s: %w", target.URI(), err)
		}
		uris = append(uris, target.URI())
	}
	slog.DebugContext(ctx, "uploaded frames", "destination", s.dest.URI(), "count", len(uris))
	return uris, nil
}

// SinkForPath returns a GCSSink for gs:// destinations and a DirectorySink
// otherwise. A nil client with a gs:// path is an InvalidConfig error.
func SinkForPath(path string, client *storage.Client) (FrameSink, error) {
	if cloud.IsGCSURI(path) {
		if client == nil {
			return nil, model.NewError(model.KindInvalidConfig, "persist-frames", "no storage client for %s", path)
		}
		sink, err := NewGCSSink(client, path)
		if err != nil {
			return nil, model.WrapError(model.KindInvalidConfig, "persist-frames", err, "bad output_path")
		}
		return sink, nil
	}
	return NewDirectorySink(path), nil
}
