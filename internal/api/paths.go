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

package api

import (
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// confine checks the local paths of a request against [server] local_root.
// gs:// URIs pass through. Relative paths are resolved against the root.
func (s *Server) confine(fields ExtractionFields) (ExtractionFields, error) {
	video, err := s.localPath("resolve-video", fields.Video)
	if err != nil {
		return fields, err
	}
	fields.Video = video
	if fields.OutputPath != "" {
		out, err := s.localPath("resolve-output-path", fields.OutputPath)
		if err != nil {
			return fields, err
		}
		fields.OutputPath = out
	}
	return fields, nil
}

func (s *Server) localPath(op, p string) (string, error) {
	if cloud.IsGCSURI(p) {
		return p, nil
	}
	root := s.Config.Server.LocalRoot
	if root == "" {
		return "", model.NewError(model.KindInvalidConfig, op, "local paths are disabled, use a gs:// uri instead of %q", p)
	}
	candidate := p
	if !filepath.IsAbs(p) {
		candidate = filepath.Join(root, p)
	}
	if !within(root, candidate) {
		return "", model.NewError(model.KindInvalidConfig, op, "%q is outside %s", p, root)
	}
	// Links may still point out of the root once they exist.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		realRoot, err := filepath.EvalSymlinks(root)
		if err != nil || !within(realRoot, resolved) {
			return "", model.NewError(model.KindInvalidConfig, op, "%q resolves outside %s", p, root)
		}
	}
	return candidate, nil
}

func within(root, p string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
