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

package commands

import (
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/frames"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// ResizeFrames applies the configured resize to every frame. Without a
// resize option the sequence passes through untouched.
type ResizeFrames struct {
	cor.BaseCommand
}

func NewResizeFrames(name string) *ResizeFrames {
	return &ResizeFrames{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *ResizeFrames) Execute(context cor.Context) {
	seq := context.Get(c.GetInputParam()).(model.FrameSequence)
	cfg := extractorConfig(context)
	if !cfg.ResizeRequested() {
		c.Succeed(context, seq)
		return
	}

	dims, scale := cfg.ResizeDims(), cfg.ResizeScale()
	out := make(model.FrameSequence, 0, len(seq))
	for _, frame := range seq {
		if err := context.GetContext().Err(); err != nil {
			c.Fail(context, err)
			return
		}
		resized, err := frames.Transform(frame, dims, scale)
		if err != nil {
			c.Fail(context, err)
			return
		}
		out = append(out, resized)
	}
	c.Succeed(context, out)
}
