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
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/media"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// PersistFrames writes the final sequence to the configured output path and
// passes the sequence on unchanged. The locations written are stored under
// PersistedFramesParam. Nothing is written when no output path is set.
type PersistFrames struct {
	cor.BaseCommand
	sink    media.FrameSink
	storage *storage.Client
}

// NewPersistFrames creates the step. A non-nil sink is used for every
// output path; otherwise one is picked per path with media.SinkForPath.
func NewPersistFrames(name string, sink media.FrameSink, storage *storage.Client) *PersistFrames {
	return &PersistFrames{BaseCommand: *cor.NewBaseCommand(name), sink: sink, storage: storage}
}

func (c *PersistFrames) Execute(context cor.Context) {
	seq := context.Get(c.GetInputParam()).(model.FrameSequence)
	out := extractorConfig(context).OutputPath()
	if out == "" {
		c.Succeed(context, seq)
		return
	}

	sink := c.sink
	if sink == nil {
		var err error
		if sink, err = media.SinkForPath(out, c.storage); err != nil {
			c.Fail(context, err)
			return
		}
	}
	written, err := sink.Persist(context.GetContext(), seq)
	if err != nil {
		c.Fail(context, model.WrapError(model.KindPersistFrames, c.GetName(), err, "wrote %d of %d frames to %s", len(written), len(seq), out))
		return
	}
	slog.InfoContext(context.GetContext(), "persisted frames", "output_path", out, "count", len(written))
	context.Add(PersistedFramesParam, written)
	c.Succeed(context, seq)
}
