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
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/media"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// DecodeFrames decodes one frame per input timestamp and outputs the
// resulting model.FrameSequence in timestamp order. Frame indexes are the
// 0-based ordinal within the sequence. Up to workers frames are decoded at
// once; the first failure cancels the rest.
type DecodeFrames struct {
	cor.BaseCommand
	decoder media.Decoder
	workers int
}

func NewDecodeFrames(name string, decoder media.Decoder, workers int) *DecodeFrames {
	if workers < 1 {
		workers = 1
	}
	return &DecodeFrames{BaseCommand: *cor.NewBaseCommand(name), decoder: decoder, workers: workers}
}

func (c *DecodeFrames) Execute(context cor.Context) {
	timestamps := context.Get(c.GetInputParam()).([]float64)
	path := context.Get(VideoPathParam).(string)

	seq := make(model.FrameSequence, len(timestamps))
	group, ctx := errgroup.WithContext(context.GetContext())
	group.SetLimit(c.workers)
	for i, ts := range timestamps {
		group.Go(func() error {
			frame, err := c.decoder.DecodeAt(ctx, path, ts)
			if err != nil {
				return asDecodeError(c.GetName(), ts, err)
			}
			seq[i] = frame.WithIndex(i)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context, seq)
}

// asDecodeError keeps typed errors and cancellation as they are and files
// anything else from a decoder under DecodeError.
func asDecodeError(op string, ts float64, err error) error {
	var typed *model.Error
	if errors.As(err, &typed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return model.WrapError(model.KindDecodeError, op, err, "frame at %s", model.FormatTimecode(ts))
}
