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

// SampleTimestamps computes the timestamps to decode inside the resolved
// window, honouring the target fps and the max_frames cap.
//
// The cap is applied here, before decoding, and keeps the earliest
// timestamps. Resizing never drops frames, so this yields the same frames as
// capping the finished sequence.
type SampleTimestamps struct {
	cor.BaseCommand
}

func NewSampleTimestamps(name string) *SampleTimestamps {
	return &SampleTimestamps{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *SampleTimestamps) Execute(context cor.Context) {
	window := context.Get(c.GetInputParam()).(model.TimeWindow)
	info := context.Get(VideoInfoParam).(*model.VideoInfo)
	cfg := extractorConfig(context)

	timestamps := frames.CapTimestamps(frames.SampleTimestamps(window, info.NativeFPS, cfg.FPS()), cfg.MaxFrames())
	if len(timestamps) == 0 {
		c.Fail(context, model.NewError(model.KindEmptyExtraction, c.GetName(), "no frames to extract in %s", window))
		return
	}
	c.Succeed(context, timestamps)
}
