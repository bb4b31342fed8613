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

// ResolveTimeWindow turns the configured start and end times into a
// model.TimeWindow clamped to the probed duration.
type ResolveTimeWindow struct {
	cor.BaseCommand
}

func NewResolveTimeWindow(name string) *ResolveTimeWindow {
	return &ResolveTimeWindow{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *ResolveTimeWindow) Execute(context cor.Context) {
	info := context.Get(c.GetInputParam()).(*model.VideoInfo)
	cfg := extractorConfig(context)

	window, err := frames.ResolveTimeWindow(info.Duration, cfg.StartTime(), cfg.EndTime())
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(TimeWindowParam, window)
	c.Succeed(context, window)
}
