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
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/media"
)

// ProbeVideo reads the video path from its input and outputs the
// *model.VideoInfo the decoder reports for it.
type ProbeVideo struct {
	cor.BaseCommand
	decoder media.Decoder
}

func NewProbeVideo(name string, decoder media.Decoder) *ProbeVideo {
	return &ProbeVideo{BaseCommand: *cor.NewBaseCommand(name), decoder: decoder}
}

func (c *ProbeVideo) Execute(context cor.Context) {
	path := context.Get(c.GetInputParam()).(string)
	info, err := c.decoder.Probe(context.GetContext(), path)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(VideoPathParam, path)
	context.Add(VideoInfoParam, info)
	c.Succeed(context, info)
}
