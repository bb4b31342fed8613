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
	"path"
	"strings"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// FrameDestination builds the per video extractor config for a triggered
// workflow. With an output bucket, frames go below
// gs://<bucket>/<video name without extension>/. The input passes through
// unchanged.
type FrameDestination struct {
	cor.BaseCommand
	defaults     []model.ExtractorOption
	outputBucket string
}

func NewFrameDestination(name string, defaults []model.ExtractorOption, outputBucket string) *FrameDestination {
	return &FrameDestination{BaseCommand: *cor.NewBaseCommand(name), defaults: defaults, outputBucket: outputBucket}
}

func (c *FrameDestination) Execute(context cor.Context) {
	opts := append([]model.ExtractorOption{}, c.defaults...)
	if obj, ok := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject); ok && c.outputBucket != "" {
		stem := strings.TrimSuffix(obj.Name, path.Ext(obj.Name))
		dest := &cloud.GCSObject{Bucket: c.outputBucket, Name: stem}
		opts = append(opts, model.WithOutputPath(dest.URI()))
	}

	cfg, err := model.NewExtractorConfig(opts...)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(ExtractorConfigParam, cfg)
	c.Succeed(context, context.Get(c.GetInputParam()))
}
