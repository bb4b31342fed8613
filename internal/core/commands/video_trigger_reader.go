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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// VideoTriggerToGCSObject parses the Cloud Storage notification on its input
// into a *cloud.GCSObject. The object is also stored under
// cloud.GetGCSObjectName() so later steps can find the source video.
type VideoTriggerToGCSObject struct {
	cor.BaseCommand
}

func NewVideoTriggerToGCSObject(name string) *VideoTriggerToGCSObject {
	return &VideoTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *VideoTriggerToGCSObject) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}
	if out.Bucket == "" || out.Name == "" {
		c.Fail(context, fmt.Errorf("GCS notification without bucket or object name"))
		return
	}
	if out.ContentType != "" && !strings.HasPrefix(out.ContentType, "video/") {
		c.Fail(context, model.NewError(model.KindUnreadableVideo, c.GetName(), "gs://%s/%s has content type %s", out.Bucket, out.Name, out.ContentType))
		return
	}

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	context.Add(cloud.GetGCSObjectName(), msg)
	c.Succeed(context, msg)
}
