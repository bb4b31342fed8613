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

// Package main contains the logic for setting up and starting the Pub/Sub
// message listeners that analyze new videos as they land in the input bucket.
package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/workflow"
)

// VideoInputTopic is the topic_subscriptions key of the subscription that
// receives GCS finalize notifications for the input bucket.
const VideoInputTopic = "VideoInputTopic"

// SetupListeners attaches the video analysis workflow to its subscription and
// starts receiving. A missing subscription leaves the server HTTP only.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients) error {
	listener, ok := cloudClients.PubSubListeners[VideoInputTopic]
	if !ok {
		slog.WarnContext(ctx, "no subscription configured, new videos are not analyzed automatically", "topic", VideoInputTopic)
		return nil
	}

	videoAnalysis, err := workflow.NewVideoAnalysisWorkflow(config, cloudClients, state.analyzer, state.decoder)
	if err != nil {
		return err
	}
	listener.SetCommand(videoAnalysis)
	listener.Listen(ctx)
	return nil
}
