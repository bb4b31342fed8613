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

// Package test provides fakes and fixtures shared by the package tests:
// a deterministic decoder, a recording frame sink, an echoing language
// model, and the test configuration.
package test

import (
	"log"
	"os"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
)

var (
	configOnce sync.Once
	config     *cloud.Config
)

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestVideoMessageText simulates the Pub/Sub notification Cloud Storage
// sends when a video is finalized in the input bucket.
func GetTestVideoMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "video_analyzer_input/test-trailer-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/video_analyzer_input/o/test-trailer-001.mp4",
  "name": "test-trailer-001.mp4",
  "bucket": "video_analyzer_input",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/video_analyzer_input/o/test-trailer-001.mp4?generation=1728615848664286&alt=media",
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`
}

// SetupOS points the configuration loader at the repository's configs
// directory and the "test" runtime.
func SetupOS(dir string) error {
	if err := os.Setenv(cloud.EnvConfigFilePrefix, dir); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads the test configuration once per test binary. dir is the
// configs directory relative to the calling package.
func GetConfig(dir string) *cloud.Config {
	configOnce.Do(func() {
		if err := SetupOS(dir); err != nil {
			log.Fatalf("failed to setup environment for test: %v", err)
		}
		c, err := cloud.LoadApplicationConfig()
		if err != nil {
			log.Fatalf("failed to load test configuration: %v", err)
		}
		config = c
	})
	return config
}
