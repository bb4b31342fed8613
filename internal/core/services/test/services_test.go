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

package services_test

import (
	"context"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestAnalysisServiceFQN(t *testing.T) {
	client, err := bigquery.NewClient(context.Background(), "video-project", option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()

	svc := &services.AnalysisService{BigqueryClient: client, DatasetName: "video_ds", AnalysisTable: "analysis"}
	assert.Equal(t, "video-project.video_ds.analysis", svc.GetFQN())
}

func TestFrameServiceSignedURL(t *testing.T) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()

	signature := []byte{0xde, 0xad, 0xbe, 0xef}
	var signed []byte
	svc := &services.FrameService{
		StorageClient: client,
		SignerEmail:   "signer@video-project.iam.gserviceaccount.com",
		Sign: func(_ context.Context, payload []byte) ([]byte, error) {
			signed = payload
			return signature, nil
		},
	}

	raw, err := svc.SignedURL(ctx, "gs://frames-bucket/trailer/frame_000001.jpg", 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.Path, "/frames-bucket/trailer/frame_000001.jpg"), u.Path)
	assert.Equal(t, "GOOG4-RSA-SHA256", u.Query().Get("X-Goog-Algorithm"))
	// The library takes its own clock reading after ours, so the ttl may round down a second.
	ttl, err := strconv.Atoi(u.Query().Get("X-Goog-Expires"))
	require.NoError(t, err)
	assert.InDelta(t, 900, ttl, 1)
	assert.True(t, strings.HasPrefix(u.Query().Get("X-Goog-Credential"), "signer@video-project.iam.gserviceaccount.com/"))
	assert.Equal(t, hex.EncodeToString(signature), u.Query().Get("X-Goog-Signature"))
}

func TestFrameServiceRejectsBadURIs(t *testing.T) {
	svc := &services.FrameService{}
	for _, uri := range []string{"https://example.com/frame.jpg", "gs://", "gs://frames-bucket/"} {
		_, err := svc.SignedURL(context.Background(), uri, time.Minute)
		assert.Error(t, err, uri)
	}
}
