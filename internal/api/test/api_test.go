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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/api"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/analyzer"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-video-analyzer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type recordingInserter struct {
	mu   sync.Mutex
	rows []*model.AnalysisRecord
}

func (r *recordingInserter) Put(_ context.Context, src interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, src.(*model.AnalysisRecord))
	return nil
}

// localFetcher "downloads" every object to its own name.
type localFetcher struct {
	cor.BaseCommand
	err error
}

func (f *localFetcher) Execute(context cor.Context) {
	obj := context.Get(f.GetInputParam()).(*cloud.GCSObject)
	if f.err != nil {
		f.Fail(context, f.err)
		return
	}
	f.Succeed(context, obj.Name)
}

type fixture struct {
	server   *api.Server
	decoder  *test.StubDecoder
	lm       *test.EchoModel
	recorder *recordingInserter
	router   *gin.Engine
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	config := cloud.NewConfig()
	config.Application.Name = "video-analyzer-test"
	config.Extraction = cloud.Extraction{FPS: 1, MaxFrames: 4, ResizeScale: 0.5}
	config.Analysis.Model = "openai/gpt-4o"
	config.PromptTemplates.DefaultSystemPrompt = "Describe the video"
	config.Server.LocalRoot = "."

	f := &fixture{
		decoder:  test.NewStubDecoder(),
		lm:       &test.EchoModel{},
		recorder: &recordingInserter{},
	}
	f.server = &api.Server{
		Config:   config,
		Pipeline: workflow.NewExtractionPipeline(f.decoder),
		Analyzer: analyzer.NewVideoAnalyzer(f.lm),
		Recorder: f.recorder,
	}
	f.router = gin.New()
	f.server.Routes(f.router.Group("/api/v1"))
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestExtractAppliesDefaultsAndOverrides(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/extract", gin.H{"video": "trailer.mp4"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, int64(4), gjson.Get(body, "frames.#").Int(), "max_frames default")
	assert.Equal(t, int64(32), gjson.Get(body, "frames.0.width").Int(), "resize_scale default")
	assert.Equal(t, "00:00:03.000", gjson.Get(body, "frames.3.timecode").String())
	assert.Equal(t, 20.0, gjson.Get(body, "video.duration").Float())

	w = f.do(http.MethodPost, "/api/v1/extract", gin.H{
		"video":       "trailer.mp4",
		"fps":         2,
		"start_time":  "00:00:10",
		"resize_dims": gin.H{"width": 16, "height": 8},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = w.Body.String()
	assert.Equal(t, []any{10.0, 10.5, 11.0, 11.5}, gjson.Get(body, "frames.#.timestamp").Value())
	assert.Equal(t, int64(16), gjson.Get(body, "frames.0.width").Int(), "request resize replaces the default scale")
	assert.Equal(t, 10.0, gjson.Get(body, "window.start").Float())
}

func TestAskUsesDefaultPromptAndRecords(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/ask", gin.H{"video": "trailer.mp4"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, "4 frames: system_prompt: Describe the video", gjson.Get(body, "answer").String())
	assert.Equal(t, "openai/gpt-4o", gjson.Get(body, "model").String())
	assert.Equal(t, int64(400), gjson.Get(body, "usage.prompt_tokens").Int())
	assert.False(t, gjson.Get(body, "reasoning").Exists())

	require.Len(t, f.recorder.rows, 1)
	rec := f.recorder.rows[0]
	assert.Equal(t, "trailer.mp4", rec.VideoUri)
	assert.Equal(t, "Describe the video", rec.Prompt)
	assert.Equal(t, "ask", rec.Mode)
	assert.Equal(t, 4, rec.FrameCount)
}

func TestAskWithModuleAndModel(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/ask", gin.H{
		"video":       "trailer.mp4",
		"prompt":      "who is on screen?",
		"max_frames":  2,
		"module":      "chain_of_thought",
		"model":       "gemini/gemini-2.0-flash",
		"temperature": 0.2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, "2 frames: system_prompt: who is on screen?", gjson.Get(body, "answer").String())
	assert.NotEmpty(t, gjson.Get(body, "reasoning").String())
	assert.Equal(t, "gemini/gemini-2.0-flash", gjson.Get(body, "model").String())

	prompt := f.lm.LastPrompt()
	require.NotNil(t, prompt)
	assert.Equal(t, model.FieldReasoning, prompt.Outputs[0].Name)
}

func TestChat(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/chat", gin.H{
		"video": "trailer.mp4",
		"messages": []gin.H{
			{"role": "user", "content": "what happens?"},
			{"role": "assistant", "content": "a chase"},
			{"role": "user", "content": "who wins?"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "4 frames: who wins?", gjson.Get(w.Body.String(), "answer").String())
	require.Len(t, f.recorder.rows, 1)
	assert.Equal(t, "who wins?", f.recorder.rows[0].Prompt)
	assert.Equal(t, "chat", f.recorder.rows[0].Mode)
}

func TestChatRejectsMalformedHistoryBeforeDecoding(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/chat", gin.H{
		"video":    "trailer.mp4",
		"messages": []gin.H{{"role": "assistant", "content": "hello"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(model.KindMalformedChatHistory), gjson.Get(w.Body.String(), "kind").String())
	assert.Empty(t, f.decoder.Decoded())
	assert.Zero(t, f.lm.Calls())
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		path  string
		body  gin.H
		want  int
		kind  model.ErrorKind
	}{
		{"missing video", func(f *fixture) { f.decoder.Missing = map[string]bool{"gone.mp4": true} },
			"/api/v1/extract", gin.H{"video": "gone.mp4"}, http.StatusNotFound, model.KindVideoNotFound},
		{"not a video", func(f *fixture) { f.decoder.Unreadable = map[string]bool{"notes.txt": true} },
			"/api/v1/extract", gin.H{"video": "notes.txt"}, http.StatusUnprocessableEntity, model.KindUnreadableVideo},
		{"bad timecode", nil,
			"/api/v1/extract", gin.H{"video": "trailer.mp4", "start_time": "five"}, http.StatusBadRequest, model.KindInvalidTimeFormat},
		{"inverted window", nil,
			"/api/v1/extract", gin.H{"video": "trailer.mp4", "start_time": "00:00:09", "end_time": "00:00:03"}, http.StatusBadRequest, model.KindInvalidTimeRange},
		{"missing video field", nil,
			"/api/v1/extract", gin.H{"fps": 1}, http.StatusBadRequest, model.KindInvalidConfig},
		{"unknown module", nil,
			"/api/v1/ask", gin.H{"video": "trailer.mp4", "module": "react"}, http.StatusBadRequest, model.KindInvalidConfig},
		{"model failure", func(f *fixture) { f.lm.Err = errors.New("quota exhausted") },
			"/api/v1/ask", gin.H{"video": "trailer.mp4"}, http.StatusBadGateway, model.KindModelCall},
		{"gcs without fetcher", nil,
			"/api/v1/extract", gin.H{"video": "gs://videos/trailer.mp4"}, http.StatusBadRequest, model.KindInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			w := f.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Equal(t, string(tt.kind), gjson.Get(w.Body.String(), "kind").String())
			assert.Empty(t, f.recorder.rows)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, api.StatusFor(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, api.StatusFor(model.NewError(model.KindDecodeError, "decode", "bad")))
	assert.Equal(t, http.StatusGatewayTimeout, api.StatusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusUnprocessableEntity, api.StatusFor(model.NewError(model.KindEmptyExtraction, "sample", "none")))
}

func TestAskFetchesGCSVideos(t *testing.T) {
	f := newFixture()
	f.server.Fetcher = &localFetcher{BaseCommand: *cor.NewBaseCommand("local-fetcher")}

	w := f.do(http.MethodPost, "/api/v1/ask", gin.H{"video": "gs://videos/trailers/trailer.mp4", "prompt": "what happens?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, f.recorder.rows, 1)
	assert.Equal(t, "gs://videos/trailers/trailer.mp4", f.recorder.rows[0].VideoUri, "records keep the original uri")

	f.server.Fetcher = &localFetcher{BaseCommand: *cor.NewBaseCommand("local-fetcher"), err: errors.New("network down")}
	w = f.do(http.MethodPost, "/api/v1/extract", gin.H{"video": "gs://videos/trailer.mp4"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type fakeLister struct{ video string }

func (l *fakeLister) ListByVideo(_ context.Context, videoUri string, limit int) ([]*model.AnalysisRecord, error) {
	l.video = videoUri
	return []*model.AnalysisRecord{{Id: "a1", VideoUri: videoUri, Answer: "a chase"}}, nil
}

type fakeSigner struct{}

func (fakeSigner) List(_ context.Context, prefix string) ([]string, error) {
	return []string{prefix + "/frame_000001.jpg", prefix + "/frame_000002.jpg"}, nil
}

func (fakeSigner) SignedURL(_ context.Context, uri string, expires time.Duration) (string, error) {
	if uri == "gs://frames/" {
		return "", errors.New("gs://frames/ names a bucket, not an object")
	}
	return "https://signed.example/" + uri[len("gs://"):] + "?ttl=" + expires.String(), nil
}

func TestHistoryAndFrameURLs(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/api/v1/analyses?video=gs://videos/trailer.mp4", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	lister := &fakeLister{}
	f.server.Analyses = lister
	f.server.Frames = fakeSigner{}

	w = f.do(http.MethodGet, "/api/v1/analyses?video=gs://videos/trailer.mp4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a chase", gjson.Get(w.Body.String(), "0.answer").String())
	assert.Equal(t, "gs://videos/trailer.mp4", lister.video)

	w = f.do(http.MethodGet, "/api/v1/analyses", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/v1/frames/url?uri=gs://frames/trailer/frame_000001.jpg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://signed.example/frames/trailer/frame_000001.jpg?ttl=15m0s", gjson.Get(w.Body.String(), "url").String())

	w = f.do(http.MethodGet, "/api/v1/frames?prefix=gs://frames/trailer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gs://frames/trailer/frame_000002.jpg", gjson.Get(w.Body.String(), "frames.1").String())
	w = f.do(http.MethodGet, "/api/v1/frames?prefix=frames", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/v1/frames/url?uri=/tmp/frame_000001.jpg", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodGet, "/api/v1/frames/url?uri=gs://frames/", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
}

func (m *memoryStore) Put(_ context.Context, name string, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[name] = b
	m.types[name] = contentType
	return "gs://videos/" + name, nil
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploads(t *testing.T) {
	f := newFixture()
	store := &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
	f.server.Uploads = store

	mp4 := append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}, make([]byte, 64)...)
	body, contentType := multipartBody(t, map[string][]byte{"trailer.mp4": mp4})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "gs://videos/trailer.mp4", gjson.Get(w.Body.String(), "0.uri").String())
	assert.Equal(t, mp4, store.objects["trailer.mp4"], "the sniffed bytes are uploaded too")
	assert.Equal(t, "video/mp4", store.types["trailer.mp4"])

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	body, contentType = multipartBody(t, map[string][]byte{"poster.mp4": pngBuf.Bytes()})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, gjson.Get(w.Body.String(), "0.error").String(), "not a video")
	assert.NotContains(t, store.objects, "poster.mp4")
}

func TestStats(t *testing.T) {
	f := newFixture()
	f.server.Config.TopicSubscriptions["VideoInputTopic"] = cloud.TopicSubscription{Name: "video-input-sub"}

	w := f.do(http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "openai/gpt-4o", gjson.Get(body, "model").String())
	assert.Equal(t, "predict", gjson.Get(body, "module").String())
	assert.Equal(t, int64(4), gjson.Get(body, "extraction.max_frames").Int())
	assert.Equal(t, "VideoInputTopic", gjson.Get(body, "listeners.0").String())
	assert.True(t, gjson.Get(body, "features.recording").Bool())
	assert.False(t, gjson.Get(body, "features.uploads").Bool())
}

func TestLocalPathsStayUnderRoot(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "secret.mp4")
	require.NoError(t, os.WriteFile(outside, []byte("not yours"), 0o600))

	root := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link.mp4")))

	f := newFixture()
	f.server.Config.Server.LocalRoot = root

	tests := []struct {
		name string
		body gin.H
	}{
		{"parent directory", gin.H{"video": "../secret.mp4"}},
		{"absolute path", gin.H{"video": outside}},
		{"symlink out of root", gin.H{"video": "link.mp4"}},
		{"output outside root", gin.H{"video": "trailer.mp4", "output_path": filepath.Join(filepath.Dir(outside), "frames")}},
		{"output climbing out", gin.H{"video": "trailer.mp4", "output_path": "../../frames"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/v1/extract", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, string(model.KindInvalidConfig), gjson.Get(w.Body.String(), "kind").String())
		})
	}
	assert.NoDirExists(t, filepath.Join(filepath.Dir(outside), "frames"))

	w := f.do(http.MethodPost, "/api/v1/extract", gin.H{"video": "trailer.mp4", "output_path": "frames", "max_frames": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.FileExists(t, filepath.Join(root, "frames", "frame_000001.jpg"))
	assert.FileExists(t, filepath.Join(root, "frames", "frame_000002.jpg"))
}

func TestLocalPathsDisabledWithoutRoot(t *testing.T) {
	f := newFixture()
	f.server.Config.Server.LocalRoot = ""
	f.server.Fetcher = &localFetcher{BaseCommand: *cor.NewBaseCommand("local-fetcher")}

	w := f.do(http.MethodPost, "/api/v1/ask", gin.H{"video": "trailer.mp4"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(model.KindInvalidConfig), gjson.Get(w.Body.String(), "kind").String())

	w = f.do(http.MethodPost, "/api/v1/ask", gin.H{"video": "gs://videos/trailer.mp4"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
