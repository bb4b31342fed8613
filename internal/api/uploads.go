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

package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// DefaultMaxUploadBytes applies when server.max_upload_bytes is unset.
const DefaultMaxUploadBytes = 512 << 20

// GCSVideoStore writes uploads to a bucket. Finalizing an object there is
// what triggers the Pub/Sub analysis workflow.
type GCSVideoStore struct {
	Client *storage.Client
	Bucket string
}

func (g *GCSVideoStore) Put(ctx context.Context, name string, contentType string, r io.Reader) (string, error) {
	obj := &cloud.GCSObject{Bucket: g.Bucket, Name: name}
	wc := g.Client.Bucket(g.Bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("write %s: %w", obj.URI(), err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", obj.URI(), err)
	}
	return obj.URI(), nil
}

type uploadResult struct {
	Name        string `json:"name"`
	URI         string `json:"uri,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

// FileUpload sets up POST /uploads. Every file in the multipart "files"
// field is sniffed and only video content is stored.
func FileUpload(r *gin.RouterGroup, s *Server) {
	upload := r.Group("/uploads")
	{
		upload.POST("", func(c *gin.Context) {
			if s.Uploads == nil {
				unavailable(c, "uploads")
				return
			}
			limit := s.Config.Server.MaxUploadBytes
			if limit <= 0 {
				limit = DefaultMaxUploadBytes
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

			form, err := c.MultipartForm()
			if err != nil {
				abortWithError(c, model.WrapError(model.KindInvalidConfig, "upload", err, "bad multipart form"))
				return
			}
			files := form.File["files"]
			if len(files) == 0 {
				abortWithError(c, model.NewError(model.KindInvalidConfig, "upload", "no files in the files field"))
				return
			}

			results := make([]uploadResult, 0, len(files))
			status := http.StatusOK
			for _, file := range files {
				name := path.Base(file.Filename)
				res := uploadResult{Name: name}
				contentType, err := storeUpload(c.Request.Context(), s.Uploads, name, file, &res)
				if err != nil {
					res.Error = err.Error()
					if status == http.StatusOK {
						status = StatusFor(err)
					}
				}
				res.ContentType = contentType
				results = append(results, res)
			}
			c.JSON(status, results)
		})
	}
}

// storeUpload sniffs the first bytes of the file and stores it when it is a
// video.
func storeUpload(ctx context.Context, store VideoStore, name string, file *multipart.FileHeader, res *uploadResult) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, _ := io.ReadFull(f, head)
	if !filetype.IsVideo(head[:n]) {
		return "", model.NewError(model.KindUnreadableVideo, "upload", "%s is not a video", name)
	}
	kind, _ := filetype.Match(head[:n])
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	uri, err := store.Put(ctx, name, kind.MIME.Value, f)
	if err != nil {
		return kind.MIME.Value, err
	}
	res.URI = uri
	slog.InfoContext(ctx, "stored upload", "name", name, "uri", uri, "content_type", kind.MIME.Value)
	return kind.MIME.Value, nil
}
