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

package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/cloud"
	"google.golang.org/api/iterator"
)

// SignFunc signs a V4 string-to-sign on behalf of the signer account.
type SignFunc func(ctx context.Context, payload []byte) ([]byte, error)

// IAMSigner signs through the IAM Credentials API, so no private key has to
// be present on the server.
func IAMSigner(client *credentials.IamCredentialsClient, email string) SignFunc {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		resp, err := client.SignBlob(ctx, &credentialspb.SignBlobRequest{
			Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", email),
			Payload: payload,
		})
		if err != nil {
			return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
		}
		return resp.SignedBlob, nil
	}
}

// FrameService lists persisted frames and hands out signed URLs for them.
type FrameService struct {
	StorageClient *storage.Client
	// SignerEmail and Sign are optional; without them the storage client's
	// own credentials sign.
	SignerEmail string
	Sign        SignFunc
}

// SignedURL returns a GET URL for the gs:// object valid for expires.
func (s *FrameService) SignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error) {
	obj, err := cloud.ParseGCSURI(gcsURI)
	if err != nil {
		return "", err
	}
	if obj.Name == "" {
		return "", fmt.Errorf("%s names a bucket, not an object", gcsURI)
	}

	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expires),
	}
	if s.SignerEmail != "" && s.Sign != nil {
		opts.GoogleAccessID = s.SignerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) { return s.Sign(ctx, b) }
	}

	u, err := s.StorageClient.Bucket(obj.Bucket).SignedURL(obj.Name, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", obj.Bucket, obj.Name, err)
	}
	return u, nil
}

// List returns the gs:// URIs of the JPEG frames below prefix, in name order.
func (s *FrameService) List(ctx context.Context, prefix string) ([]string, error) {
	dir, err := cloud.ParseGCSURI(prefix)
	if err != nil {
		return nil, err
	}
	query := &storage.Query{}
	if dir.Name != "" {
		query.Prefix = dir.Name + "/"
	}

	out := make([]string, 0)
	it := s.StorageClient.Bucket(dir.Bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if path.Ext(attrs.Name) == ".jpg" {
			out = append(out, (&cloud.GCSObject{Bucket: dir.Bucket, Name: attrs.Name}).URI())
		}
	}
	return out, nil
}
