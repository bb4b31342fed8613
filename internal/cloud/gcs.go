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

// Package cloud wraps the Google Cloud services the analyzer depends on. This
// file holds the Cloud Storage models: the Pub/Sub notification payload sent
// when a video lands in the input bucket, and the GCSObject reference used
// throughout the workflows.
package cloud

import (
	"fmt"
	"path"
	"strings"
)

// GCSScheme prefixes every Cloud Storage URI.
const GCSScheme = "gs://"

// GetGCSObjectName is the context key the triggering GCSObject is stored
// under for the lifetime of a workflow.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification is the JSON payload of an OBJECT_FINALIZE
// notification.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`
	ID                      string                 `json:"id"`
	SelfLink                string                 `json:"selfLink"`
	Name                    string                 `json:"name"`
	Bucket                  string                 `json:"bucket"`
	Generation              string                 `json:"generation"`
	MetaGeneration          string                 `json:"metageneration"`
	ContentType             string                 `json:"contentType"`
	TimeCreated             string                 `json:"timeCreated"`
	Updated                 string                 `json:"updated"`
	StorageClass            string                 `json:"storageClass"`
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"`
	Size                    string                 `json:"size"`
	MD5Hash                 string                 `json:"md5Hash"`
	MediaLink               string                 `json:"mediaLink"`
	MetaData                map[string]interface{} `json:"metadata"`
	Crc32c                  string                 `json:"crc32c"`
	ETag                    string                 `json:"etag"`
}

// GCSObject references a single Cloud Storage object.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI returns the object's gs:// URI.
func (o *GCSObject) URI() string {
	return GCSScheme + o.Bucket + "/" + o.Name
}

// Child returns the object named name below o, treating o.Name as a prefix.
func (o *GCSObject) Child(name string) *GCSObject {
	return &GCSObject{Bucket: o.Bucket, Name: strings.TrimPrefix(path.Join(o.Name, name), "/")}
}

// IsGCSURI reports whether uri uses the gs:// scheme.
func IsGCSURI(uri string) bool {
	return strings.HasPrefix(uri, GCSScheme)
}

// ParseGCSURI splits "gs://bucket/name" into its parts. The name may be empty
// when the URI names a bucket or a prefix.
func ParseGCSURI(uri string) (*GCSObject, error) {
	if !IsGCSURI(uri) {
		return nil, fmt.Errorf("not a gs:// uri: %q", uri)
	}
	bucket, name, _ := strings.Cut(strings.TrimPrefix(uri, GCSScheme), "/")
	if bucket == "" {
		return nil, fmt.Errorf("gs:// uri without a bucket: %q", uri)
	}
	return &GCSObject{Bucket: bucket, Name: strings.TrimSuffix(name, "/")}, nil
}
