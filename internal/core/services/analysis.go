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
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"google.golang.org/api/iterator"
)

// DefaultListLimit caps ListByVideo when the caller passes a non-positive limit.
const DefaultListLimit = 50

// ErrNotFound is returned by Get when no row matches.
var ErrNotFound = errors.New("analysis not found")

// AnalysisService queries the analysis table written by the workflows and
// the HTTP handlers.
type AnalysisService struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	AnalysisTable  string
}

// GetFQN returns the table name in the project.dataset.table form SQL expects.
func (s *AnalysisService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.AnalysisTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", 1)
}

// ListByVideo returns up to limit analyses of the video at videoUri.
func (s *AnalysisService) ListByVideo(ctx context.Context, videoUri string, limit int) ([]*model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(QryAnalysesByVideo, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "video_id", Value: model.VideoIdFor(videoUri)},
		{Name: "limit", Value: limit},
	}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*model.AnalysisRecord, 0)
	for {
		record := &model.AnalysisRecord{}
		err := itr.Next(record)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// Get returns the analysis with the given row id.
func (s *AnalysisService) Get(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryFindAnalysisById, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: id}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	record := &model.AnalysisRecord{}
	if err := itr.Next(record); err == iterator.Done {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return record, nil
}
