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
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// RowInserter is the part of *bigquery.Inserter the command uses.
type RowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// AnalysisPersistToBigQuery streams the *model.AnalysisRecord found under
// recordParam into the analysis table and passes it on.
type AnalysisPersistToBigQuery struct {
	cor.BaseCommand
	inserter    RowInserter
	recordParam string
}

func NewAnalysisPersistToBigQuery(name string, client *bigquery.Client, dataset string, table string, recordParam string) *AnalysisPersistToBigQuery {
	return NewAnalysisPersistWithInserter(name, client.Dataset(dataset).Table(table).Inserter(), recordParam)
}

// NewAnalysisPersistWithInserter builds the command around any inserter.
func NewAnalysisPersistWithInserter(name string, inserter RowInserter, recordParam string) *AnalysisPersistToBigQuery {
	return &AnalysisPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), inserter: inserter, recordParam: recordParam}
}

func (s *AnalysisPersistToBigQuery) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(s.recordParam) != nil
}

func (s *AnalysisPersistToBigQuery) Execute(context cor.Context) {
	record := context.Get(s.recordParam).(*model.AnalysisRecord)

	if err := s.inserter.Put(context.GetContext(), record); err != nil {
		s.Fail(context, fmt.Errorf("bigquery insert failed for analysis %s of %s: %w", record.Id, record.VideoUri, err))
		return
	}
	slog.Info("persisted analysis", "id", record.Id, "video", record.VideoUri, "model", record.Model)
	s.Succeed(context, record)
}
