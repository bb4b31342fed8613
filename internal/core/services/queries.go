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

// Package services reads what the workflows stored: analysis rows in
// BigQuery and persisted frames in Cloud Storage.
package services

const (
	// QryAnalysesByVideo lists the analyses of one video, newest first.
	// Placeholder: the fully qualified analysis table.
	QryAnalysesByVideo = "SELECT * FROM `%s` WHERE video_id = @video_id ORDER BY create_date DESC LIMIT @limit"

	// QryFindAnalysisById fetches a single analysis row.
	QryFindAnalysisById = "SELECT * FROM `%s` WHERE id = @id"
)
