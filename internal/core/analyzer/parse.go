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

package analyzer

import (
	"strings"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"github.com/tidwall/gjson"
)

// ParseOutputs maps a model reply onto the output fields.
//
// The reply is expected to contain one JSON object keyed by field name. A
// reply that is not JSON is accepted as the value of the only output when
// there is exactly one. The last output is required; earlier ones default to
// the empty string.
func ParseOutputs(text string, outputs []model.Field) (map[string]any, error) {
	const op = "parse-outputs"
	if len(outputs) == 0 {
		return nil, model.NewError(model.KindInvalidConfig, op, "no output fields")
	}

	obj, ok := jsonObject(text)
	if !ok {
		if len(outputs) == 1 && strings.TrimSpace(text) != "" {
			return map[string]any{outputs[0].Name: strings.TrimSpace(text)}, nil
		}
		return nil, model.NewError(model.KindModelCall, op, "model reply is not a json object: %.200q", text)
	}

	values := obj.Map()
	fields := make(map[string]any, len(outputs))
	for i, f := range outputs {
		v, ok := values[f.Name]
		if !ok || v.Type == gjson.Null {
			if i == len(outputs)-1 {
				return nil, model.NewError(model.KindModelCall, op, "model reply has no %q field", f.Name)
			}
			fields[f.Name] = ""
			continue
		}
		fields[f.Name] = fieldValue(v, f.Kind)
	}
	return fields, nil
}

// jsonObject finds the outermost {...} in text, tolerating markdown fences
// and chatter around it.
func jsonObject(text string) (gjson.Result, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return gjson.Result{}, false
	}
	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return gjson.Result{}, false
	}
	return gjson.Parse(raw), true
}

func fieldValue(v gjson.Result, kind model.FieldKind) any {
	switch kind {
	case model.KindNumber:
		return v.Float()
	case model.KindTextList:
		items := v.Array()
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.String()
		}
		return out
	case model.KindText:
		return v.String()
	}
	return v.Value()
}
