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

// Package model defines the data structures used throughout the application.
// This file holds the few-shot example shown to the model so that it replies
// with the JSON shape the analyzer parses.
package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// exampleValue is the placeholder rendered for one output field.
func exampleValue(f Field) string {
	switch f.Kind {
	case KindNumber:
		return "0"
	case KindTextList:
		return "[" + quote("<"+f.Name+" item>") + ", " + quote("...") + "]"
	default:
		return quote("<" + f.Name + ">")
	}
}

// quote renders s as a JSON string without escaping <, > and &.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// GetExampleOutput renders a single line JSON object with one placeholder
// per output field, in signature order. It is used as a few-shot example in
// the system prompt.
//
// For the default signatures it returns {"answer": "<answer>"}.
func GetExampleOutput(outputs []Field) string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, f := range outputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(f.Name))
		sb.WriteString(": ")
		sb.WriteString(exampleValue(f))
	}
	sb.WriteString("}")
	return sb.String()
}
