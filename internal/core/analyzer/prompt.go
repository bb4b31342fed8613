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

// Package analyzer answers questions about a sequence of video frames with a
// vision language model.
//
// A call flows through three collaborators:
//   - PromptAssembler renders a signature, the frames and the caller's prompt
//     or chat history into a provider neutral Prompt.
//   - A Module (Predict or ChainOfThought) decides which outputs to ask for
//     and parses the model's reply into them.
//   - A LanguageModel (GeminiModel, OpenAIModel, or the Router in front of
//     both) performs exactly one outbound call.
package analyzer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// Turn is one message of the rendered conversation.
type Turn struct {
	Role   model.Role
	Text   string
	Frames model.FrameSequence
}

// Prompt is the provider neutral request handed to a LanguageModel.
type Prompt struct {
	System  string
	Turns   []Turn
	Outputs []model.Field
}

// FrameCount returns how many frames are attached across all turns.
func (p *Prompt) FrameCount() int {
	n := 0
	for _, t := range p.Turns {
		n += len(t.Frames)
	}
	return n
}

const systemTemplate = `{{.Instructions}}

Your input fields are:
{{range .Inputs}}- {{.Name}} ({{.Kind}}): {{.Description}}
{{end}}
Your output fields are:
{{range .Outputs}}- {{.Name}} ({{.Kind}}): {{.Description}}
{{end}}
The frames are sampled in order from a single video. Respond with a single JSON object and nothing else. Its keys must be exactly: {{keys .Outputs}}.
For example: {{example .Outputs}}`

// PromptAssembler renders analysis requests into prompts. It holds no per
// call state and may be shared.
type PromptAssembler struct {
	system *template.Template
}

func NewPromptAssembler() *PromptAssembler {
	funcs := template.FuncMap{
		"keys": func(fields []model.Field) string {
			names := make([]string, len(fields))
			for i, f := range fields {
				names[i] = fmt.Sprintf("%q", f.Name)
			}
			return strings.Join(names, ", ")
		},
		"example": model.GetExampleOutput,
	}
	return &PromptAssembler{system: template.Must(template.New("system").Funcs(funcs).Parse(systemTemplate))}
}

// Assemble renders req against sig. Frames are attached once, to the first
// user turn. Chat turns, system turns included, keep their position.
func (a *PromptAssembler) Assemble(req *model.AnalysisRequest, sig model.Signature) (*Prompt, error) {
	const op = "assemble-prompt"
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := a.system.Execute(&buf, sig); err != nil {
		return nil, model.WrapError(model.KindModelCall, op, err, "failed to render signature %s", sig.Name)
	}
	prompt := &Prompt{System: buf.String(), Outputs: sig.Outputs}

	switch req.Mode {
	case model.ModeAsk:
		field, ok := sig.TextInput()
		if !ok {
			return nil, model.NewError(model.KindInvalidConfig, op, "signature %s has no text input for the prompt", sig.Name)
		}
		prompt.Turns = []Turn{{
			Role:   model.RoleUser,
			Text:   fmt.Sprintf("%s: %s", field.Name, req.Prompt),
			Frames: req.Frames,
		}}
	case model.ModeChat:
		for _, m := range req.Messages {
			prompt.Turns = append(prompt.Turns, Turn{Role: m.Role, Text: m.Content})
		}
		for i := range prompt.Turns {
			if prompt.Turns[i].Role == model.RoleUser {
				prompt.Turns[i].Frames = req.Frames
				break
			}
		}
	default:
		return nil, model.NewError(model.KindInvalidConfig, op, "unknown request mode %q", req.Mode)
	}
	return prompt, nil
}
