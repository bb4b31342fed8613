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
// This file defines `Signature`, the response schema of an analysis call.
//
// A signature names the inputs handed to the model and the outputs it must
// produce. The prompt assembler renders it into instructions and the
// reasoning module parses the model's JSON reply back into the output fields.
package model

// Well known field names.
const (
	FieldFrames       = "frames"
	FieldSystemPrompt = "system_prompt"
	FieldChatHistory  = "chat_history"
	FieldAnswer       = "answer"
	FieldReasoning    = "reasoning"
)

// DefaultInstructions is the task description of the built-in signatures.
const DefaultInstructions = "You are a helpful assistant that can answer questions about a video"

// FieldKind describes the shape of a signature field.
type FieldKind string

const (
	KindImages      FieldKind = "images"       // A list of sequential video frames.
	KindText        FieldKind = "text"         // Free text.
	KindChatHistory FieldKind = "chat_history" // An ordered list of chat messages.
	KindNumber      FieldKind = "number"
	KindTextList    FieldKind = "text_list"
)

// Field is one named input or output of a signature.
type Field struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Kind        FieldKind `json:"kind"`
}

// Signature is the response schema of an analysis call.
type Signature struct {
	Name         string  `json:"name"`
	Instructions string  `json:"instructions"`
	Inputs       []Field `json:"inputs"`
	Outputs      []Field `json:"outputs"`
}

var (
	framesField = Field{Name: FieldFrames, Description: "A list of sequential frames from a video", Kind: KindImages}
	chatField   = Field{Name: FieldChatHistory, Description: "A list of previous messages between the user and the assistant", Kind: KindChatHistory}
	promptField = Field{Name: FieldSystemPrompt, Description: "Analyze the video based on the prompt", Kind: KindText}
)

// VideoSignature answers a single prompt about a video.
func VideoSignature() Signature {
	return Signature{
		Name:         "VideoSignature",
		Instructions: DefaultInstructions,
		Inputs:       []Field{framesField, promptField},
		Outputs:      []Field{{Name: FieldAnswer, Description: "An answer to the prompt", Kind: KindText}},
	}
}

// VideoChatSignature answers the last user turn of a conversation about a video.
func VideoChatSignature() Signature {
	return Signature{
		Name:         "VideoChatSignature",
		Instructions: DefaultInstructions,
		Inputs:       []Field{framesField, chatField},
		Outputs:      []Field{{Name: FieldAnswer, Description: "An answer to the question", Kind: KindText}},
	}
}

// Input returns the named input field.
func (s Signature) Input(name string) (Field, bool) {
	return findField(s.Inputs, name)
}

// Output returns the named output field.
func (s Signature) Output(name string) (Field, bool) {
	return findField(s.Outputs, name)
}

// PrependInput returns a copy of s with f as its first input.
func (s Signature) PrependInput(f Field) Signature {
	out := s.clone()
	out.Inputs = append([]Field{f}, out.Inputs...)
	return out
}

// AppendInput returns a copy of s with f as its last input.
func (s Signature) AppendInput(f Field) Signature {
	out := s.clone()
	out.Inputs = append(out.Inputs, f)
	return out
}

// PrependOutput returns a copy of s with f as its first output.
func (s Signature) PrependOutput(f Field) Signature {
	out := s.clone()
	out.Outputs = append([]Field{f}, out.Outputs...)
	return out
}

// TextInput returns the first text input other than the chat history. Ask binds its prompt to it.
func (s Signature) TextInput() (Field, bool) {
	for _, f := range s.Inputs {
		if f.Kind == KindText {
			return f, true
		}
	}
	return Field{}, false
}

// ForAsk returns s with the inputs Ask needs: frames first and a text field for the prompt.
func (s Signature) ForAsk() Signature {
	out := s
	if _, ok := out.Input(FieldFrames); !ok {
		out = out.PrependInput(framesField)
	}
	if _, ok := out.TextInput(); !ok {
		out = out.AppendInput(promptField)
	}
	return out
}

// ForChat returns s with the inputs Chat needs: frames and chat_history.
func (s Signature) ForChat() Signature {
	out := s
	if _, ok := out.Input(FieldChatHistory); !ok {
		out = out.PrependInput(chatField)
	}
	if _, ok := out.Input(FieldFrames); !ok {
		out = out.PrependInput(framesField)
	}
	return out
}

// Validate checks that the signature declares at least one output and that
// field names are unique.
func (s Signature) Validate() error {
	const op = "signature"
	if len(s.Outputs) == 0 {
		return NewError(KindInvalidConfig, op, "signature %q declares no outputs", s.Name)
	}
	seen := make(map[string]bool)
	for _, f := range append(append([]Field{}, s.Inputs...), s.Outputs...) {
		if f.Name == "" {
			return NewError(KindInvalidConfig, op, "signature %q has an unnamed field", s.Name)
		}
		if seen[f.Name] {
			return NewError(KindInvalidConfig, op, "signature %q declares %q twice", s.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func (s Signature) clone() Signature {
	out := s
	out.Inputs = append([]Field{}, s.Inputs...)
	out.Outputs = append([]Field{}, s.Outputs...)
	return out
}

func findField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
