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
	"context"
	"strings"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// Module is a reasoning strategy. Forward makes exactly one LanguageModel call.
// The VideoAnalyzer moves the request through its states; modules only read it.
type Module interface {
	Name() string
	Forward(ctx context.Context, lm LanguageModel, req *model.AnalysisRequest) (*model.AnalysisResponse, error)
}

// Predict asks the model for the signature's outputs directly.
type Predict struct {
	assembler *PromptAssembler
}

func NewPredict() *Predict {
	return &Predict{assembler: NewPromptAssembler()}
}

func (p *Predict) Name() string { return "Predict" }

func (p *Predict) Forward(ctx context.Context, lm LanguageModel, req *model.AnalysisRequest) (*model.AnalysisResponse, error) {
	return forward(ctx, p.assembler, lm, req, req.Signature)
}

// ReasoningField is the output ChainOfThought prepends to the signature.
var ReasoningField = model.Field{
	Name:        model.FieldReasoning,
	Description: "Think step by step about the frames before producing the remaining outputs",
	Kind:        model.KindText,
}

// ChainOfThought asks the model to write out its reasoning before the
// signature's outputs. The reasoning is returned as an extra output.
type ChainOfThought struct {
	assembler *PromptAssembler
}

func NewChainOfThought() *ChainOfThought {
	return &ChainOfThought{assembler: NewPromptAssembler()}
}

func (c *ChainOfThought) Name() string { return "ChainOfThought" }

func (c *ChainOfThought) Forward(ctx context.Context, lm LanguageModel, req *model.AnalysisRequest) (*model.AnalysisResponse, error) {
	sig := req.Signature
	if _, ok := sig.Output(model.FieldReasoning); !ok {
		sig = sig.PrependOutput(ReasoningField)
	}
	return forward(ctx, c.assembler, lm, req, sig)
}

// ModuleByName returns the module called name. Matching ignores case and
// underscores, so "chain_of_thought" selects ChainOfThought. An empty name
// selects Predict.
func ModuleByName(name string) (Module, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "")) {
	case "", "predict":
		return NewPredict(), nil
	case "chainofthought":
		return NewChainOfThought(), nil
	}
	return nil, model.NewError(model.KindInvalidConfig, "module", "unknown module %q", name)
}

func forward(ctx context.Context, assembler *PromptAssembler, lm LanguageModel, req *model.AnalysisRequest, sig model.Signature) (*model.AnalysisResponse, error) {
	prompt, err := assembler.Assemble(req, sig)
	if err != nil {
		return nil, err
	}
	completion, err := lm.Generate(ctx, prompt, req.Config)
	if err != nil {
		return nil, err
	}
	fields, err := ParseOutputs(completion.Text, sig.Outputs)
	if err != nil {
		return nil, err
	}

	name := completion.Model
	if name == "" {
		name = req.Config.ModelName()
	}
	return &model.AnalysisResponse{
		RequestID:  req.ID,
		Model:      name,
		Signature:  sig.Name,
		Fields:     fields,
		FrameCount: prompt.FrameCount(),
		Usage:      completion.Usage,
	}, nil
}
