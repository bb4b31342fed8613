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
	"errors"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const meterName = cor.MeterName

// CallOption adjusts a single Ask or Chat call.
type CallOption func(o *callOptions)

type callOptions struct {
	module    Module
	signature *model.Signature
}

// WithModule selects the reasoning strategy. The default is Predict.
func WithModule(m Module) CallOption {
	return func(o *callOptions) { o.module = m }
}

// WithSignature replaces the built-in signature. Missing frames and
// chat_history inputs are added as needed.
func WithSignature(sig model.Signature) CallOption {
	return func(o *callOptions) { o.signature = &sig }
}

// VideoAnalyzer answers prompts and chat turns about extracted frames.
// It keeps no state between calls and is safe for concurrent use.
type VideoAnalyzer struct {
	lm       LanguageModel
	tracer   trace.Tracer
	calls    metric.Int64Counter
	failures metric.Int64Counter
}

func NewVideoAnalyzer(lm LanguageModel) *VideoAnalyzer {
	meter := otel.Meter(meterName)
	out := &VideoAnalyzer{lm: lm, tracer: otel.Tracer(meterName)}
	out.calls, _ = meter.Int64Counter("analyzer.calls")
	out.failures, _ = meter.Int64Counter("analyzer.failures")
	return out
}

// Ask answers a single prompt about frames.
func (a *VideoAnalyzer) Ask(ctx context.Context, frames model.FrameSequence, prompt string, cfg *model.AnalyzerConfig, opts ...CallOption) (*model.AnalysisResponse, error) {
	o := resolveOptions(opts)
	sig := model.VideoSignature()
	if o.signature != nil {
		sig = o.signature.ForAsk()
	}
	req := model.NewAnalysisRequest(model.ModeAsk, frames, sig, cfg)
	req.Prompt = prompt
	return a.run(ctx, req, o.module)
}

// Chat answers the last user turn of messages about frames.
func (a *VideoAnalyzer) Chat(ctx context.Context, frames model.FrameSequence, messages []model.ChatMessage, cfg *model.AnalyzerConfig, opts ...CallOption) (*model.AnalysisResponse, error) {
	o := resolveOptions(opts)
	sig := model.VideoChatSignature()
	if o.signature != nil {
		sig = o.signature.ForChat()
	}
	req := model.NewAnalysisRequest(model.ModeChat, frames, sig, cfg)
	req.Messages = messages
	return a.run(ctx, req, o.module)
}

func resolveOptions(opts []CallOption) *callOptions {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.module == nil {
		o.module = NewPredict()
	}
	return o
}

func (a *VideoAnalyzer) run(ctx context.Context, req *model.AnalysisRequest, module Module) (*model.AnalysisResponse, error) {
	ctx, span := a.tracer.Start(ctx, "analyze-"+string(req.Mode), trace.WithAttributes(
		attribute.String("request_id", req.ID),
		attribute.String("module", module.Name()),
		attribute.String("signature", req.Signature.Name),
		attribute.Int("frames", len(req.Frames)),
	))
	defer span.End()
	a.calls.Add(ctx, 1)

	resp, err := a.call(ctx, req, module)
	if err != nil {
		_ = req.Transition(model.StateFailed)
		a.failures.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		slog.WarnContext(ctx, "analysis failed", "request_id", req.ID, "state", req.State, "error", err)
		return nil, err
	}
	if err := req.Transition(model.StateCompleted); err != nil {
		return nil, model.WrapError(model.KindModelCall, "analyze", err, "request %s", req.ID)
	}
	span.SetAttributes(
		attribute.Int("usage.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int("usage.completion_tokens", resp.Usage.CompletionTokens))
	slog.DebugContext(ctx, "analysis completed", "request_id", req.ID, "model", resp.Model, "frames", resp.FrameCount)
	return resp, nil
}

func (a *VideoAnalyzer) call(ctx context.Context, req *model.AnalysisRequest, module Module) (*model.AnalysisResponse, error) {
	const op = "analyze"
	if req.Config == nil {
		return nil, model.NewError(model.KindInvalidConfig, op, "analyzer config is required")
	}
	if len(req.Frames) == 0 {
		return nil, model.NewError(model.KindEmptyExtraction, op, "no frames to analyze")
	}
	if req.Mode == model.ModeChat {
		if err := model.ValidateChatHistory(req.Messages); err != nil {
			return nil, err
		}
	}

	if err := req.Transition(model.StateRequestAssembled); err != nil {
		return nil, model.WrapError(model.KindModelCall, op, err, "request %s", req.ID)
	}
	if err := req.Transition(model.StateDispatched); err != nil {
		return nil, model.WrapError(model.KindModelCall, op, err, "request %s", req.ID)
	}

	resp, err := module.Forward(ctx, a.lm, req)
	if err != nil {
		var typed *model.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, model.WrapError(model.KindModelCall, op, err, "%s call to %s failed", module.Name(), req.Config.ModelName())
	}
	return resp, nil
}
