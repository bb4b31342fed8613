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

package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/cor"
)

// PubSubListener feeds every message of a subscription to a command. The
// message data is placed under cor.CtxIn as a string. A message is acked only
// when the command finishes without errors; otherwise it is nacked so Pub/Sub
// redelivers it (or moves it to the dead letter topic).
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

func NewPubSubListener(pubsubClient *pubsub.Client, subscriptionID string, command cor.Command) *PubSubListener {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}
}

// SetCommand sets the command once; later calls are ignored.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving in a background goroutine until ctx is cancelled.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.InfoContext(ctx, "listening", "subscription", m.subscription.ID())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			defer span.End()
			span.SetAttributes(attribute.String("message.id", msg.ID))

			HandleMessage(spanCtx, m.command, msg.Data, msg.Ack, msg.Nack)
		})
		if err != nil {
			slog.ErrorContext(ctx, "error receiving messages", "subscription", m.subscription.ID(), "error", err)
		}
	}()
}

// HandleMessage runs command on one message and acks or nacks it. It is split
// out of Listen so it can run without a live subscription.
func HandleMessage(ctx context.Context, command cor.Command, data []byte, ack func(), nack func()) bool {
	chainCtx := cor.NewContext(ctx)
	defer chainCtx.Close()
	chainCtx.Add(cor.CtxIn, string(data))

	command.Execute(chainCtx)

	span := trace.SpanFromContext(ctx)
	if !chainCtx.HasErrors() {
		span.SetStatus(codes.Ok, "success")
		ack()
		return true
	}
	span.SetStatus(codes.Error, "failed")
	for _, e := range chainCtx.GetErrorList() {
		slog.ErrorContext(ctx, "error executing chain", "command", command.GetName(), "error", e)
	}
	nack()
	return false
}

