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

// Package cloud provides components for interacting with Google Cloud
// services. This file defines a small Pub/Sub publisher used to announce
// pipeline run completions. Downstream systems (scheduling, analytics,
// notification fan-out) subscribe to the topic instead of polling the
// server for run state.
//
// Logic Flow:
//  1. A CompletionNotifier is created with a Pub/Sub client and topic ID.
//  2. When a pipeline run finishes, `Publish` is called with the run's
//     assembly summary.
//  3. The summary is marshaled to JSON and published; the call blocks until
//     the service confirms the message or the configured timeout elapses.
//  4. The publish is instrumented with an OpenTelemetry span so completion
//     events show up on the run's trace.
//
// Structs:
//   - CompletionNotifier: Wraps a Pub/Sub topic handle with a publish
//     timeout.
//
// Functions:
//   - NewCompletionNotifier: Constructor for creating a new notifier.
//   - Publish: Publishes a JSON payload to the topic.
//   - Stop: Flushes and releases the topic handle.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"

	"time"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CompletionNotifier publishes pipeline run summaries to a Pub/Sub topic.
type CompletionNotifier struct {
	topic   *pubsub.Topic // The topic handle completion events are published to.
	timeout time.Duration // How long to wait for the service to confirm a publish.
}

// NewCompletionNotifier is the constructor for CompletionNotifier.
//
// Inputs:
//   - pubsubClient: An authenticated *pubsub.Client.
//   - topicID: The string ID of the topic (e.g., "pipeline-completions").
//   - timeout: How long Publish waits for confirmation before giving up.
//
// Outputs:
//   - *CompletionNotifier: A pointer to the newly created notifier.
func NewCompletionNotifier(pubsubClient *pubsub.Client, topicID string, timeout time.Duration) *CompletionNotifier {
	return &CompletionNotifier{
		topic:   pubsubClient.Topic(topicID),
		timeout: timeout,
	}
}

// Publish marshals the payload to JSON and publishes it to the topic,
// waiting for server confirmation. Failures are returned to the caller but
// should not fail the pipeline run itself; a lost notification is
// recoverable, a discarded render is not.
//
// Inputs:
//   - ctx: The context for the publish, carrying the run's trace.
//   - payload: Any JSON-marshalable value, typically the assembly summary.
func (n *CompletionNotifier) Publish(ctx context.Context, payload interface{}) error {
	tracer := otel.Tracer("completion-notifier")
	spanCtx, span := tracer.Start(ctx, "publish-completion")
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		span.SetStatus(codes.Error, "marshal failed")
		return fmt.Errorf("failed to marshal completion payload: %w", err)
	}
	span.SetAttributes(attribute.Int("payload_bytes", len(data)))

	pubCtx, cancel := context.WithTimeout(spanCtx, n.timeout)
	defer cancel()

	result := n.topic.Publish(pubCtx, &pubsub.Message{Data: data})
	if _, err := result.Get(pubCtx); err != nil {
		span.SetStatus(codes.Error, "publish failed")
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	span.SetStatus(codes.Ok, "published")
	return nil
}

// Stop flushes any pending messages and releases the topic's publisher
// resources. Call during shutdown.
func (n *CompletionNotifier) Stop() {
	n.topic.Stop()
}
