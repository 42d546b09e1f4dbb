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

// This file defines a Pub/Sub listener that turns incoming marketing briefs
// into pipeline runs. Publishing a JSON brief to the subscribed topic is the
// asynchronous alternative to the HTTP API.
//
// Logic Flow:
//  1. A BriefListener is created with a client, a subscription ID, and the
//     command (normally the full pipeline chain) that processes briefs.
//  2. `Listen` starts a background goroutine that waits for messages.
//  3. Each message is decoded as a model.Brief, seeded into a fresh chain
//     context via the supplied factory, and handed to the command.
//  4. The message is Ack'd only when the chain completes without errors, so
//     failed runs are redelivered per the subscription's retry policy.
//  5. The whole flow is instrumented with OpenTelemetry spans.
package cloud

import (
	"context"
	"encoding/json"
	"log"

	"cloud.google.com/go/pubsub"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RunContextFactory builds a fresh chain context seeded with a brief. The
// workflow package supplies the canonical implementation; taking it as a
// function keeps this package from depending on the workflow wiring.
type RunContextFactory func(ctx context.Context, brief *model.Brief) cor.Context

// BriefListener connects a Pub/Sub subscription to the pipeline command.
// Listeners have a life-cycle independent of individual API requests, so
// they live with the other long-lived cloud components.
type BriefListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command       // The chain to execute for each received brief.
	newContext   RunContextFactory // Builds the seeded chain context for a run.
}

// NewBriefListener is the constructor for creating a BriefListener.
//
// Inputs:
//   - pubsubClient: An authenticated *pubsub.Client.
//   - subscriptionID: The string ID of the subscription to pull briefs from.
//   - command: The cor.Command executed per brief. May be nil and attached
//     later with SetCommand.
//   - newContext: The factory that seeds a chain context from a brief.
//
// Outputs:
//   - *BriefListener: The configured listener.
//   - error: Reserved for future validation; currently always nil.
func NewBriefListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
	newContext RunContextFactory,
) (cmd *BriefListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	cmd = &BriefListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
		newContext:   newContext,
	}
	return cmd, nil
}

// SetCommand attaches a command to the listener when it was created before
// the full chain was assembled. An already attached command is not
// overwritten.
//
// Inputs:
//   - command: The cor.Command to execute when a brief is received.
func (m *BriefListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts the asynchronous receiving loop in a background goroutine so
// the server keeps handling API requests while briefs arrive. Canceling ctx
// stops the loop, which is how graceful shutdown reaches the listener.
//
// Inputs:
//   - ctx: Controls the lifecycle of the receive loop.
func (m *BriefListener) Listen(ctx context.Context) {
	log.Printf("listening for briefs: %s", m.subscription)

	go func() {
		tracer := otel.Tracer("brief-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-brief")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))
			defer span.End()

			brief := &model.Brief{}
			if err := json.Unmarshal(msg.Data, brief); err != nil {
				// A malformed brief will never succeed on redelivery, so
				// Ack it and record the failure on the span.
				span.SetStatus(codes.Error, "malformed brief")
				log.Printf("discarding malformed brief: %v", err)
				msg.Ack()
				return
			}

			chainCtx := m.newContext(spanCtx, brief)
			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				// Processed successfully, remove it from the subscription.
				msg.Ack()
			} else {
				span.SetStatus(codes.Error, "failed")
				for _, e := range chainCtx.GetErrors() {
					log.Printf("error executing chain: %v", e)
				}
				// Not Ack'ing lets the brief be redelivered after the
				// acknowledgement deadline, per the retry policy.
			}
		})

		if err != nil {
			log.Printf("error receiving data: %v", err)
		}
	}()
}
