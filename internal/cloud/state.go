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
// services. This file defines the dependency injection container for the
// cloud service clients the pipeline can use: Cloud Storage for downloading
// generated artifacts the Vertex endpoints leave in a bucket, and Pub/Sub
// for publishing run-completion events. Both are optional; a mock-backed
// run needs neither.
//
// Structs:
//   - ServiceClients: A container struct holding the initialized Google
//     Cloud service clients, acting as a central state manager for external
//     connections.
//
// Functions:
//   - NewCloudServiceClients: A factory that creates and configures the
//     clients named by the application's configuration.
//   - Close: A convenience method to gracefully shut down all connections.
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ServiceClients is a container for the Google Cloud clients used across
// the application. It is created once at startup and passed to the
// components that need cloud access.
type ServiceClients struct {
	StorageClient *storage.Client                // Downloads gcsUri prediction outputs. May be nil.
	PubSubClient  *pubsub.Client                 // Backs the completion notifiers. May be nil.
	Notifiers     map[string]*CompletionNotifier // Completion notifiers keyed by the config's logical topic name.
}

// NewCloudServiceClients initializes the cloud clients named by the
// configuration. A Pub/Sub client and its notifiers are only created when a
// Google project is configured; the storage client is always attempted
// because the Vertex providers use it opportunistically.
//
// Inputs:
//   - ctx: The context used for client initialization.
//   - config: The loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The initialized container.
//   - error: An error if a required client could not be created.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	out := &ServiceClients{
		Notifiers: make(map[string]*CompletionNotifier),
	}

	userAgent := option.WithUserAgent(config.Application.Name)

	storageClient, err := storage.NewClient(ctx, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	out.StorageClient = storageClient

	if config.Application.GoogleProjectId == "" {
		slog.Warn("no google project configured, completion notifications disabled")
		return out, nil
	}

	pubsubClient, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	out.PubSubClient = pubsubClient

	for key, topic := range config.TopicNotifications {
		timeout := time.Duration(topic.TimeoutInSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		out.Notifiers[key] = NewCompletionNotifier(pubsubClient, topic.Name, timeout)
	}

	return out, nil
}

// Close releases all held client connections. Safe to call on a partially
// initialized container.
func (s *ServiceClients) Close() {
	for _, notifier := range s.Notifiers {
		notifier.Stop()
	}
	if s.PubSubClient != nil {
		if err := s.PubSubClient.Close(); err != nil {
			slog.Error("failed to close pubsub client", "error", err)
		}
	}
	if s.StorageClient != nil {
		if err := s.StorageClient.Close(); err != nil {
			slog.Error("failed to close storage client", "error", err)
		}
	}
}
