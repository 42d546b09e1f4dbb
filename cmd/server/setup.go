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

package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/cloud"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/services"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/workflow"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
)

// StateManager holds the shared components for the server: the loaded
// configuration, the optional cloud clients, and the pipeline service the
// HTTP handlers delegate to.
type StateManager struct {
	config          *cloud.Config
	cloud           *cloud.ServiceClients
	pipelineService *services.PipelineService
}

var state = &StateManager{}

// SetupOS points the config loader at the local configuration files. A
// local .env file is applied first so provider and Vertex overrides can
// live outside the TOML files.
func SetupOS() (err error) {
	// Missing .env is fine, the TOML files carry the defaults.
	_ = godotenv.Load()

	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig loads the application configuration once and caches it.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		// Create a default cloud config
		config := cloud.NewConfig()
		// Load it from the TOML files
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the server's dependencies: cloud clients where
// configured, the provider registry, the pipeline service, and the
// optional Pub/Sub brief listener. A fully local, mock-backed server
// starts fine without any Google credentials.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		// Vertex downloads and completion notifications are disabled,
		// everything else keeps working.
		slog.Warn("cloud clients unavailable, continuing local-only", "error", err)
		cloudClients = nil
	}
	state.cloud = cloudClients

	registry := providers.NewRegistry(config, storageClientOf(cloudClients))
	state.pipelineService = services.NewPipelineService(config, registry)

	if cloudClients != nil {
		if notifier, ok := cloudClients.Notifiers["completion"]; ok {
			state.pipelineService.SetNotifier(notifier)
		}
		SetupListeners(ctx, config, cloudClients, registry)
	}
}

// SetupListeners starts the Pub/Sub brief listener when a subscription is
// configured, so publishing a JSON brief triggers a full pipeline run.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, registry *providers.Registry) {
	subscription := config.Application.BriefSubscription
	if subscription == "" || cloudClients.PubSubClient == nil {
		return
	}

	pipeline := workflow.NewAdPipelineWorkflow(config, registry)
	listener, err := cloud.NewBriefListener(cloudClients.PubSubClient, subscription, pipeline, workflow.NewRunContext)
	if err != nil {
		slog.Error("failed to create brief listener", "subscription", subscription, "error", err)
		return
	}
	listener.Listen(ctx)
}

func storageClientOf(clients *cloud.ServiceClients) *storage.Client {
	if clients == nil {
		return nil
	}
	return clients.StorageClient
}
