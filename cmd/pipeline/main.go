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

// Package main is the command-line driver for the ad pipeline. It takes a
// marketing brief from flags, runs all six phases end to end, and prints
// the run summary. Provider selection and Vertex credentials come from the
// configuration files, a local .env file, or environment variables.
//
// Example:
//
//	pipeline -goal "ขายคอร์สออนไลน์" -product "AI Creator Tool" \
//	  -audience "มือใหม่ ไม่เก่งเทค" -platform "Facebook Reel" -candidates 4
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/cloud"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/workflow"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/telemetry"
)

func main() {
	goal := flag.String("goal", "ขายคอร์สออนไลน์", "campaign goal")
	product := flag.String("product", "", "product or service being advertised (required)")
	audience := flag.String("audience", "", "target audience description (required)")
	platform := flag.String("platform", "Facebook Reel", "target platform")
	candidates := flag.Int("candidates", 4, "character/location candidates per slot")
	flag.Parse()

	if *product == "" || *audience == "" {
		flag.Usage()
		os.Exit(2)
	}

	telemetry.SetupLogging()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := loadConfig()

	if config.Application.GoogleProjectId != "" {
		shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
		if err != nil {
			log.Fatalf("failed to setup telemetry: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("telemetry shutdown failed", "error", err)
			}
		}()
	}

	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		// The mock providers need no cloud access, keep going.
		slog.Warn("cloud clients unavailable, continuing local-only", "error", err)
		clients = nil
	} else {
		defer clients.Close()
	}

	registry := providers.NewRegistry(config, storageClientOf(clients))
	pipeline := workflow.NewAdPipelineWorkflow(config, registry)

	brief := &model.Brief{
		Goal:          *goal,
		Product:       *product,
		Audience:      *audience,
		Platform:      *platform,
		NumCandidates: *candidates,
	}

	chainCtx := workflow.NewRunContext(ctx, brief)
	defer chainCtx.Close()

	pipeline.Execute(chainCtx)

	if chainCtx.HasErrors() {
		for name, e := range chainCtx.GetErrors() {
			slog.Error("pipeline command failed", "command", name, "error", e)
		}
		os.Exit(1)
	}

	printSummary(chainCtx.Get(workflow.PlanOutputParamName),
		chainCtx.Get(workflow.RenderOutputParamName),
		chainCtx.Get(workflow.AssemblyOutputParamName))
}

// loadConfig applies a local .env, points the loader at the configs
// directory, and loads the layered TOML configuration.
func loadConfig() *cloud.Config {
	// Missing .env is fine, the TOML files carry the defaults.
	_ = godotenv.Load()

	if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
		log.Fatalf("failed to setup os environment: %v", err)
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		if err := os.Setenv(cloud.EnvConfigRuntime, "local"); err != nil {
			log.Fatalf("failed to setup os environment: %v", err)
		}
	}

	config := cloud.NewConfig()
	cloud.LoadConfig(&config)
	return config
}

func storageClientOf(clients *cloud.ServiceClients) *storage.Client {
	if clients == nil {
		return nil
	}
	return clients.StorageClient
}

// printSummary writes the human-readable run outcome to stdout.
func printSummary(planOut, renderOut, assemblyOut interface{}) {
	if plan, ok := planOut.(*model.VideoPlan); ok {
		fmt.Printf("plan: %d segments, %.1fs total\n", plan.SegmentCount, plan.TotalDuration)
	}
	if render, ok := renderOut.(*model.RenderResult); ok {
		fmt.Printf("render: %d/%d segments succeeded\n", render.SuccessfulSegments, render.TotalSegments)
	}
	if result, ok := assemblyOut.(*model.AssembleResult); ok {
		if result.Success {
			fmt.Printf("final video: %s (retries: %d)\n", result.OutputPath, result.RetryCount)
		} else {
			fmt.Printf("assembly failed: %s\n", result.Error)
			os.Exit(1)
		}
	}
}
