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

// Package main is the entry point for the ad pipeline backend server.
//
// The server exposes the six-phase brief-to-video pipeline over a REST API
// using the Gin framework. A client can run the whole pipeline with one
// call, or drive it phase by phase against a run held in memory. The
// phase-by-phase mode is how the casting selection step fits in: generate
// candidates, pick a character and a location, then continue.
//
// The server is instrumented with OpenTelemetry for logging, tracing, and
// metrics, and optionally starts a Pub/Sub brief listener so runs can also
// be triggered by publishing a brief to a topic.
//
// Functions:
//   - main: Sets up configuration, telemetry, state, routes, the optional
//     listener, and graceful shutdown.
//   - PipelineRouter: Registers the run-all and stepwise phase routes.
//   - Dashboard: Registers the stats route.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	if config.Application.GoogleProjectId != "" {
		_, err := telemetry.SetupOpenTelemetry(ctx, config)
		if err != nil {
			slog.Error("Failed to setup OpenTelemetry", "error", err)
			log.Fatal(err)
		}
		slog.Info("Tracing initialized")
	} else {
		slog.Warn("no google project configured, telemetry export disabled")
	}

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Add OpenTelemetry middleware
	r.Use(otelgin.Middleware(config.Application.Name))

	// Allow all origins for local development; the server is not meant to
	// be exposed directly.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		PipelineRouter(apiV1)
		Dashboard(apiV1)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// Give in-flight requests 5 seconds to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	if state.cloud != nil {
		state.cloud.Close()
	}
	log.Println("Server exiting")
}

// selectionRequest is the body of the casting selection call.
type selectionRequest struct {
	CharacterID int `json:"character_id" binding:"required"`
	LocationID  int `json:"location_id" binding:"required"`
}

// PipelineRouter sets up the routes for creating and driving pipeline runs.
//
// Inputs:
//   - r: The *gin.RouterGroup the routes are registered under.
func PipelineRouter(r *gin.RouterGroup) {
	pipeline := r.Group("/pipeline")
	{
		// Run the whole pipeline with one call.
		pipeline.POST("/run", func(c *gin.Context) {
			brief := &model.Brief{}
			if err := c.ShouldBindJSON(brief); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			run, result, err := state.pipelineService.RunAll(c.Request.Context(), brief)
			if err != nil {
				summary, _ := state.pipelineService.Summary(run.ID)
				c.JSON(http.StatusUnprocessableEntity, gin.H{"run": summary, "result": result})
				return
			}
			c.JSON(http.StatusOK, gin.H{"run_id": run.ID, "result": result})
		})

		// Create a run for stepwise execution.
		pipeline.POST("", func(c *gin.Context) {
			brief := &model.Brief{}
			if err := c.ShouldBindJSON(brief); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			run := state.pipelineService.CreateRun(c.Request.Context(), brief)
			c.JSON(http.StatusCreated, gin.H{"run_id": run.ID})
		})

		pipeline.GET("/:id", func(c *gin.Context) {
			summary, err := state.pipelineService.Summary(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, summary)
		})

		pipeline.POST("/:id/story", phaseHandler(func(id string) (interface{}, error) {
			return state.pipelineService.GenerateStory(id)
		}))

		pipeline.POST("/:id/casting", phaseHandler(func(id string) (interface{}, error) {
			return state.pipelineService.GenerateCasting(id)
		}))

		pipeline.POST("/:id/casting/selection", func(c *gin.Context) {
			req := &selectionRequest{}
			if err := c.ShouldBindJSON(req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out, err := state.pipelineService.ApplySelection(c.Param("id"), req.CharacterID, req.LocationID)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		pipeline.POST("/:id/storyboard", phaseHandler(func(id string) (interface{}, error) {
			return state.pipelineService.BuildStoryboard(id)
		}))

		pipeline.POST("/:id/plan", phaseHandler(func(id string) (interface{}, error) {
			return state.pipelineService.GeneratePlan(id)
		}))

		pipeline.POST("/:id/render", phaseHandler(func(id string) (interface{}, error) {
			return state.pipelineService.RenderSegments(id)
		}))

		pipeline.POST("/:id/assemble", phaseHandler(func(id string) (interface{}, error) {
			return state.pipelineService.Assemble(id)
		}))
	}
}

// phaseHandler wraps a stepwise phase call in the shared HTTP envelope:
// 422 with the error message when the phase refused to run (wrong order,
// invalid input), 200 with the phase output otherwise.
func phaseHandler(run func(id string) (interface{}, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := run(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
