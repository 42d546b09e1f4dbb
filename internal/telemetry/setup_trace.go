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

// Package telemetry provides utilities for setting up and configuring
// application observability, including logging, tracing, and metrics.
// This file initializes the OpenTelemetry SDK and wires its exporters to
// Google Cloud's observability suite, so every pipeline run shows up as a
// trace with one span per phase command and the per-command success/error
// counters land in Cloud Monitoring.
package telemetry

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"go.opentelemetry.io/otel/sdk/metric"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	telemetryexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/cloud"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// SetupOpenTelemetry initializes and configures the OpenTelemetry SDK for
// the application: tracing to Cloud Trace and metrics to Cloud Monitoring.
// It returns a shutdown function that must be called on exit so buffered
// telemetry is flushed before the process terminates.
//
// Inputs:
//   - ctx: The parent context, used for initialization of clients.
//   - config: The application configuration, which provides the Google
//     project ID and the service name attached to all telemetry.
//
// Returns:
//   - shutdown: A function the caller should defer to gracefully shut down
//     the TracerProvider and MeterProvider.
//   - err: An error if any part of the setup fails.
func SetupOpenTelemetry(ctx context.Context, config *cloud.Config) (shutdown func(context.Context) error, err error) {
	// Collect the component shutdown functions so the single returned
	// shutdown tears everything down, joining any errors.
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	// The resource describes this process to the observability backend. The
	// GCP detector fills in infrastructure attributes automatically when the
	// pipeline runs on Google Cloud.
	res, err := resource.New(ctx,
		resource.WithDetectors(gcp.NewDetector()),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.Application.Name),
		),
	)
	if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
		slog.Warn("partial resource detection", "error", err)
	} else if err != nil {
		slog.Error("resource.New failed", "error", err)
		return nil, err
	}

	// Standard propagators (W3C Trace Context, B3) keep trace ids flowing
	// through the HTTP API and the Pub/Sub notifications.
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	// Trace exporter and provider.
	traceExporter, err := telemetryexporter.New(telemetryexporter.WithProjectID(config.Application.GoogleProjectId))
	if err != nil {
		slog.Error("unable to set up trace exporter", "error", err)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	// Metric exporter and provider.
	mExporter, err := mexporter.New(
		mexporter.WithProjectID(config.Application.GoogleProjectId),
	)
	if err != nil {
		log.Printf("Failed to create metric exporter: %v", err)
		return nil, err
	}

	mProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(mExporter)),
		metric.WithResource(res),
	)

	// Register the shared namespace the command counters are created under.
	otel.Meter(cor.MeterNamespace)

	shutdownFuncs = append(shutdownFuncs, mProvider.Shutdown)
	otel.SetMeterProvider(mProvider)

	return shutdown, nil
}
