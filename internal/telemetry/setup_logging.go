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

// This file handles the setup of structured logging that is compatible
// with Google Cloud Logging and correlates log lines with OpenTelemetry
// traces, so a failing pipeline phase can be found from either side.
package telemetry

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// LogFileName is the local log file the pipeline writes alongside stdout.
const LogFileName = "pipeline.log"

// spanContextLogHandler is a slog.Handler wrapper that intercepts each log
// record and injects the OpenTelemetry trace and span IDs when the record's
// context carries an active span. Cloud Logging uses these fields to link
// a log line to the trace it was emitted under.
type spanContextLogHandler struct {
	slog.Handler
}

// handlerWithSpanContext wraps the provided base handler with trace-context
// injection.
func handlerWithSpanContext(handler slog.Handler) *spanContextLogHandler {
	return &spanContextLogHandler{Handler: handler}
}

// Handle checks the context for a valid OpenTelemetry SpanContext and, when
// present, adds the trace ID, span ID, and sampled flag using the field names
// Cloud Logging expects for automatic correlation.
func (t *spanContextLogHandler) Handle(ctx context.Context, record slog.Record) error {
	if s := trace.SpanContextFromContext(ctx); s.IsValid() {
		// Field names per the Cloud Logging structured log format.
		// See: https://cloud.google.com/logging/docs/structured-logging#special-payload-fields
		record.AddAttrs(
			slog.Any("logging.googleapis.com/trace", s.TraceID()),
			slog.Any("logging.googleapis.com/spanId", s.SpanID()),
			slog.Bool("logging.googleapis.com/trace_sampled", s.TraceFlags().IsSampled()),
		)
	}
	return t.Handler.Handle(ctx, record)
}

// replacer renames the default slog attribute keys ("level", "time", "msg")
// to the keys Cloud Logging expects ("severity", "timestamp", "message") so
// entries display with the proper severity and timestamp in the console.
func replacer(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		// Cloud Logging uses "WARNING" where slog uses "WARN".
		// https://cloud.google.com/logging/docs/reference/v2/rest/v2/LogEntry#LogSeverity
		if level := a.Value.Any().(slog.Level); level == slog.LevelWarn {
			a.Value = slog.StringValue("WARNING")
		}
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// SetupLogging initializes logging for the whole application, configuring
// both the standard `log` package and `slog`. Output is JSON, written to
// both stdout and a local file, with trace-context injection enabled.
func SetupLogging() {
	// Created if missing, truncated otherwise.
	file, _ := os.Create(LogFileName)
	multiWriter := io.MultiWriter(os.Stdout, file)

	// Route the standard logger through the same writers so legacy log
	// calls from dependencies end up in the file too.
	log.SetOutput(multiWriter)
	log.SetPrefix("[INFO] ")
	log.SetFlags(log.Ldate | log.Ltime)

	jsonHandler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{ReplaceAttr: replacer})
	instrumentedHandler := handlerWithSpanContext(jsonHandler)
	slog.SetDefault(slog.New(instrumentedHandler))
	slog.SetLogLoggerLevel(slog.LevelInfo)
}
