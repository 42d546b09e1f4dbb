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

// This file implements the assembly phase: rendered segment clips are
// classified, failed ones are optionally re-rendered through a bounded
// retry loop, and the surviving clips are stitched into the final video.
//
// Logic Flow:
//  1. Classify every segment path: a non-empty path whose extension maps to
//     a video type counts as a usable clip.
//  2. While retries remain and failures exist, re-render each failed
//     segment through the injected callback. A round that recovers nothing
//     stops the loop early; retrying a segment that keeps failing the same
//     way would spin without progress.
//  3. Stitch the usable clips into the final output file.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/validate"
)

// DefaultMaxRetries bounds the re-render loop when the configuration does
// not say otherwise.
const DefaultMaxRetries = 3

// RetrySegmentFunc re-renders the segment at the given index of the path
// list and returns the new clip path. Injected by the caller so the
// assembler never depends on a particular rendering backend.
type RetrySegmentFunc func(index int) (string, error)

// MockRetrySegment returns the default re-render callback. It writes a
// placeholder clip named after the failed segment index into outputDir, so
// the retry loop still produces usable paths when no rendering backend is
// attached.
func MockRetrySegment(outputDir string) RetrySegmentFunc {
	return func(index int) (string, error) {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create retry output directory: %w", err)
		}
		timestamp := time.Now().Format("20060102_150405")
		path := filepath.Join(outputDir, fmt.Sprintf("segment_%d_retry_%s.mp4", index, timestamp))
		if err := os.WriteFile(path, []byte(fmt.Sprintf("retried segment %d", index)), 0o644); err != nil {
			return "", fmt.Errorf("failed to write retried segment: %w", err)
		}
		return path, nil
	}
}

// IsVideoPath reports whether a segment path looks like a usable clip: it
// must be non-empty and carry an extension that maps to a video type.
func IsVideoPath(path string) bool {
	if path == "" {
		return false
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	t := filetype.GetType(ext)
	if t == filetype.Unknown {
		return false
	}
	return t.MIME.Type == "video"
}

// StitchSegments joins the clips into the final video file. The actual
// concatenation backend is not wired up yet; the stitch writes a manifest
// of its inputs to the final path so the artifact chain stays inspectable.
// TODO: replace with an ffmpeg concat invocation once segments carry real
// footage.
func StitchSegments(paths []string, outputDir string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	outputPath := filepath.Join(outputDir, fmt.Sprintf("final_video_%s_%s.mp4", timestamp, uuid.New().String()[:8]))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	manifest := strings.Join(paths, "\n")
	if err := os.WriteFile(outputPath, []byte(manifest), 0o644); err != nil {
		return "", fmt.Errorf("failed to write final video: %w", err)
	}
	return outputPath, nil
}

// AssembleVideo classifies the segment paths, retries the failures through
// the callback, and stitches the survivors into the final video.
//
// Inputs:
//  1. segmentPaths - clip paths in segment order; empty entries are failures
//  2. outputDir - directory the final video is written into
//  3. maxRetries - upper bound on re-render rounds; <= 0 disables retries
//  4. retryFn - per-segment re-render callback, may be nil
//
// Outputs:
//  1. *model.AssembleResult - the assembly outcome, never nil
//  2. error - only when there are no segments at all
func AssembleVideo(segmentPaths []string, outputDir string, maxRetries int, retryFn RetrySegmentFunc) (*model.AssembleResult, error) {
	if len(segmentPaths) == 0 {
		return nil, validate.NewValidationError(model.PhaseAssembly, "no segments to assemble")
	}

	paths := make([]string, len(segmentPaths))
	copy(paths, segmentPaths)

	failed := make([]int, 0)
	for idx, path := range paths {
		if !IsVideoPath(path) {
			failed = append(failed, idx)
		}
	}

	retryCount := 0
	for retryCount < maxRetries && len(failed) > 0 && retryFn != nil {
		retryCount++
		recovered := make([]int, 0, len(failed))
		remaining := make([]int, 0, len(failed))

		for _, idx := range failed {
			newPath, err := retryFn(idx)
			if err != nil || !IsVideoPath(newPath) {
				remaining = append(remaining, idx)
				continue
			}
			paths[idx] = newPath
			recovered = append(recovered, idx)
		}
		failed = remaining

		// A whole round without a single recovery means further rounds
		// would repeat the same failures.
		if len(recovered) == 0 {
			break
		}
	}

	valid := make([]string, 0, len(paths))
	for _, path := range paths {
		if IsVideoPath(path) {
			valid = append(valid, path)
		}
	}

	outputPath, err := StitchSegments(valid, outputDir)
	if err != nil {
		return &model.AssembleResult{
			Success:            false,
			FailedSegments:     failed,
			RetryCount:         retryCount,
			TotalSegments:      len(segmentPaths),
			SuccessfulSegments: len(valid),
			Error:              err.Error(),
		}, nil
	}

	return &model.AssembleResult{
		Success:            len(failed) == 0,
		OutputPath:         outputPath,
		FailedSegments:     failed,
		RetryCount:         retryCount,
		TotalSegments:      len(segmentPaths),
		SuccessfulSegments: len(valid),
	}, nil
}

// VideoAssembler is the final pipeline command. It reads the render result
// from the chain context and emits the assembly outcome.
type VideoAssembler struct {
	cor.BaseCommand
	outputDir  string
	maxRetries int
	retryFn    RetrySegmentFunc
}

// NewVideoAssembler creates the assembly phase command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - outputParamName: The context key the *model.AssembleResult is also stored under.
//   - outputDir: Directory the final video is written into.
//   - maxRetries: Upper bound on re-render rounds. Zero disables retries;
//     negative values fall back to DefaultMaxRetries.
//   - retryFn: Per-segment re-render callback, may be nil to disable retries.
//
// Outputs:
//   - *VideoAssembler: A pointer to the newly instantiated command.
func NewVideoAssembler(
	name string,
	outputParamName string,
	outputDir string,
	maxRetries int,
	retryFn RetrySegmentFunc) *VideoAssembler {
	out := &VideoAssembler{
		BaseCommand: *cor.NewBaseCommand(name),
		outputDir:   outputDir,
		maxRetries:  maxRetries,
		retryFn:     retryFn,
	}
	out.OutputParamName = outputParamName
	if out.maxRetries < 0 {
		out.maxRetries = DefaultMaxRetries
	}
	return out
}

// Execute assembles the rendered segments into the final video.
func (a *VideoAssembler) Execute(context cor.Context) {
	renderResult, ok := context.Get(a.GetInputParam()).(*model.RenderResult)
	if !ok {
		a.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(a.GetName(), fmt.Errorf("input %q is not a render result", a.GetInputParam()))
		return
	}
	if err := validate.RequirePhase(context, model.PhaseAssembly, model.PhaseRender); err != nil {
		a.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(a.GetName(), err)
		return
	}

	paths := make([]string, len(renderResult.RenderedSegments))
	for i, seg := range renderResult.RenderedSegments {
		paths[i] = seg.VideoPath
	}

	result, err := AssembleVideo(paths, a.outputDir, a.maxRetries, a.retryFn)
	if err != nil {
		a.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(a.GetName(), err)
		return
	}
	if err := validate.ValidateAssembleResult(result); err != nil {
		a.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(a.GetName(), err)
		return
	}

	if !result.Success {
		slog.WarnContext(context.GetContext(), "assembly completed with failed segments",
			"failed", result.FailedSegments, "retries", result.RetryCount)
	}

	context.MarkPhaseComplete(model.PhaseAssembly)
	if result.Success {
		a.GetSuccessCounter().Add(context.GetContext(), 1)
	} else {
		a.GetErrorCounter().Add(context.GetContext(), 1)
	}
	context.Add(a.GetOutputParam(), result)
	context.Add(cor.CtxOut, result)
}
