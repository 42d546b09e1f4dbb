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

// This file runs the whole six-phase pipeline end to end against the mock
// providers and checks the documented scenario: a four-scene story, four
// casting candidates per slot, seven keyframes, seven segments rendered at
// the fixed clip length, and a successful assembly.
package workflow_test

import (
	"log"
	"testing"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/workflow"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
	test "github.com/reelforge/gcp-go-ad-pipeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

// TestAdPipelineWorkflow drives the full chain for the canonical brief and
// verifies every phase output left in the chain context.
func TestAdPipelineWorkflow(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "ad-pipeline-test")
	defer span.End()

	pipeline := workflow.NewAdPipelineWorkflow(config, registry)

	brief := test.GetTestBrief()
	chainCtx := workflow.NewRunContext(traceContext, brief)
	defer chainCtx.Close()

	assert.True(t, pipeline.IsExecutable(chainCtx))

	pipeline.Execute(chainCtx)

	for _, err := range chainCtx.GetErrors() {
		log.Printf("error in chain: %v", err.Error())
	}
	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed - ad-pipeline-test")
	}
	require.False(t, chainCtx.HasErrors())

	// Phase 1: four-beat story in arc order.
	story, ok := chainCtx.Get(workflow.StoryOutputParamName).(*model.Story)
	require.True(t, ok)
	require.Len(t, story.Scenes, model.SceneCount)
	assert.Equal(t, "hook", story.Scenes[0].Purpose)
	assert.Equal(t, "close", story.Scenes[3].Purpose)
	assert.Equal(t, brief.Goal, story.Goal)

	// Phase 2: candidates per the brief, every one carrying an image URL,
	// with the default selection applied.
	castingSet, ok := chainCtx.Get(workflow.CastingOutputParamName).(*model.CastingSet)
	require.True(t, ok)
	require.Len(t, castingSet.Characters, brief.NumCandidates)
	require.Len(t, castingSet.Locations, brief.NumCandidates)
	for _, char := range castingSet.Characters {
		assert.NotEmpty(t, char.ImageURL)
	}
	require.NotNil(t, castingSet.Selection)

	// Phase 3: keyframes per the duration rule at the canonical durations.
	storyboard, ok := chainCtx.Get(workflow.StoryboardOutputParamName).(*model.Storyboard)
	require.True(t, ok)
	require.Len(t, storyboard.Scenes, model.SceneCount)
	keyframes := 0
	for _, scene := range storyboard.Scenes {
		keyframes += len(scene.Keyframes)
	}
	assert.Equal(t, 7, keyframes)

	// Phase 4: one segment per keyframe, plan totals consistent.
	plan, ok := chainCtx.Get(workflow.PlanOutputParamName).(*model.VideoPlan)
	require.True(t, ok)
	assert.Equal(t, 7, plan.SegmentCount)
	require.Len(t, plan.Segments, 7)
	assert.InDelta(t, plan.Segments[len(plan.Segments)-1].EndTime, plan.TotalDuration, 0.011)

	// Phase 5: every segment rendered at the fixed clip length.
	renderResult, ok := chainCtx.Get(workflow.RenderOutputParamName).(*model.RenderResult)
	require.True(t, ok)
	assert.True(t, renderResult.Success)
	assert.Equal(t, 7, renderResult.TotalSegments)
	assert.Equal(t, renderResult.TotalSegments,
		renderResult.SuccessfulSegments+len(renderResult.FailedSegments))
	for _, seg := range renderResult.RenderedSegments {
		assert.InDelta(t, model.RenderDuration, seg.Duration, 0.011)
		assert.NotEmpty(t, seg.VideoPath)
	}

	// Phase 6: assembly succeeds with a final video path.
	result, ok := chainCtx.Get(workflow.AssemblyOutputParamName).(*model.AssembleResult)
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.OutputPath)
	assert.Equal(t, result.TotalSegments, result.SuccessfulSegments+len(result.FailedSegments))

	span.SetStatus(codes.Ok, "passed - ad-pipeline-test")
}

// TestAdPipelineWorkflowRetriesFailedRenders forces a renderer that fails
// every segment and verifies the assembly phase recovers the run through
// its re-render callback instead of giving up with zero retries.
func TestAdPipelineWorkflowRetriesFailedRenders(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "ad-pipeline-retry-test")
	defer span.End()

	t.Setenv(providers.EnvVideoProvider, providers.ProviderStub)
	stubRegistry := providers.NewRegistry(config, nil)

	pipeline := workflow.NewAdPipelineWorkflow(config, stubRegistry)

	chainCtx := workflow.NewRunContext(traceContext, test.GetTestBrief())
	defer chainCtx.Close()

	pipeline.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())

	// Every render failed, which is data, not a chain error.
	renderResult, ok := chainCtx.Get(workflow.RenderOutputParamName).(*model.RenderResult)
	require.True(t, ok)
	assert.False(t, renderResult.Success)
	assert.Len(t, renderResult.FailedSegments, 7)

	// One retry round replaces every failed clip and the run still ends in
	// a stitched final video.
	result, ok := chainCtx.Get(workflow.AssemblyOutputParamName).(*model.AssembleResult)
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.RetryCount)
	assert.Empty(t, result.FailedSegments)
	assert.Equal(t, 7, result.SuccessfulSegments)
	assert.NotEmpty(t, result.OutputPath)

	span.SetStatus(codes.Ok, "passed - ad-pipeline-retry-test")
}

// TestAdPipelineWorkflowRejectsEmptyBrief verifies the chain stops at the
// story phase when the brief is missing required fields.
func TestAdPipelineWorkflowRejectsEmptyBrief(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "ad-pipeline-empty-brief-test")
	defer span.End()

	pipeline := workflow.NewAdPipelineWorkflow(config, registry)

	chainCtx := workflow.NewRunContext(traceContext, &model.Brief{})
	defer chainCtx.Close()

	pipeline.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(workflow.AssemblyOutputParamName))
	span.SetStatus(codes.Ok, "passed - ad-pipeline-empty-brief-test")
}
