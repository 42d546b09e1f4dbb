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

// Package services_test exercises the PipelineService's stepwise API: the
// path a client takes when it wants to inspect casting candidates and pick
// a character before the pipeline continues.
package services_test

import (
	"context"
	"os"
	"testing"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/services"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
	test "github.com/reelforge/gcp-go-ad-pipeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockService builds a service backed by the mock providers.
func newMockService(t *testing.T) *services.PipelineService {
	t.Helper()
	os.Setenv(providers.EnvImageProvider, providers.ProviderMock)
	os.Setenv(providers.EnvVideoProvider, providers.ProviderMock)

	config := test.GetConfig()
	registry := providers.NewRegistry(config, nil)
	t.Cleanup(func() { _ = os.RemoveAll(config.Output.BaseDir) })
	return services.NewPipelineService(config, registry)
}

// TestStepwiseRun drives a run phase by phase: story, casting, an explicit
// selection, storyboard, plan, render, assembly.
func TestStepwiseRun(t *testing.T) {
	svc := newMockService(t)
	run := svc.CreateRun(context.Background(), test.GetTestBrief())

	story, err := svc.GenerateStory(run.ID)
	require.NoError(t, err)
	require.Len(t, story.Scenes, model.SceneCount)

	castingSet, err := svc.GenerateCasting(run.ID)
	require.NoError(t, err)
	require.Len(t, castingSet.Characters, 4)

	// Pick a non-default pair and check it sticks.
	castingSet, err = svc.ApplySelection(run.ID, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, castingSet.Selection.SelectedCharacterID)
	assert.Equal(t, 3, castingSet.Selection.SelectedLocationID)

	storyboard, err := svc.BuildStoryboard(run.ID)
	require.NoError(t, err)
	selected, selErr := castingSet.SelectedCharacter()
	require.NoError(t, selErr)
	assert.Equal(t, selected.Name, storyboard.SelectedCharacter.Name)

	plan, err := svc.GeneratePlan(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, plan.SegmentCount)

	renderResult, err := svc.RenderSegments(run.ID)
	require.NoError(t, err)
	assert.True(t, renderResult.Success)

	result, err := svc.Assemble(run.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.OutputPath)

	summary, err := svc.Summary(run.ID)
	require.NoError(t, err)
	for phase, done := range summary.Phases {
		assert.True(t, done, "phase %s not complete", phase)
	}
	assert.Empty(t, summary.Errors)
}

// TestPhaseOrderEnforced verifies a phase refuses to run before its
// prerequisite completed.
func TestPhaseOrderEnforced(t *testing.T) {
	svc := newMockService(t)
	run := svc.CreateRun(context.Background(), test.GetTestBrief())

	// Casting requires the story phase.
	_, err := svc.GenerateCasting(run.ID)
	require.Error(t, err)

	// A failed phase is retryable once its prerequisite has run.
	_, err = svc.GenerateStory(run.ID)
	require.NoError(t, err)
	_, err = svc.GenerateCasting(run.ID)
	require.NoError(t, err)
}

// TestSelectionRequiresCasting covers selecting before candidates exist
// and selecting an unknown candidate.
func TestSelectionRequiresCasting(t *testing.T) {
	svc := newMockService(t)
	run := svc.CreateRun(context.Background(), test.GetTestBrief())

	_, err := svc.ApplySelection(run.ID, 1, 1)
	require.Error(t, err)

	_, err = svc.GenerateStory(run.ID)
	require.NoError(t, err)
	_, err = svc.GenerateCasting(run.ID)
	require.NoError(t, err)

	_, err = svc.ApplySelection(run.ID, 99, 1)
	require.Error(t, err)
}

// TestRunAll checks the one-call path produces the same outcome as the
// stepwise path.
func TestRunAll(t *testing.T) {
	svc := newMockService(t)

	run, result, err := svc.RunAll(context.Background(), test.GetTestBrief())
	require.NoError(t, err)
	require.NotNil(t, run)
	require.NotNil(t, result)
	assert.True(t, result.Success)

	_, err = svc.GetRun(run.ID)
	assert.NoError(t, err)
}

// TestGetRunUnknownID checks the not-found error path.
func TestGetRunUnknownID(t *testing.T) {
	svc := newMockService(t)
	_, err := svc.GetRun("no-such-run")
	assert.Error(t, err)
}
