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

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/validate"
)

func testStoryboard(t *testing.T) *model.Storyboard {
	t.Helper()
	storyboard, err := BuildStoryboard(testCastingSet(t))
	require.NoError(t, err)
	return storyboard
}

func TestMapStoryboardToSegments(t *testing.T) {
	segments, err := MapStoryboardToSegments(testStoryboard(t))
	require.NoError(t, err)

	// Scene durations 3, 5, 5 and 4 expand to 1+2+2+2 keyframes, and every
	// keyframe opens exactly one segment.
	require.Len(t, segments, 7)

	for i, seg := range segments {
		assert.Equal(t, i+1, seg.ID)
		assert.GreaterOrEqual(t, seg.Duration, 1.0)
		assert.NotNil(t, seg.StartKeyframe)
		assert.NotNil(t, seg.EndKeyframe)
		assert.Contains(t, seg.Description, " → ")
	}

	// The timeline is contiguous: each segment starts where the previous
	// one ended.
	assert.Equal(t, 0.0, segments[0].StartTime)
	for i := 1; i < len(segments); i++ {
		assert.InDelta(t, segments[i-1].EndTime, segments[i].StartTime, 0.011)
	}
}

func TestMapStoryboardToSegmentsCrossesSceneBoundaries(t *testing.T) {
	segments, err := MapStoryboardToSegments(testStoryboard(t))
	require.NoError(t, err)
	require.Len(t, segments, 7)

	// The first segment starts at scene 1's only keyframe (timing 1.5 of a
	// 3 second scene) and ends at scene 2's first keyframe, so it runs to
	// the end of scene 1.
	first := segments[0]
	assert.Equal(t, 1, first.SceneID)
	assert.Equal(t, "scene_1_kf_1", first.StartKeyframe.ID)
	assert.Equal(t, "scene_2_kf_1", first.EndKeyframe.ID)
	assert.InDelta(t, 1.5, first.Duration, 0.001)

	// A same-scene segment lasts the gap between its two keyframes.
	second := segments[1]
	assert.Equal(t, 2, second.SceneID)
	assert.Equal(t, "scene_2_kf_1", second.StartKeyframe.ID)
	assert.Equal(t, "scene_2_kf_2", second.EndKeyframe.ID)
	assert.InDelta(t, 1.66, second.Duration, 0.011)
}

func TestMapStoryboardToSegmentsFinalSegment(t *testing.T) {
	segments, err := MapStoryboardToSegments(testStoryboard(t))
	require.NoError(t, err)

	last := segments[len(segments)-1]
	assert.Equal(t, 4, last.SceneID)
	// The final keyframe pairs with itself and runs to the end of its scene.
	assert.Equal(t, last.StartKeyframe.ID, last.EndKeyframe.ID)
	assert.Equal(t, 4.0, last.EndKeyframe.Timing)
	assert.InDelta(t, 4.0-2.67, last.Duration, 0.011)
}

func TestMapStoryboardToSegmentsAppliesDurationFloor(t *testing.T) {
	storyboard := testStoryboard(t)
	// Push scene 2's keyframes almost together so their gap drops under a
	// second.
	scene := storyboard.Scenes[1]
	require.Len(t, scene.Keyframes, 2)
	scene.Keyframes[0].Timing = 2.0
	scene.Keyframes[1].Timing = 2.3

	segments, err := MapStoryboardToSegments(storyboard)
	require.NoError(t, err)
	assert.Equal(t, 1.0, segments[1].Duration)
}

func TestMapStoryboardToSegmentsRejectsBrokenKeyframe(t *testing.T) {
	storyboard := testStoryboard(t)
	storyboard.Scenes[0].Keyframes[0].ImagePath = ""

	_, err := MapStoryboardToSegments(storyboard)
	require.Error(t, err)
	assert.True(t, validate.IsValidationError(err))
}

func TestMapStoryboardToSegmentsRejectsEmptyStoryboard(t *testing.T) {
	storyboard := testStoryboard(t)
	storyboard.Scenes = nil

	_, err := MapStoryboardToSegments(storyboard)
	require.Error(t, err)
}

func TestGenerateVideoPlan(t *testing.T) {
	storyboard := testStoryboard(t)
	plan, err := GenerateVideoPlan(storyboard)
	require.NoError(t, err)

	assert.Equal(t, 7, plan.SegmentCount)
	assert.Len(t, plan.Segments, 7)
	assert.Equal(t, storyboard.SelectedCharacter, plan.SelectedCharacter)
	assert.Equal(t, storyboard.SelectedLocation, plan.SelectedLocation)
	assert.Equal(t, plan.Segments[len(plan.Segments)-1].EndTime, plan.TotalDuration)
	assert.NoError(t, validate.ValidateVideoPlan(plan))
}

func TestVideoPlanGeneratorExecute(t *testing.T) {
	cmd := NewVideoPlanGenerator("generate-plan", "__plan__")
	chainCtx := newChainContext()
	chainCtx.Add(cor.CtxIn, testStoryboard(t))
	chainCtx.MarkPhaseComplete(model.PhaseStory)
	chainCtx.MarkPhaseComplete(model.PhaseCasting)
	chainCtx.MarkPhaseComplete(model.PhaseStoryboard)

	cmd.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assert.True(t, chainCtx.IsPhaseComplete(model.PhasePlan))
	plan, ok := chainCtx.Get("__plan__").(*model.VideoPlan)
	require.True(t, ok)
	assert.Same(t, plan, chainCtx.Get(cor.CtxOut))
}

func TestVideoPlanGeneratorRequiresStoryboardPhase(t *testing.T) {
	cmd := NewVideoPlanGenerator("generate-plan", "__plan__")
	chainCtx := newChainContext()
	chainCtx.Add(cor.CtxIn, testStoryboard(t))

	cmd.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	assert.True(t, validate.IsPhaseOrderError(chainCtx.GetErrors()[cmd.GetName()]))
}
