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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/validate"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
)

func testVideoPlan(t *testing.T) *model.VideoPlan {
	t.Helper()
	plan, err := GenerateVideoPlan(testStoryboard(t))
	require.NoError(t, err)
	return plan
}

func TestBuildRenderSegment(t *testing.T) {
	plan := testVideoPlan(t)
	seg := plan.Segments[0]
	directive := model.Directive{MotionType: "smooth", CameraMovement: "pan", TransitionStyle: "fade"}

	rs := BuildRenderSegment(seg, plan, directive)

	assert.Equal(t, seg.ID, rs.ID)
	// The backend produces fixed-length clips; the plan's own timing
	// survives in the metadata.
	assert.Equal(t, model.RenderDuration, rs.Duration)
	assert.Equal(t, seg.Duration, rs.Metadata.OriginalDuration)
	assert.Equal(t, seg.SceneID, rs.Metadata.SceneID)
	assert.Equal(t, seg.Purpose, rs.Metadata.Purpose)

	assert.Equal(t, plan.SelectedCharacter.Name, rs.ContinuityLocks.Character)
	assert.Equal(t, plan.SelectedCharacter.Style, rs.ContinuityLocks.Style)
	assert.Equal(t, plan.SelectedLocation.Name, rs.ContinuityLocks.Location)
	assert.Equal(t, seg.Emotion, rs.ContinuityLocks.Emotion)
	assert.Equal(t, "pan", rs.Directive.CameraMovement)
}

func TestBuildRenderSegmentWithoutSelection(t *testing.T) {
	plan := testVideoPlan(t)
	plan.SelectedCharacter = nil
	plan.SelectedLocation = nil

	rs := BuildRenderSegment(plan.Segments[0], plan, model.Directive{MotionType: "smooth"})

	assert.Empty(t, rs.ContinuityLocks.Character)
	assert.Empty(t, rs.ContinuityLocks.Location)
	assert.Equal(t, plan.Segments[0].Emotion, rs.ContinuityLocks.Emotion)
}

func TestBuildRenderPromptClauseOrder(t *testing.T) {
	rs := &model.RenderSegment{
		ID:            1,
		Duration:      model.RenderDuration,
		StartKeyframe: &model.KeyframeRef{ID: "a", ImagePath: "a.jpg", Description: "เปิดฉาก", Timing: 1.5},
		EndKeyframe:   &model.KeyframeRef{ID: "b", ImagePath: "b.jpg", Description: "ปัญหา", Timing: 1.67},
		Directive:     &model.Directive{MotionType: "smooth", CameraMovement: "pan", TransitionStyle: "fade"},
		ContinuityLocks: &model.ContinuityLocks{
			Character: "ผู้เชี่ยวชาญ",
			Location:  "สตูดิโอ",
			Style:     "professional",
			Emotion:   "curious",
		},
	}
	story := &model.StoryContext{Product: "AI Creator Tool", Platform: "Facebook Reel"}

	prompt := BuildRenderPrompt(rs, story)
	parts := strings.Split(prompt, " | ")

	expected := []string{
		"Start: เปิดฉาก",
		"End: ปัญหา",
		"Character: ผู้เชี่ยวชาญ",
		"Location: สตูดิโอ",
		"Style: professional",
		"Emotion: curious",
		"Motion: smooth",
		"Camera: pan",
		"Transition: fade",
		"Product context: AI Creator Tool",
		"Platform: Facebook Reel",
		"Duration: 8 seconds",
	}
	assert.Equal(t, expected, parts)
}

func TestBuildRenderPromptFromExampleSegment(t *testing.T) {
	rs := model.GetExampleRenderSegment()
	require.NoError(t, validate.ValidateRenderSegment(rs))

	prompt := BuildRenderPrompt(rs, nil)

	assert.Contains(t, prompt, "Start: "+rs.StartKeyframe.Description)
	assert.Contains(t, prompt, "End: "+rs.EndKeyframe.Description)
	assert.Contains(t, prompt, "Character: "+rs.ContinuityLocks.Character)
	assert.Contains(t, prompt, "Duration: 8 seconds")
	// The example directive leaves the camera static.
	assert.NotContains(t, prompt, "Camera:")
}

func TestBuildRenderPromptOmitsEmptyClauses(t *testing.T) {
	rs := &model.RenderSegment{
		StartKeyframe:   &model.KeyframeRef{Description: "start"},
		EndKeyframe:     &model.KeyframeRef{Description: "end"},
		Directive:       &model.Directive{MotionType: "smooth", CameraMovement: "none", TransitionStyle: "cut"},
		ContinuityLocks: &model.ContinuityLocks{},
	}

	prompt := BuildRenderPrompt(rs, nil)

	assert.NotContains(t, prompt, "Camera:")
	assert.NotContains(t, prompt, "Character:")
	assert.NotContains(t, prompt, "Product context:")
	assert.Contains(t, prompt, "Motion: smooth")
	assert.Contains(t, prompt, "Transition: cut")
}

func TestSegmentRendererExecute(t *testing.T) {
	cmd := NewSegmentRenderer("render-segments", "__render__",
		providers.NewMockVideoProvider(t.TempDir()), model.Directive{})
	chainCtx := newChainContext()
	chainCtx.Add(cor.CtxIn, testVideoPlan(t))
	chainCtx.MarkPhaseComplete(model.PhaseStory)
	chainCtx.MarkPhaseComplete(model.PhaseCasting)
	chainCtx.MarkPhaseComplete(model.PhaseStoryboard)
	chainCtx.MarkPhaseComplete(model.PhasePlan)

	cmd.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assert.True(t, chainCtx.IsPhaseComplete(model.PhaseRender))

	result, ok := chainCtx.Get("__render__").(*model.RenderResult)
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.Equal(t, 7, result.TotalSegments)
	assert.Equal(t, 7, result.SuccessfulSegments)
	assert.Empty(t, result.FailedSegments)
	for _, seg := range result.RenderedSegments {
		assert.True(t, seg.Success)
		assert.NotEmpty(t, seg.VideoPath)
		assert.Equal(t, model.RenderDuration, seg.Duration)
		assert.NotEmpty(t, seg.Prompt)
	}
}

func TestSegmentRendererRecordsFailuresAsData(t *testing.T) {
	cmd := NewSegmentRenderer("render-segments", "__render__",
		&providers.StubVideoProvider{}, model.Directive{})
	chainCtx := newChainContext()
	chainCtx.Add(cor.CtxIn, testVideoPlan(t))
	chainCtx.MarkPhaseComplete(model.PhaseStory)
	chainCtx.MarkPhaseComplete(model.PhaseCasting)
	chainCtx.MarkPhaseComplete(model.PhaseStoryboard)
	chainCtx.MarkPhaseComplete(model.PhasePlan)

	cmd.Execute(chainCtx)

	// A failed batch is still a published result; only the phase counter
	// records the failure.
	assert.False(t, chainCtx.HasErrors())
	assert.True(t, chainCtx.IsPhaseComplete(model.PhaseRender))

	result := chainCtx.Get("__render__").(*model.RenderResult)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.SuccessfulSegments)
	assert.Len(t, result.FailedSegments, 7)
	for _, seg := range result.RenderedSegments {
		assert.False(t, seg.Success)
		assert.NotEmpty(t, seg.Error)
	}
}

func TestSegmentRendererDirectiveDefaults(t *testing.T) {
	cmd := NewSegmentRenderer("render-segments", "__render__",
		providers.NewMockVideoProvider(t.TempDir()), model.Directive{})

	assert.Equal(t, "smooth", cmd.directive.MotionType)
	assert.Equal(t, "none", cmd.directive.CameraMovement)
	assert.Equal(t, "fade", cmd.directive.TransitionStyle)
}

func TestSegmentRendererRequiresPlanPhase(t *testing.T) {
	cmd := NewSegmentRenderer("render-segments", "__render__",
		providers.NewMockVideoProvider(t.TempDir()), model.Directive{})
	chainCtx := newChainContext()
	chainCtx.Add(cor.CtxIn, testVideoPlan(t))

	cmd.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	assert.False(t, chainCtx.IsPhaseComplete(model.PhaseRender))
}
