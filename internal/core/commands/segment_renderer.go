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

// This file implements the render phase. Segments are rendered strictly one
// at a time: the generation backend produces fixed-length clips, so a long
// video is never requested in a single call. Each plan segment is resolved
// into a full render request (keyframes, motion directive, continuity locks)
// and sent to the video provider with a pipe-delimited prompt. A failed
// segment is recorded in the batch result and the remaining segments still
// render.
package commands

import (
	"fmt"
	"strings"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/validate"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
)

// BuildRenderSegment resolves one plan segment into a render request: the
// fixed clip duration, the motion directive, and the continuity locks taken
// from the plan's selected character and location. The plan's own duration
// is preserved in the request metadata.
func BuildRenderSegment(seg *model.Segment, plan *model.VideoPlan, directive model.Directive) *model.RenderSegment {
	locks := &model.ContinuityLocks{Emotion: seg.Emotion}
	if plan.SelectedCharacter != nil {
		locks.Character = plan.SelectedCharacter.Name
		locks.Style = plan.SelectedCharacter.Style
	}
	if plan.SelectedLocation != nil {
		locks.Location = plan.SelectedLocation.Name
	}
	return &model.RenderSegment{
		ID:            seg.ID,
		Duration:      model.RenderDuration,
		StartKeyframe: seg.StartKeyframe,
		EndKeyframe:   seg.EndKeyframe,
		Directive: &model.Directive{
			MotionType:      directive.MotionType,
			CameraMovement:  directive.CameraMovement,
			TransitionStyle: directive.TransitionStyle,
		},
		ContinuityLocks: locks,
		Metadata: &model.RenderMetadata{
			SceneID:          seg.SceneID,
			Purpose:          seg.Purpose,
			OriginalDuration: seg.Duration,
		},
	}
}

// BuildRenderPrompt renders the pipe-delimited prompt for one segment.
// Clauses with no value are omitted; the camera clause only appears when a
// camera movement was actually requested.
func BuildRenderPrompt(rs *model.RenderSegment, story *model.StoryContext) string {
	parts := []string{
		fmt.Sprintf("Start: %s", rs.StartKeyframe.Description),
		fmt.Sprintf("End: %s", rs.EndKeyframe.Description),
	}

	locks := rs.ContinuityLocks
	if locks.Character != "" {
		parts = append(parts, fmt.Sprintf("Character: %s", locks.Character))
	}
	if locks.Location != "" {
		parts = append(parts, fmt.Sprintf("Location: %s", locks.Location))
	}
	if locks.Style != "" {
		parts = append(parts, fmt.Sprintf("Style: %s", locks.Style))
	}
	if locks.Emotion != "" {
		parts = append(parts, fmt.Sprintf("Emotion: %s", locks.Emotion))
	}

	parts = append(parts, fmt.Sprintf("Motion: %s", rs.Directive.MotionType))
	if rs.Directive.CameraMovement != "none" && rs.Directive.CameraMovement != "" {
		parts = append(parts, fmt.Sprintf("Camera: %s", rs.Directive.CameraMovement))
	}
	parts = append(parts, fmt.Sprintf("Transition: %s", rs.Directive.TransitionStyle))

	if story != nil {
		if story.Product != "" {
			parts = append(parts, fmt.Sprintf("Product context: %s", story.Product))
		}
		if story.Platform != "" {
			parts = append(parts, fmt.Sprintf("Platform: %s", story.Platform))
		}
	}

	parts = append(parts, fmt.Sprintf("Duration: %.0f seconds", model.RenderDuration))
	return strings.Join(parts, " | ")
}

// SegmentRenderer is the fifth pipeline command. It reads the video plan
// from the chain context and emits the aggregated render result.
type SegmentRenderer struct {
	cor.BaseCommand
	videoProvider providers.VideoProvider
	directive     model.Directive
}

// NewSegmentRenderer creates the render phase command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - outputParamName: The context key the *model.RenderResult is also stored under.
//   - videoProvider: The backend producing the segment clips.
//   - directive: The default motion directive applied to every segment.
//
// Outputs:
//   - *SegmentRenderer: A pointer to the newly instantiated command.
func NewSegmentRenderer(
	name string,
	outputParamName string,
	videoProvider providers.VideoProvider,
	directive model.Directive) *SegmentRenderer {
	out := &SegmentRenderer{
		BaseCommand:   *cor.NewBaseCommand(name),
		videoProvider: videoProvider,
		directive:     directive,
	}
	out.OutputParamName = outputParamName
	if out.directive.MotionType == "" {
		out.directive.MotionType = "smooth"
	}
	if out.directive.CameraMovement == "" {
		out.directive.CameraMovement = "none"
	}
	if out.directive.TransitionStyle == "" {
		out.directive.TransitionStyle = "fade"
	}
	return out
}

// RenderSegment renders one fully resolved segment through the provider.
// A validation or provider failure is returned as a failed RenderedSegment,
// never as an error: batch rendering treats failures as data.
func (r *SegmentRenderer) RenderSegment(context cor.Context, rs *model.RenderSegment, story *model.StoryContext) *model.RenderedSegment {
	if err := validate.ValidateRenderSegment(rs); err != nil {
		return &model.RenderedSegment{
			Success:   false,
			SegmentID: rs.ID,
			Duration:  model.RenderDuration,
			Error:     err.Error(),
		}
	}

	prompt := BuildRenderPrompt(rs, story)
	result, err := r.videoProvider.GenerateVideo(context.GetContext(), &providers.VideoRequest{
		Prompt:            prompt,
		DurationSeconds:   model.RenderDuration,
		StartKeyframePath: rs.StartKeyframe.ImagePath,
		EndKeyframePath:   rs.EndKeyframe.ImagePath,
		MotionType:        rs.Directive.MotionType,
		CameraMovement:    rs.Directive.CameraMovement,
	})
	if err != nil {
		return &model.RenderedSegment{
			Success:   false,
			SegmentID: rs.ID,
			Duration:  model.RenderDuration,
			Prompt:    prompt,
			Error:     err.Error(),
			Metadata:  rs.Metadata,
		}
	}

	return &model.RenderedSegment{
		Success:   true,
		SegmentID: rs.ID,
		VideoPath: result.VideoPath,
		Duration:  model.RenderDuration,
		Prompt:    prompt,
		Metadata:  rs.Metadata,
	}
}

// Execute renders every plan segment in order and aggregates the outcomes.
// The result is published even when segments failed; the assembly phase
// decides what to do about the gaps.
func (r *SegmentRenderer) Execute(context cor.Context) {
	plan, ok := context.Get(r.GetInputParam()).(*model.VideoPlan)
	if !ok {
		r.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(r.GetName(), fmt.Errorf("input %q is not a video plan", r.GetInputParam()))
		return
	}
	if err := validate.RequirePhase(context, model.PhaseRender, model.PhasePlan); err != nil {
		r.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(r.GetName(), err)
		return
	}

	rendered := make([]*model.RenderedSegment, 0, len(plan.Segments))
	failed := make([]int, 0)
	successful := 0

	for _, seg := range plan.Segments {
		outcome := r.RenderSegment(context, BuildRenderSegment(seg, plan, r.directive), plan.Story)
		rendered = append(rendered, outcome)
		if outcome.Success {
			successful++
		} else {
			failed = append(failed, seg.ID)
		}
	}

	result := &model.RenderResult{
		Success:            len(failed) == 0,
		TotalSegments:      len(plan.Segments),
		SuccessfulSegments: successful,
		FailedSegments:     failed,
		RenderedSegments:   rendered,
	}
	if err := validate.ValidateRenderResult(result); err != nil {
		r.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(r.GetName(), err)
		return
	}

	context.MarkPhaseComplete(model.PhaseRender)
	if result.Success {
		r.GetSuccessCounter().Add(context.GetContext(), 1)
	} else {
		r.GetErrorCounter().Add(context.GetContext(), 1)
	}
	context.Add(r.GetOutputParam(), result)
	context.Add(cor.CtxOut, result)
}
