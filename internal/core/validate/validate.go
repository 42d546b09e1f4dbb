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

// Package validate enforces the structural contracts between pipeline
// phases. This file holds one validator per phase output, plus the shared
// rules (scene arc order, keyframe bucketing) the generators and validators
// must agree on.
package validate

import (
	"math"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
)

// timeEpsilon is the tolerance for comparing second offsets that were
// rounded to two decimals when the plan was built.
const timeEpsilon = 0.011

// ScenePurposes is the fixed four-beat arc every story follows, in order.
var ScenePurposes = []string{"hook", "conflict", "reveal", "close"}

// KeyframeCountForDuration returns how many keyframes a scene of the given
// duration gets: short scenes get a single anchor frame, mid-length scenes
// get start and end anchors, and anything longer gets three.
func KeyframeCountForDuration(duration float64) int {
	switch {
	case duration <= 3.0:
		return 1
	case duration <= 5.0:
		return 2
	default:
		return 3
	}
}

// RequirePhase checks that the named predecessor phase has completed on the
// run context. It returns a PhaseOrderError naming both phases when it has
// not.
func RequirePhase(ctx cor.Context, phase string, requires string) error {
	if ctx == nil || !ctx.IsPhaseComplete(requires) {
		return &PhaseOrderError{Phase: phase, Requires: requires}
	}
	return nil
}

// ValidateStory checks the output of the story phase: the brief fields must
// be echoed back, and the scenes must be the complete four-beat arc in
// order, each with an emotion, a description, and a positive duration.
func ValidateStory(s *model.Story) error {
	if s == nil {
		return NewValidationError(model.PhaseStory, "story is nil")
	}
	if s.Goal == "" || s.Product == "" || s.Audience == "" || s.Platform == "" {
		return NewValidationError(model.PhaseStory, "brief fields goal, product, audience, and platform are all required")
	}
	if len(s.Scenes) != model.SceneCount {
		return NewValidationError(model.PhaseStory, "expected %d scenes, got %d", model.SceneCount, len(s.Scenes))
	}
	for i, scene := range s.Scenes {
		if scene == nil {
			return NewValidationError(model.PhaseStory, "scene %d is nil", i+1)
		}
		if scene.ID != i+1 {
			return NewValidationError(model.PhaseStory, "scene at position %d has id %d", i+1, scene.ID)
		}
		if scene.Purpose != ScenePurposes[i] {
			return NewValidationError(model.PhaseStory, "scene %d has purpose %q, expected %q", scene.ID, scene.Purpose, ScenePurposes[i])
		}
		if scene.Emotion == "" {
			return NewValidationError(model.PhaseStory, "scene %d has no emotion", scene.ID)
		}
		if scene.Description == "" {
			return NewValidationError(model.PhaseStory, "scene %d has no description", scene.ID)
		}
		if scene.Duration <= 0 {
			return NewValidationError(model.PhaseStory, "scene %d has non-positive duration %.2f", scene.ID, scene.Duration)
		}
	}
	return nil
}

// ValidateCastingSet checks the output of the casting phase: candidate lists
// must be non-empty with unique sequential ids and complete prompt fields,
// and the selection, when present, must resolve to actual candidates.
func ValidateCastingSet(c *model.CastingSet) error {
	if c == nil {
		return NewValidationError(model.PhaseCasting, "casting set is nil")
	}
	if err := ValidateStory(c.Story); err != nil {
		return NewValidationError(model.PhaseCasting, "carried story is invalid: %v", err)
	}
	if len(c.Characters) == 0 {
		return NewValidationError(model.PhaseCasting, "no character candidates")
	}
	if len(c.Locations) == 0 {
		return NewValidationError(model.PhaseCasting, "no location candidates")
	}
	for i, ch := range c.Characters {
		if ch == nil || ch.ID != i+1 {
			return NewValidationError(model.PhaseCasting, "character candidate at position %d is missing or misnumbered", i+1)
		}
		if ch.Name == "" || ch.Style == "" || ch.ImagePrompt == "" {
			return NewValidationError(model.PhaseCasting, "character %d is missing name, style, or image prompt", ch.ID)
		}
	}
	for i, loc := range c.Locations {
		if loc == nil || loc.ID != i+1 {
			return NewValidationError(model.PhaseCasting, "location candidate at position %d is missing or misnumbered", i+1)
		}
		if loc.Name == "" || loc.Style == "" || loc.ImagePrompt == "" {
			return NewValidationError(model.PhaseCasting, "location %d is missing name, style, or image prompt", loc.ID)
		}
	}
	if c.Selection != nil {
		if _, err := c.SelectedCharacter(); err != nil {
			return NewValidationError(model.PhaseCasting, "selection is invalid: %v", err)
		}
		if _, err := c.SelectedLocation(); err != nil {
			return NewValidationError(model.PhaseCasting, "selection is invalid: %v", err)
		}
	}
	return nil
}

// ValidateStoryboard checks the output of the storyboard phase: a selection
// must be locked in, every scene must carry the keyframe count its duration
// dictates, and every keyframe must be fully described with a timing inside
// its scene.
func ValidateStoryboard(sb *model.Storyboard) error {
	if sb == nil {
		return NewValidationError(model.PhaseStoryboard, "storyboard is nil")
	}
	if sb.Story == nil || sb.Story.Goal == "" || sb.Story.Platform == "" {
		return NewValidationError(model.PhaseStoryboard, "story context is missing")
	}
	if sb.SelectedCharacter == nil || sb.SelectedCharacter.Name == "" {
		return NewValidationError(model.PhaseStoryboard, "no selected character")
	}
	if sb.SelectedLocation == nil || sb.SelectedLocation.Name == "" {
		return NewValidationError(model.PhaseStoryboard, "no selected location")
	}
	if len(sb.Scenes) != model.SceneCount {
		return NewValidationError(model.PhaseStoryboard, "expected %d scenes, got %d", model.SceneCount, len(sb.Scenes))
	}
	for _, scene := range sb.Scenes {
		want := KeyframeCountForDuration(scene.Duration)
		if len(scene.Keyframes) != want {
			return NewValidationError(model.PhaseStoryboard,
				"scene %d (%.1fs) has %d keyframes, expected %d", scene.SceneID, scene.Duration, len(scene.Keyframes), want)
		}
		for _, kf := range scene.Keyframes {
			if kf.ID == "" || kf.ImagePath == "" || kf.Description == "" || kf.ImagePrompt == "" {
				return NewValidationError(model.PhaseStoryboard, "scene %d has an incomplete keyframe", scene.SceneID)
			}
			if kf.Timing <= 0 || kf.Timing >= scene.Duration {
				return NewValidationError(model.PhaseStoryboard,
					"keyframe %s timing %.2f is outside scene duration %.1f", kf.ID, kf.Timing, scene.Duration)
			}
		}
	}
	return nil
}

// ValidateVideoPlan checks the output of the planning phase: segments must
// be sequential and contiguous on the timeline, every duration must respect
// the 1-second floor, the keyframe references must be complete, and the
// declared totals must match the segment list.
func ValidateVideoPlan(p *model.VideoPlan) error {
	if p == nil {
		return NewValidationError(model.PhasePlan, "video plan is nil")
	}
	if len(p.Segments) == 0 {
		return NewValidationError(model.PhasePlan, "plan has no segments")
	}
	if p.SegmentCount != len(p.Segments) {
		return NewValidationError(model.PhasePlan, "segment_count %d does not match %d segments", p.SegmentCount, len(p.Segments))
	}
	cursor := 0.0
	for i, seg := range p.Segments {
		if seg == nil || seg.ID != i+1 {
			return NewValidationError(model.PhasePlan, "segment at position %d is missing or misnumbered", i+1)
		}
		if err := validateKeyframeRef(model.PhasePlan, seg.StartKeyframe); err != nil {
			return err
		}
		if err := validateKeyframeRef(model.PhasePlan, seg.EndKeyframe); err != nil {
			return err
		}
		if seg.Duration < 1.0 {
			return NewValidationError(model.PhasePlan, "segment %d duration %.2f is below the 1s floor", seg.ID, seg.Duration)
		}
		if math.Abs(seg.StartTime-cursor) > timeEpsilon {
			return NewValidationError(model.PhasePlan, "segment %d starts at %.2f, expected %.2f", seg.ID, seg.StartTime, cursor)
		}
		if math.Abs(seg.EndTime-(seg.StartTime+seg.Duration)) > timeEpsilon {
			return NewValidationError(model.PhasePlan, "segment %d end time %.2f does not match start + duration", seg.ID, seg.EndTime)
		}
		cursor = seg.EndTime
	}
	if math.Abs(p.TotalDuration-cursor) > timeEpsilon {
		return NewValidationError(model.PhasePlan, "total_duration %.2f does not match last segment end %.2f", p.TotalDuration, cursor)
	}
	return nil
}

// validateKeyframeRef checks that a segment's keyframe reference carries the
// fields rendering needs. A missing field here is a hard error: defaulting
// it would silently produce an unrelated clip.
func validateKeyframeRef(phase string, ref *model.KeyframeRef) error {
	if ref == nil {
		return NewValidationError(phase, "segment is missing a keyframe reference")
	}
	if ref.ID == "" {
		return NewValidationError(phase, "keyframe reference has no id")
	}
	if ref.ImagePath == "" {
		return NewValidationError(phase, "keyframe %s has no image path", ref.ID)
	}
	if ref.Description == "" {
		return NewValidationError(phase, "keyframe %s has no description", ref.ID)
	}
	return nil
}

// ValidateRenderSegment checks one fully-resolved render request. The
// renderer runs this per segment and records a violation as that segment's
// failure rather than aborting the batch.
func ValidateRenderSegment(rs *model.RenderSegment) error {
	if rs == nil {
		return NewValidationError(model.PhaseRender, "render segment is nil")
	}
	if err := validateKeyframeRef(model.PhaseRender, rs.StartKeyframe); err != nil {
		return err
	}
	if err := validateKeyframeRef(model.PhaseRender, rs.EndKeyframe); err != nil {
		return err
	}
	if rs.Directive == nil || rs.ContinuityLocks == nil || rs.Metadata == nil {
		return NewValidationError(model.PhaseRender, "segment %d is missing directive, continuity locks, or metadata", rs.ID)
	}
	return nil
}

// ValidateRenderResult checks the aggregate outcome of the render phase:
// the success flag, the counts, and the fixed duration of every successful
// segment must all be consistent.
func ValidateRenderResult(r *model.RenderResult) error {
	if r == nil {
		return NewValidationError(model.PhaseRender, "render result is nil")
	}
	if len(r.RenderedSegments) != r.TotalSegments {
		return NewValidationError(model.PhaseRender, "rendered %d segments, expected %d", len(r.RenderedSegments), r.TotalSegments)
	}
	if r.SuccessfulSegments+len(r.FailedSegments) != r.TotalSegments {
		return NewValidationError(model.PhaseRender,
			"successful (%d) + failed (%d) does not equal total (%d)", r.SuccessfulSegments, len(r.FailedSegments), r.TotalSegments)
	}
	if r.Success != (len(r.FailedSegments) == 0) {
		return NewValidationError(model.PhaseRender, "success flag does not match the failed segment list")
	}
	for _, seg := range r.RenderedSegments {
		if !seg.Success {
			continue
		}
		if seg.VideoPath == "" {
			return NewValidationError(model.PhaseRender, "successful segment %d has no video path", seg.SegmentID)
		}
		if seg.Duration != model.RenderDuration {
			return NewValidationError(model.PhaseRender,
				"segment %d rendered at %.1fs, expected %.1fs", seg.SegmentID, seg.Duration, model.RenderDuration)
		}
	}
	return nil
}

// ValidateAssembleResult checks the outcome of the assembly phase.
func ValidateAssembleResult(a *model.AssembleResult) error {
	if a == nil {
		return NewValidationError(model.PhaseAssembly, "assemble result is nil")
	}
	if a.SuccessfulSegments+len(a.FailedSegments) != a.TotalSegments {
		return NewValidationError(model.PhaseAssembly,
			"successful (%d) + failed (%d) does not equal total (%d)", a.SuccessfulSegments, len(a.FailedSegments), a.TotalSegments)
	}
	if a.Success != (len(a.FailedSegments) == 0) {
		return NewValidationError(model.PhaseAssembly, "success flag does not match the failed segment list")
	}
	if a.Success && a.OutputPath == "" {
		return NewValidationError(model.PhaseAssembly, "successful assembly has no output path")
	}
	return nil
}
