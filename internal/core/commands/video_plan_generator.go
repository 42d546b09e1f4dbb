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

// This file implements the planning phase: the storyboard's keyframes are
// flattened into a single timeline and paired up into renderable segments.
//
// Logic Flow:
//  1. Flatten every keyframe across all scenes, keeping its scene context.
//  2. Each keyframe becomes the start of one segment whose end is the NEXT
//     flattened keyframe, so segments cross scene boundaries.
//  3. Same-scene segments last `end.timing - start.timing`; cross-scene
//     segments last `scene_duration - start.timing`. The final keyframe
//     pairs with itself and runs to the end of its scene.
//  4. Every duration is floored at 1 second and the timeline accumulates
//     with 2-decimal rounding.
//
// Segment durations here are the plan's own timing; the render phase
// overrides them with the backend's fixed clip length and preserves these
// values in metadata.
package commands

import (
	"fmt"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/validate"
)

// minSegmentDuration is the floor applied to every planned segment.
const minSegmentDuration = 1.0

// flatKeyframe is a keyframe annotated with the context of the scene it
// came from, as produced by the flattening pass.
type flatKeyframe struct {
	keyframe      *model.Keyframe
	sceneID       int
	sceneDuration float64
	scenePurpose  string
	sceneEmotion  string
}

// flattenKeyframes lists every keyframe of the storyboard in scene order,
// carrying the owning scene's context alongside each one.
func flattenKeyframes(sb *model.Storyboard) []flatKeyframe {
	var flat []flatKeyframe
	for _, scene := range sb.Scenes {
		for _, kf := range scene.Keyframes {
			flat = append(flat, flatKeyframe{
				keyframe:      kf,
				sceneID:       scene.SceneID,
				sceneDuration: scene.Duration,
				scenePurpose:  scene.Purpose,
				sceneEmotion:  scene.Emotion,
			})
		}
	}
	return flat
}

// keyframeRef converts a keyframe into the reference a segment carries,
// checking the fields rendering depends on. A missing field is an error:
// defaulting it would let an unrenderable segment through the contract.
func keyframeRef(kf *model.Keyframe, position int) (*model.KeyframeRef, error) {
	if kf.ID == "" {
		return nil, validate.NewValidationError(model.PhasePlan, "keyframe at index %d has no id", position)
	}
	if kf.ImagePath == "" {
		return nil, validate.NewValidationError(model.PhasePlan, "keyframe %s has no image path", kf.ID)
	}
	if kf.Description == "" {
		return nil, validate.NewValidationError(model.PhasePlan, "keyframe %s has no description", kf.ID)
	}
	return &model.KeyframeRef{
		ID:          kf.ID,
		ImagePath:   kf.ImagePath,
		Description: kf.Description,
		Timing:      round2(kf.Timing),
	}, nil
}

// MapStoryboardToSegments builds the segment list for a storyboard.
//
// Inputs:
//  1. sb - the storyboard to plan
//
// Outputs:
//  1. []*model.Segment - the contiguous segment timeline
//  2. error - when a keyframe is missing a contract field
func MapStoryboardToSegments(sb *model.Storyboard) ([]*model.Segment, error) {
	flat := flattenKeyframes(sb)
	if len(flat) == 0 {
		return nil, validate.NewValidationError(model.PhasePlan, "storyboard has no keyframes")
	}

	segments := make([]*model.Segment, 0, len(flat))
	currentTime := 0.0

	for idx, start := range flat {
		startRef, err := keyframeRef(start.keyframe, idx)
		if err != nil {
			return nil, err
		}

		var endRef *model.KeyframeRef
		var duration float64

		if idx < len(flat)-1 {
			next := flat[idx+1]
			endRef, err = keyframeRef(next.keyframe, idx+1)
			if err != nil {
				return nil, err
			}
			if next.sceneID != start.sceneID {
				// The next keyframe opens a new scene, so this segment runs
				// from its start keyframe to the end of the current scene.
				duration = start.sceneDuration - start.keyframe.Timing
			} else {
				duration = next.keyframe.Timing - start.keyframe.Timing
			}
		} else {
			// Final keyframe: the segment is self-referential and runs to
			// the end of its scene.
			endRef = &model.KeyframeRef{
				ID:          startRef.ID,
				ImagePath:   startRef.ImagePath,
				Description: startRef.Description,
				Timing:      round2(start.sceneDuration),
			}
			duration = start.sceneDuration - start.keyframe.Timing
		}

		if duration < minSegmentDuration {
			duration = minSegmentDuration
		}

		segments = append(segments, &model.Segment{
			ID:            idx + 1,
			SceneID:       start.sceneID,
			Duration:      round2(duration),
			StartTime:     round2(currentTime),
			EndTime:       round2(currentTime + duration),
			Description:   fmt.Sprintf("%s → %s", startRef.Description, endRef.Description),
			Purpose:       start.scenePurpose,
			Emotion:       start.sceneEmotion,
			StartKeyframe: startRef,
			EndKeyframe:   endRef,
		})
		currentTime += duration
	}

	return segments, nil
}

// GenerateVideoPlan assembles the full plan from a storyboard: the segment
// timeline plus the carried story context and selections.
func GenerateVideoPlan(sb *model.Storyboard) (*model.VideoPlan, error) {
	segments, err := MapStoryboardToSegments(sb)
	if err != nil {
		return nil, err
	}
	return &model.VideoPlan{
		Story:             sb.Story,
		SelectedCharacter: sb.SelectedCharacter,
		SelectedLocation:  sb.SelectedLocation,
		Segments:          segments,
		TotalDuration:     segments[len(segments)-1].EndTime,
		SegmentCount:      len(segments),
	}, nil
}

// VideoPlanGenerator is the fourth pipeline command. It reads the
// storyboard from the chain context and emits a validated video plan.
type VideoPlanGenerator struct {
	cor.BaseCommand
}

// NewVideoPlanGenerator creates the planning phase command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - outputParamName: The context key the *model.VideoPlan is also stored under.
//
// Outputs:
//   - *VideoPlanGenerator: A pointer to the newly instantiated command.
func NewVideoPlanGenerator(name string, outputParamName string) *VideoPlanGenerator {
	out := &VideoPlanGenerator{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return out
}

// Execute plans the storyboard into segments and validates the result.
func (g *VideoPlanGenerator) Execute(context cor.Context) {
	storyboard, ok := context.Get(g.GetInputParam()).(*model.Storyboard)
	if !ok {
		g.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(g.GetName(), fmt.Errorf("input %q is not a storyboard", g.GetInputParam()))
		return
	}
	if err := validate.RequirePhase(context, model.PhasePlan, model.PhaseStoryboard); err != nil {
		g.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(g.GetName(), err)
		return
	}

	plan, err := GenerateVideoPlan(storyboard)
	if err != nil {
		g.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(g.GetName(), err)
		return
	}
	if err := validate.ValidateVideoPlan(plan); err != nil {
		g.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(g.GetName(), err)
		return
	}

	context.MarkPhaseComplete(model.PhasePlan)
	g.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(g.GetOutputParam(), plan)
	context.Add(cor.CtxOut, plan)
}
