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

// This file implements the storyboard phase: every scene of the story is
// expanded into one to three keyframes, each with a timing offset, a Thai
// description drawn from purpose-specific template lists and an image
// generation prompt anchored on the selected character and location.
package commands

import (
	"fmt"
	"math"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/validate"
)

// keyframeDescriptions holds three description variants per scene purpose,
// indexed by keyframe position. Each variant appends the scene description.
var keyframeDescriptions = map[string][]string{
	"hook": {
		"เปิดฉากด้วยคำถามที่น่าสนใจ - %s",
		"แสดงความสงสัยและความอยากรู้ - %s",
		"ดึงดูดความสนใจด้วยคำถามชวนคิด - %s",
	},
	"conflict": {
		"แสดงปัญหาและความยากลำบาก - %s",
		"โชว์ความยุ่งยากที่ต้องเผชิญ - %s",
		"สะท้อนความท้าทายและอุปสรรค - %s",
	},
	"reveal": {
		"แนะนำวิธีแก้ปัญหา - %s",
		"เปิดเผยทางออกและแนวทาง - %s",
		"แสดงผลลัพธ์และความสำเร็จ - %s",
	},
	"close": {
		"เชิญชวนให้ดำเนินการ - %s",
		"สรุปและเรียกร้องให้ลงมือทำ - %s",
		"ปิดท้ายด้วยการกระตุ้นให้ลอง - %s",
	},
}

// keyframeDescription picks the description variant for keyframe position
// idx (0-based), clamping the index to the template list and falling back
// to the bare scene description for unknown purposes.
func keyframeDescription(purpose string, idx int, sceneDescription string) string {
	variants, ok := keyframeDescriptions[purpose]
	if !ok {
		return sceneDescription
	}
	if idx >= len(variants) {
		idx = len(variants) - 1
	}
	return fmt.Sprintf(variants[idx], sceneDescription)
}

// round2 rounds to two decimal places, the precision all pipeline timings
// are expressed in.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MapSceneToKeyframes expands one scene into its keyframes. The keyframe
// count follows the scene duration (short scenes get one, medium two, long
// three) and timings are spread evenly across the scene.
//
// Inputs:
//  1. scene - the scene to expand
//  2. character - the selected character, anchors the image prompt
//  3. location - the selected location, anchors the image prompt
//
// Outputs:
//  1. []model.Keyframe - the generated keyframes in timing order
func MapSceneToKeyframes(scene *model.Scene, character *model.Character, location *model.Location) []*model.Keyframe {
	count := validate.KeyframeCountForDuration(scene.Duration)

	keyframes := make([]*model.Keyframe, 0, count)
	for idx := 0; idx < count; idx++ {
		n := idx + 1

		// A single keyframe sits at the scene midpoint; multiple keyframes
		// divide the scene into equal intervals.
		var timing float64
		if count == 1 {
			timing = scene.Duration / 2
		} else {
			timing = scene.Duration / float64(count+1) * float64(n)
		}

		description := keyframeDescription(scene.Purpose, idx, scene.Description)

		prompt := fmt.Sprintf("%s, emotion: %s", description, scene.Emotion)
		if character != nil {
			prompt += fmt.Sprintf(", %s character, %s style", character.Name, character.Style)
		}
		if location != nil {
			prompt += fmt.Sprintf(", %s location, %s style", location.Name, location.Style)
		}

		keyframes = append(keyframes, &model.Keyframe{
			ID:          fmt.Sprintf("scene_%d_kf_%d", scene.ID, n),
			Timing:      round2(timing),
			Description: description,
			ImagePath:   fmt.Sprintf("storyboard/scene_%d/keyframe_%d.jpg", scene.ID, n),
			ImagePrompt: prompt,
		})
	}
	return keyframes
}

// BuildStoryboard expands every scene of the casting set's story into a
// storyboard anchored on the selected character and location.
//
// Inputs:
//  1. castingSet - the casting set carrying the story and the selection
//
// Outputs:
//  1. *model.Storyboard - the storyboard with all scenes expanded
//  2. error - when the selection does not resolve
func BuildStoryboard(castingSet *model.CastingSet) (*model.Storyboard, error) {
	character, err := castingSet.SelectedCharacter()
	if err != nil {
		return nil, err
	}
	location, err := castingSet.SelectedLocation()
	if err != nil {
		return nil, err
	}

	story := castingSet.Story
	scenes := make([]*model.StoryboardScene, 0, len(story.Scenes))
	for _, scene := range story.Scenes {
		scenes = append(scenes, &model.StoryboardScene{
			SceneID:     scene.ID,
			Purpose:     scene.Purpose,
			Emotion:     scene.Emotion,
			Duration:    scene.Duration,
			Description: scene.Description,
			Keyframes:   MapSceneToKeyframes(scene, character, location),
		})
	}

	return &model.Storyboard{
		Story: &model.StoryContext{
			Goal:     story.Goal,
			Product:  story.Product,
			Audience: story.Audience,
			Platform: story.Platform,
		},
		SelectedCharacter: character,
		SelectedLocation:  location,
		Scenes:            scenes,
	}, nil
}

// StoryboardBuilder is the third pipeline command. It reads the casting
// set from the chain context and emits a validated storyboard.
type StoryboardBuilder struct {
	cor.BaseCommand
}

// NewStoryboardBuilder creates the storyboard phase command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - outputParamName: The context key the *model.Storyboard is also stored under.
//
// Outputs:
//   - *StoryboardBuilder: A pointer to the newly instantiated command.
func NewStoryboardBuilder(name string, outputParamName string) *StoryboardBuilder {
	out := &StoryboardBuilder{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return out
}

// Execute expands the story into a storyboard and validates the result.
func (b *StoryboardBuilder) Execute(context cor.Context) {
	castingSet, ok := context.Get(b.GetInputParam()).(*model.CastingSet)
	if !ok {
		b.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(b.GetName(), fmt.Errorf("input %q is not a casting set", b.GetInputParam()))
		return
	}
	if err := validate.RequirePhase(context, model.PhaseStoryboard, model.PhaseCasting); err != nil {
		b.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(b.GetName(), err)
		return
	}

	storyboard, err := BuildStoryboard(castingSet)
	if err != nil {
		b.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(b.GetName(), err)
		return
	}
	if err := validate.ValidateStoryboard(storyboard); err != nil {
		b.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(b.GetName(), err)
		return
	}

	context.MarkPhaseComplete(model.PhaseStoryboard)
	b.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(b.GetOutputParam(), storyboard)
	context.Add(cor.CtxOut, storyboard)
}
