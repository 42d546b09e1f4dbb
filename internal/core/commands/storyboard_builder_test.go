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
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/validate"
)

// testCastingSet builds a casting set the way the casting phase would,
// without going through image generation.
func testCastingSet(t *testing.T) *model.CastingSet {
	t.Helper()
	story := NewStory(testBrief())
	characters := make([]*model.Character, 2)
	for i, tmpl := range characterTemplates[:2] {
		characters[i] = &model.Character{
			ID:          i + 1,
			Name:        tmpl.name,
			Description: tmpl.describe(story),
			Style:       tmpl.style,
			AgeRange:    tmpl.ageRange,
			Personality: tmpl.personality,
			ImagePrompt: CharacterPrompt(tmpl, story.Audience),
			ImageURL:    FallbackImageURL(tmpl.name),
		}
	}
	locations := make([]*model.Location, 2)
	for i, tmpl := range locationTemplates[:2] {
		locations[i] = &model.Location{
			ID:            i + 1,
			Name:          tmpl.name,
			Description:   tmpl.description,
			ScenePurposes: tmpl.scenePurposes,
			Style:         tmpl.style,
			Mood:          tmpl.mood,
			ImagePrompt:   LocationPrompt(tmpl, story.Platform, story.Audience),
			ImageURL:      FallbackImageURL(tmpl.name),
		}
	}
	return &model.CastingSet{
		Story:      story,
		Characters: characters,
		Locations:  locations,
		Selection:  &model.Selection{SelectedCharacterID: 1, SelectedLocationID: 2},
	}
}

func TestMapSceneToKeyframesSingle(t *testing.T) {
	scene := &model.Scene{ID: 1, Purpose: "hook", Emotion: "curious", Duration: 3, Description: "เปิดเรื่อง"}
	keyframes := MapSceneToKeyframes(scene, nil, nil)

	require.Len(t, keyframes, 1)
	kf := keyframes[0]
	assert.Equal(t, "scene_1_kf_1", kf.ID)
	assert.Equal(t, 1.5, kf.Timing)
	assert.Equal(t, "storyboard/scene_1/keyframe_1.jpg", kf.ImagePath)
	assert.True(t, strings.HasSuffix(kf.Description, "เปิดเรื่อง"))
}

func TestMapSceneToKeyframesSpreadsTimings(t *testing.T) {
	scene := &model.Scene{ID: 2, Purpose: "conflict", Emotion: "frustrated", Duration: 5, Description: "ปัญหา"}
	keyframes := MapSceneToKeyframes(scene, nil, nil)

	require.Len(t, keyframes, 2)
	assert.Equal(t, 1.67, keyframes[0].Timing)
	assert.Equal(t, 3.33, keyframes[1].Timing)
	assert.Equal(t, "scene_2_kf_1", keyframes[0].ID)
	assert.Equal(t, "scene_2_kf_2", keyframes[1].ID)

	long := &model.Scene{ID: 3, Purpose: "reveal", Emotion: "relief", Duration: 6, Description: "ทางออก"}
	keyframes = MapSceneToKeyframes(long, nil, nil)
	require.Len(t, keyframes, 3)
	assert.Equal(t, 1.5, keyframes[0].Timing)
	assert.Equal(t, 3.0, keyframes[1].Timing)
	assert.Equal(t, 4.5, keyframes[2].Timing)
}

func TestMapSceneToKeyframesPromptAnchorsSelection(t *testing.T) {
	scene := &model.Scene{ID: 1, Purpose: "hook", Emotion: "curious", Duration: 3, Description: "เปิดเรื่อง"}
	character := &model.Character{Name: "ผู้เชี่ยวชาญ", Style: "professional"}
	location := &model.Location{Name: "สตูดิโอ", Style: "creative studio"}

	keyframes := MapSceneToKeyframes(scene, character, location)
	require.Len(t, keyframes, 1)

	prompt := keyframes[0].ImagePrompt
	assert.Contains(t, prompt, "emotion: curious")
	assert.Contains(t, prompt, "ผู้เชี่ยวชาญ character, professional style")
	assert.Contains(t, prompt, "สตูดิโอ location, creative studio style")
	// Description leads, then emotion, then the casting anchors.
	assert.Less(t, strings.Index(prompt, "emotion:"), strings.Index(prompt, "character"))
	assert.Less(t, strings.Index(prompt, "character"), strings.Index(prompt, "location"))
}

func TestMapSceneToKeyframesUnknownPurpose(t *testing.T) {
	scene := &model.Scene{ID: 9, Purpose: "epilogue", Emotion: "calm", Duration: 3, Description: "บทส่งท้าย"}
	keyframes := MapSceneToKeyframes(scene, nil, nil)
	require.Len(t, keyframes, 1)
	assert.Equal(t, "บทส่งท้าย", keyframes[0].Description)
}

func TestBuildStoryboard(t *testing.T) {
	castingSet := testCastingSet(t)
	storyboard, err := BuildStoryboard(castingSet)
	require.NoError(t, err)

	assert.Equal(t, castingSet.Characters[0], storyboard.SelectedCharacter)
	assert.Equal(t, castingSet.Locations[1], storyboard.SelectedLocation)
	require.Len(t, storyboard.Scenes, 4)
	assert.Equal(t, 7, storyboard.KeyframeCount())

	for i, scene := range storyboard.Scenes {
		src := castingSet.Story.Scenes[i]
		assert.Equal(t, src.ID, scene.SceneID)
		assert.Equal(t, src.Duration, scene.Duration)
		assert.Len(t, scene.Keyframes, validate.KeyframeCountForDuration(src.Duration))
		for _, kf := range scene.Keyframes {
			assert.Contains(t, kf.ImagePrompt, storyboard.SelectedCharacter.Name)
			assert.Contains(t, kf.ImagePrompt, storyboard.SelectedLocation.Name)
		}
	}
	assert.NoError(t, validate.ValidateStoryboard(storyboard))
}

func TestBuildStoryboardRejectsDanglingSelection(t *testing.T) {
	castingSet := testCastingSet(t)
	castingSet.Selection = &model.Selection{SelectedCharacterID: 99, SelectedLocationID: 1}

	_, err := BuildStoryboard(castingSet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("%d", 99))
}

func TestStoryboardBuilderExecute(t *testing.T) {
	cmd := NewStoryboardBuilder("build-storyboard", "__storyboard__")
	chainCtx := newChainContext()
	chainCtx.Add(cor.CtxIn, testCastingSet(t))
	chainCtx.MarkPhaseComplete(model.PhaseStory)
	chainCtx.MarkPhaseComplete(model.PhaseCasting)

	cmd.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assert.True(t, chainCtx.IsPhaseComplete(model.PhaseStoryboard))
	storyboard, ok := chainCtx.Get("__storyboard__").(*model.Storyboard)
	require.True(t, ok)
	assert.Same(t, storyboard, chainCtx.Get(cor.CtxOut))
}

func TestStoryboardBuilderRequiresCastingPhase(t *testing.T) {
	cmd := NewStoryboardBuilder("build-storyboard", "__storyboard__")
	chainCtx := newChainContext()
	chainCtx.Add(cor.CtxIn, testCastingSet(t))

	cmd.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	assert.True(t, validate.IsPhaseOrderError(chainCtx.GetErrors()[cmd.GetName()]))
}
