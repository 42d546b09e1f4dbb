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

// Package model_test contains unit tests for the pipeline data models:
// story duration accounting, casting selection resolution, and storyboard
// keyframe counting.
package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
)

func newCastingSet() *model.CastingSet {
	return &model.CastingSet{
		Characters: []*model.Character{
			{ID: 1, Name: "ผู้เชี่ยวชาญ"},
			{ID: 2, Name: "ผู้ใช้จริง"},
		},
		Locations: []*model.Location{
			{ID: 1, Name: "สถานที่ทำงาน"},
			{ID: 2, Name: "สตูดิโอ"},
		},
		Selection: &model.Selection{SelectedCharacterID: 1, SelectedLocationID: 1},
	}
}

func TestStoryTotalDuration(t *testing.T) {
	story := &model.Story{
		Scenes: []*model.Scene{
			{ID: 1, Duration: 3},
			{ID: 2, Duration: 5},
			{ID: 3, Duration: 5},
			{ID: 4, Duration: 4},
		},
	}
	assert.Equal(t, 17.0, story.TotalDuration())

	empty := &model.Story{}
	assert.Equal(t, 0.0, empty.TotalDuration())
}

func TestCastingSetApplySelection(t *testing.T) {
	castingSet := newCastingSet()

	require.NoError(t, castingSet.ApplySelection(2, 1))
	assert.Equal(t, 2, castingSet.Selection.SelectedCharacterID)
	assert.Equal(t, 1, castingSet.Selection.SelectedLocationID)

	character, err := castingSet.SelectedCharacter()
	require.NoError(t, err)
	assert.Equal(t, "ผู้ใช้จริง", character.Name)
}

func TestCastingSetApplySelectionRejectsUnknownIDs(t *testing.T) {
	castingSet := newCastingSet()

	assert.Error(t, castingSet.ApplySelection(99, 1))
	assert.Error(t, castingSet.ApplySelection(1, 99))

	// A rejected selection leaves the previous one in place.
	assert.Equal(t, 1, castingSet.Selection.SelectedCharacterID)
	assert.Equal(t, 1, castingSet.Selection.SelectedLocationID)
}

func TestCastingSetSelectionRequired(t *testing.T) {
	castingSet := newCastingSet()
	castingSet.Selection = nil

	_, err := castingSet.SelectedCharacter()
	assert.Error(t, err)
	_, err = castingSet.SelectedLocation()
	assert.Error(t, err)
}

func TestStoryboardKeyframeCount(t *testing.T) {
	storyboard := &model.Storyboard{
		Scenes: []*model.StoryboardScene{
			{SceneID: 1, Keyframes: []*model.Keyframe{{ID: "scene_1_kf_1"}}},
			{SceneID: 2, Keyframes: []*model.Keyframe{{ID: "scene_2_kf_1"}, {ID: "scene_2_kf_2"}}},
		},
	}
	assert.Equal(t, 3, storyboard.KeyframeCount())

	assert.Equal(t, 0, (&model.Storyboard{}).KeyframeCount())
}

func TestExampleBriefMatchesCanonicalCampaign(t *testing.T) {
	brief := model.GetExampleBrief()
	assert.Equal(t, "ขายคอร์สออนไลน์", brief.Goal)
	assert.Equal(t, "AI Creator Tool", brief.Product)
	assert.Equal(t, 4, brief.NumCandidates)
}
