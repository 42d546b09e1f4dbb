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
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
)

func TestClampCandidateCount(t *testing.T) {
	assert.Equal(t, 4, ClampCandidateCount(0))
	assert.Equal(t, 4, ClampCandidateCount(-3))
	assert.Equal(t, 1, ClampCandidateCount(1))
	assert.Equal(t, 5, ClampCandidateCount(5))
	assert.Equal(t, 5, ClampCandidateCount(12))
}

func TestFallbackImageURL(t *testing.T) {
	first := FallbackImageURL("a confident presenter")
	second := FallbackImageURL("a confident presenter")
	other := FallbackImageURL("a cozy home office")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.True(t, strings.HasPrefix(first, "https://mock-images.google.com/generated/"))
	assert.True(t, strings.HasSuffix(first, ".jpg"))
}

func TestCandidatePrompts(t *testing.T) {
	charPrompt := CharacterPrompt(characterTemplates[0], "มือใหม่ ไม่เก่งเทค")
	assert.Equal(t, "ผู้เชี่ยวชาญ, professional style, age 30-45, confident, knowledgeable, suitable for มือใหม่ ไม่เก่งเทค audience", charPrompt)

	locPrompt := LocationPrompt(locationTemplates[0], "Facebook Reel", "มือใหม่ ไม่เก่งเทค")
	assert.Equal(t, "สถานที่ทำงาน, modern office style, professional, challenging, suitable for Facebook Reel content, มือใหม่ ไม่เก่งเทค audience", locPrompt)
}

// newCastingContext seeds a chain context the way the story phase leaves it.
func newCastingContext(brief *model.Brief) cor.Context {
	chainCtx := newChainContext()
	chainCtx.Add(GetBriefParamName(), brief)
	chainCtx.Add(cor.CtxIn, NewStory(brief))
	chainCtx.MarkPhaseComplete(model.PhaseStory)
	return chainCtx
}

func TestCastingGeneratorExecute(t *testing.T) {
	cmd := NewCastingGenerator("generate-casting", "__casting__",
		providers.NewMockImageProvider(t.TempDir()), 4, 2)
	chainCtx := newCastingContext(testBrief())

	cmd.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assert.True(t, chainCtx.IsPhaseComplete(model.PhaseCasting))

	castingSet, ok := chainCtx.Get("__casting__").(*model.CastingSet)
	require.True(t, ok)
	require.Len(t, castingSet.Characters, 4)
	require.Len(t, castingSet.Locations, 4)

	for i, character := range castingSet.Characters {
		assert.Equal(t, i+1, character.ID)
		assert.NotEmpty(t, character.ImageURL)
		assert.NotEmpty(t, character.ImagePrompt)
	}
	for i, location := range castingSet.Locations {
		assert.Equal(t, i+1, location.ID)
		assert.NotEmpty(t, location.ImageURL)
	}

	// No explicit selection exists at this point, so the defaults apply.
	require.NotNil(t, castingSet.Selection)
	assert.Equal(t, 1, castingSet.Selection.SelectedCharacterID)
	assert.Equal(t, 1, castingSet.Selection.SelectedLocationID)
}

func TestCastingGeneratorBriefOverridesCandidateCount(t *testing.T) {
	brief := testBrief()
	brief.NumCandidates = 2
	cmd := NewCastingGenerator("generate-casting", "__casting__",
		providers.NewMockImageProvider(t.TempDir()), 4, 2)
	chainCtx := newCastingContext(brief)

	cmd.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	castingSet := chainCtx.Get("__casting__").(*model.CastingSet)
	assert.Len(t, castingSet.Characters, 2)
	assert.Len(t, castingSet.Locations, 2)
}

func TestCastingGeneratorFallsBackOnProviderFailure(t *testing.T) {
	cmd := NewCastingGenerator("generate-casting", "__casting__",
		&providers.StubImageProvider{}, 3, 2)
	chainCtx := newCastingContext(testBrief())

	cmd.Execute(chainCtx)

	// A provider failure never fails the phase; every candidate resolves
	// to its deterministic placeholder.
	require.False(t, chainCtx.HasErrors())
	castingSet := chainCtx.Get("__casting__").(*model.CastingSet)
	for _, character := range castingSet.Characters {
		assert.Equal(t, FallbackImageURL(character.ImagePrompt), character.ImageURL)
	}
	for _, location := range castingSet.Locations {
		assert.Equal(t, FallbackImageURL(location.ImagePrompt), location.ImageURL)
	}
}

func TestCastingGeneratorRequiresStoryPhase(t *testing.T) {
	cmd := NewCastingGenerator("generate-casting", "__casting__",
		providers.NewMockImageProvider(t.TempDir()), 4, 1)
	chainCtx := newChainContext()
	chainCtx.Add(cor.CtxIn, NewStory(testBrief()))

	cmd.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	assert.False(t, chainCtx.IsPhaseComplete(model.PhaseCasting))
}
