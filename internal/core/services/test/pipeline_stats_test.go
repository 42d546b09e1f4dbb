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

// This file tests the dashboard statistics: run counts and per-phase
// completion counters across all tracked runs.
package services_test

import (
	"context"
	"testing"

	"github.com/zeebo/assert"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	test "github.com/reelforge/gcp-go-ad-pipeline/internal/testutil"
)

// TestStatsTracksRunsAndPhases creates one run that stops after casting and
// one that completes, then checks the aggregated counters reflect both.
func TestStatsTracksRunsAndPhases(t *testing.T) {
	svc := newMockService(t)

	stats := svc.Stats()
	assert.Equal(t, 0, stats["runs"])

	partial := svc.CreateRun(context.Background(), test.GetTestBrief())
	_, err := svc.GenerateStory(partial.ID)
	assert.NoError(t, err)
	_, err = svc.GenerateCasting(partial.ID)
	assert.NoError(t, err)

	_, result, err := svc.RunAll(context.Background(), test.GetTestBrief())
	assert.NoError(t, err)
	assert.NotNil(t, result)

	stats = svc.Stats()
	assert.Equal(t, 2, stats["runs"])

	phases, ok := stats["phases"].(map[string]int)
	assert.True(t, ok)
	assert.Equal(t, 2, phases[model.PhaseStory])
	assert.Equal(t, 2, phases[model.PhaseCasting])
	assert.Equal(t, 1, phases[model.PhaseStoryboard])
	assert.Equal(t, 1, phases[model.PhaseAssembly])
}
