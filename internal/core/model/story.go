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

// Package model defines the core data structures for the pipeline. This file
// holds the story structures produced by the first phase: a fixed four-scene
// arc (hook, conflict, reveal, close) whose descriptions come from
// goal-specific Thai templates.
package model

// SceneCount is the number of scenes every story has. The four-beat arc is
// fixed; templates only vary the wording inside each beat.
const SceneCount = 4

// Scene is a single beat of the story arc.
type Scene struct {
	ID          int     `json:"id"`          // 1-based position in the arc.
	Purpose     string  `json:"purpose"`     // One of "hook", "conflict", "reveal", "close".
	Emotion     string  `json:"emotion"`     // The emotional register of the beat, e.g. "curious".
	Duration    float64 `json:"duration"`    // Planned duration in seconds.
	Description string  `json:"description"` // Thai description rendered from the goal's template.
}

// Story is the output of the story phase: the brief fields echoed back plus
// the four scenes.
type Story struct {
	Goal     string   `json:"goal"`
	Product  string   `json:"product"`
	Audience string   `json:"audience"`
	Platform string   `json:"platform"`
	Scenes   []*Scene `json:"scenes"`
}

// TotalDuration returns the summed planned duration of all scenes in seconds.
func (s *Story) TotalDuration() float64 {
	total := 0.0
	for _, scene := range s.Scenes {
		total += scene.Duration
	}
	return total
}
