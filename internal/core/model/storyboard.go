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
// holds the storyboard structures produced by the third phase: per-scene
// keyframes with timings, descriptions, and image prompts that lock the
// selected character and location into every frame.
package model

// StoryContext is the subset of the brief carried on storyboard and plan
// outputs so that downstream phases can build prompts without reaching back
// to earlier phase outputs.
type StoryContext struct {
	Goal     string `json:"goal"`
	Product  string `json:"product"`
	Audience string `json:"audience"`
	Platform string `json:"platform"`
}

// Keyframe is a single visual anchor inside a scene.
type Keyframe struct {
	ID          string  `json:"id"`           // "scene_{sceneID}_kf_{n}", n starting at 1.
	Timing      float64 `json:"timing"`       // Offset in seconds from the start of the scene.
	Description string  `json:"description"`  // Thai description of the frame.
	ImagePath   string  `json:"image_path"`   // Planned path of the keyframe still.
	ImagePrompt string  `json:"image_prompt"` // Full prompt including character, location, and emotion.
}

// StoryboardScene is a scene annotated with its keyframes.
type StoryboardScene struct {
	SceneID     int         `json:"scene_id"`
	Purpose     string      `json:"purpose"`
	Emotion     string      `json:"emotion"`
	Duration    float64     `json:"duration"`
	Description string      `json:"description"`
	Keyframes   []*Keyframe `json:"keyframes"`
}

// Storyboard is the output of the storyboard phase.
type Storyboard struct {
	Story             *StoryContext      `json:"story"`
	SelectedCharacter *Character         `json:"selected_character"`
	SelectedLocation  *Location          `json:"selected_location"`
	Scenes            []*StoryboardScene `json:"scenes"`
}

// KeyframeCount returns the total number of keyframes across all scenes.
func (s *Storyboard) KeyframeCount() int {
	n := 0
	for _, scene := range s.Scenes {
		n += len(scene.Keyframes)
	}
	return n
}
