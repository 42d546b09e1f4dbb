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
// holds the video plan structures produced by the fourth phase: the flattened
// list of segments, each bridging one keyframe to the next, including the
// transitions that cross scene boundaries.
package model

// KeyframeRef is the subset of a keyframe a segment needs to carry: enough
// to render the segment without going back to the storyboard.
type KeyframeRef struct {
	ID          string  `json:"id"`
	ImagePath   string  `json:"image_path"`
	Description string  `json:"description"`
	Timing      float64 `json:"timing"`
}

// Segment is one renderable unit of the video: the motion from a start
// keyframe to an end keyframe. The final segment of the plan is
// self-referential, with the same keyframe at both ends.
type Segment struct {
	ID            int          `json:"id"`         // 1-based position in the plan.
	SceneID       int          `json:"scene_id"`   // The scene the start keyframe belongs to.
	Duration      float64      `json:"duration"`   // Planned duration in seconds, floored at 1.0.
	StartTime     float64      `json:"start_time"` // Offset from the start of the video.
	EndTime       float64      `json:"end_time"`
	Description   string       `json:"description"` // "{start description} → {end description}".
	Purpose       string       `json:"purpose"`     // Purpose of the start keyframe's scene.
	Emotion       string       `json:"emotion"`     // Emotion of the start keyframe's scene.
	StartKeyframe *KeyframeRef `json:"start_keyframe"`
	EndKeyframe   *KeyframeRef `json:"end_keyframe"`
}

// VideoPlan is the output of the planning phase.
type VideoPlan struct {
	Story             *StoryContext `json:"story"`
	SelectedCharacter *Character    `json:"selected_character"`
	SelectedLocation  *Location     `json:"selected_location"`
	Segments          []*Segment    `json:"segments"`
	TotalDuration     float64       `json:"total_duration"` // End time of the last segment.
	SegmentCount      int           `json:"segment_count"`  // Always equals len(Segments).
}
