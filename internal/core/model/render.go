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
// holds the rendering and assembly structures for the final two phases.
// Segments are rendered one at a time; a segment failure is recorded in the
// batch result and never aborts the remaining segments.
package model

// RenderDuration is the fixed wall-clock length, in seconds, of every
// rendered segment. The generation backend produces fixed-length clips, so
// the plan's own timing is preserved in metadata as OriginalDuration.
const RenderDuration = 8.0

// Directive carries the motion instructions for a segment render.
type Directive struct {
	MotionType      string `json:"motion_type"`      // e.g. "smooth".
	CameraMovement  string `json:"camera_movement"`  // "none" omits the camera clause from the prompt.
	TransitionStyle string `json:"transition_style"` // e.g. "fade".
}

// ContinuityLocks pins the visual identity of a segment to the storyboard's
// selections so consecutive clips cut together cleanly.
type ContinuityLocks struct {
	Character string `json:"character"` // Selected character name.
	Location  string `json:"location"`  // Selected location name.
	Style     string `json:"style"`     // Selected character's style keyword.
	Emotion   string `json:"emotion"`   // Emotion of the segment's scene.
}

// RenderMetadata is the per-segment context preserved through rendering.
type RenderMetadata struct {
	SceneID          int     `json:"scene_id"`
	Purpose          string  `json:"purpose"`
	OriginalDuration float64 `json:"original_duration"` // The plan's duration before the fixed-length override.
}

// RenderSegment is the fully resolved request for rendering one segment.
type RenderSegment struct {
	ID              int              `json:"id"`
	Duration        float64          `json:"duration"` // Always RenderDuration.
	StartKeyframe   *KeyframeRef     `json:"start_keyframe"`
	EndKeyframe     *KeyframeRef     `json:"end_keyframe"`
	Directive       *Directive       `json:"directive"`
	ContinuityLocks *ContinuityLocks `json:"continuity_locks"`
	Metadata        *RenderMetadata  `json:"metadata"`
}

// RenderedSegment is the per-segment outcome of a render call.
type RenderedSegment struct {
	Success   bool            `json:"success"`
	SegmentID int             `json:"segment_id"`
	VideoPath string          `json:"video_path,omitempty"`
	Duration  float64         `json:"duration"` // RenderDuration on success.
	Prompt    string          `json:"prompt,omitempty"`
	Error     string          `json:"error,omitempty"`
	Metadata  *RenderMetadata `json:"metadata,omitempty"`
}

// RenderResult aggregates the outcomes of a whole plan's render pass.
// SuccessfulSegments plus len(FailedSegments) always equals TotalSegments.
type RenderResult struct {
	Success            bool               `json:"success"` // True only when no segment failed.
	TotalSegments      int                `json:"total_segments"`
	SuccessfulSegments int                `json:"successful_segments"`
	FailedSegments     []int              `json:"failed_segments"`
	RenderedSegments   []*RenderedSegment `json:"rendered_segments"`
}

// AssembleResult is the outcome of stitching rendered segments into the
// final video.
type AssembleResult struct {
	Success            bool   `json:"success"`
	OutputPath         string `json:"output_path,omitempty"`
	FailedSegments     []int  `json:"failed_segments"`
	RetryCount         int    `json:"retry_count"`
	TotalSegments      int    `json:"total_segments"`
	SuccessfulSegments int    `json:"successful_segments"`
	Error              string `json:"error,omitempty"`
}
