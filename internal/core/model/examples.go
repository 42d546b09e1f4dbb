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

// Package model defines the data structures for the pipeline. This file,
// `examples.go`, provides factory functions for creating hardcoded, example
// instances of the data models. The example brief mirrors the canonical
// online-course campaign used across the test suite, so tests exercise the
// same goal templates and Thai text the real pipeline produces.
package model

// GetExampleBrief creates the reference marketing brief: a Thai online-course
// campaign aimed at non-technical beginners on Facebook Reels. Tests use it
// as the canonical end-to-end input.
//
// Outputs:
//   - *Brief: A pointer to a hardcoded Brief object.
func GetExampleBrief() *Brief {
	return &Brief{
		Goal:          "ขายคอร์สออนไลน์",
		Product:       "AI Creator Tool",
		Audience:      "มือใหม่ ไม่เก่งเทค",
		Platform:      "Facebook Reel",
		NumCandidates: 4,
	}
}

// GetExampleRenderSegment creates a sample fully-resolved render request.
// It is used by provider and renderer tests that need a valid segment
// without running the earlier phases.
//
// Outputs:
//   - *RenderSegment: A pointer to a hardcoded RenderSegment object.
func GetExampleRenderSegment() *RenderSegment {
	return &RenderSegment{
		ID:       1,
		Duration: RenderDuration,
		StartKeyframe: &KeyframeRef{
			ID:          "scene_1_kf_1",
			ImagePath:   "storyboard/scene_1/keyframe_1.jpg",
			Description: "เปิดฉากด้วยคำถามที่ชวนให้หยุดดู",
			Timing:      1.5,
		},
		EndKeyframe: &KeyframeRef{
			ID:          "scene_2_kf_1",
			ImagePath:   "storyboard/scene_2/keyframe_1.jpg",
			Description: "เผยปัญหาที่กลุ่มเป้าหมายเจอทุกวัน",
			Timing:      1.67,
		},
		Directive: &Directive{
			MotionType:      "smooth",
			CameraMovement:  "none",
			TransitionStyle: "fade",
		},
		ContinuityLocks: &ContinuityLocks{
			Character: "ผู้เชี่ยวชาญ",
			Location:  "สตูดิโอ",
			Style:     "professional",
			Emotion:   "curious",
		},
		Metadata: &RenderMetadata{
			SceneID:          1,
			Purpose:          "hook",
			OriginalDuration: 1.5,
		},
	}
}
