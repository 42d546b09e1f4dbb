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

// Package providers contains the media generation backends the pipeline
// calls for images, video segments, and voiceover audio. This file defines
// the three provider interfaces and their request/result structs. A
// provider either returns a successful result or a classified error; it
// never returns a half-populated result.
package providers

import "context"

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"` // e.g. "9:16" for vertical reels.
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Style       string `json:"style"`
	NumImages   int    `json:"num_images"`
}

// ImageResult is the outcome of a successful image generation call. At
// least one of ImageURL or ImagePath is set.
type ImageResult struct {
	ImageURL  string            `json:"image_url,omitempty"`  // Remote URL (mock providers and gcsUri fallbacks).
	ImagePath string            `json:"image_path,omitempty"` // Local file written by the provider.
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// VideoRequest describes one segment render call.
type VideoRequest struct {
	Prompt            string  `json:"prompt"`
	DurationSeconds   float64 `json:"duration_seconds"`
	StartKeyframePath string  `json:"start_keyframe_path"`
	EndKeyframePath   string  `json:"end_keyframe_path"`
	Resolution        string  `json:"resolution"`
	FPS               int     `json:"fps"`
	MotionType        string  `json:"motion_type"`
	CameraMovement    string  `json:"camera_movement"`
}

// VideoResult is the outcome of a successful segment render call.
type VideoResult struct {
	VideoPath string            `json:"video_path"`
	Duration  float64           `json:"duration"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AudioRequest describes one voiceover generation call.
type AudioRequest struct {
	Text      string  `json:"text"`
	VoiceID   string  `json:"voice_id"`
	Language  string  `json:"language"` // e.g. "th-TH".
	Speed     float64 `json:"speed"`    // 1.0 is normal speed.
	Emotion   string  `json:"emotion"`
	AudioType string  `json:"audio_type"` // e.g. "voiceover".
}

// AudioResult is the outcome of a successful voiceover generation call.
type AudioResult struct {
	AudioPath string            `json:"audio_path"`
	Duration  float64           `json:"duration"` // Estimated spoken length in seconds.
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ImageProvider generates still images for casting previews and keyframes.
type ImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error)
}

// VideoProvider renders one video segment between two keyframes.
type VideoProvider interface {
	Name() string
	GenerateVideo(ctx context.Context, req *VideoRequest) (*VideoResult, error)
}

// AudioProvider generates a voiceover clip from text.
type AudioProvider interface {
	Name() string
	GenerateAudio(ctx context.Context, req *AudioRequest) (*AudioResult, error)
}
