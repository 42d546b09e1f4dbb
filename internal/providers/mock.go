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

// Package providers contains the media generation backends. This file
// implements the mock providers: they always succeed, write small
// placeholder files where a real artifact would land, and cost nothing.
// They are the default backends for development and tests, and the terminal
// fallback of every registry resolution, so the pipeline always has a
// working provider to fall back to.
package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// mockWordsPerMinute is the assumed narration pace used to estimate the
// spoken length of generated voiceover text.
const mockWordsPerMinute = 150.0

// MockImageProvider writes a placeholder image file for every request.
type MockImageProvider struct {
	OutputDir string // Directory placeholder images are written into.
}

// NewMockImageProvider constructs a mock image provider writing into outputDir.
func NewMockImageProvider(outputDir string) *MockImageProvider {
	return &MockImageProvider{OutputDir: outputDir}
}

func (p *MockImageProvider) Name() string { return "mock-image" }

// GenerateImage writes a placeholder file and returns its path. It never fails.
func (p *MockImageProvider) GenerateImage(_ context.Context, req *ImageRequest) (*ImageResult, error) {
	path := filepath.Join(p.OutputDir, fmt.Sprintf("mock_image_%d_%s.png", time.Now().Unix(), shortID()))
	if err := writePlaceholder(path, "mock image: "+req.Prompt); err != nil {
		return nil, NewProviderError(p.Name(), ErrGeneration, "failed to write placeholder image", err)
	}
	return &ImageResult{
		ImagePath: path,
		Metadata:  map[string]string{"provider": p.Name(), "prompt": req.Prompt},
	}, nil
}

// MockVideoProvider writes a placeholder segment file for every request.
type MockVideoProvider struct {
	OutputDir string // Directory placeholder segments are written into.
}

// NewMockVideoProvider constructs a mock video provider writing into outputDir.
func NewMockVideoProvider(outputDir string) *MockVideoProvider {
	return &MockVideoProvider{OutputDir: outputDir}
}

func (p *MockVideoProvider) Name() string { return "mock-video" }

// GenerateVideo writes a placeholder file and echoes the requested duration
// back as the rendered duration. It never fails.
func (p *MockVideoProvider) GenerateVideo(_ context.Context, req *VideoRequest) (*VideoResult, error) {
	path := filepath.Join(p.OutputDir, fmt.Sprintf("mock_segment_%d_%s.mp4", time.Now().Unix(), shortID()))
	if err := writePlaceholder(path, "mock segment: "+req.Prompt); err != nil {
		return nil, NewProviderError(p.Name(), ErrGeneration, "failed to write placeholder segment", err)
	}
	return &VideoResult{
		VideoPath: path,
		Duration:  req.DurationSeconds,
		Metadata:  map[string]string{"provider": p.Name()},
	}, nil
}

// MockAudioProvider writes a placeholder audio file and estimates the
// spoken duration from the word count at a fixed narration pace.
type MockAudioProvider struct {
	OutputDir string // Directory placeholder audio clips are written into.
}

// NewMockAudioProvider constructs a mock audio provider writing into outputDir.
func NewMockAudioProvider(outputDir string) *MockAudioProvider {
	return &MockAudioProvider{OutputDir: outputDir}
}

func (p *MockAudioProvider) Name() string { return "mock-audio" }

// GenerateAudio writes a placeholder file and returns an estimated duration
// of words / pace / speed. It never fails.
func (p *MockAudioProvider) GenerateAudio(_ context.Context, req *AudioRequest) (*AudioResult, error) {
	path := filepath.Join(p.OutputDir, fmt.Sprintf("mock_audio_%d_%s.mp3", time.Now().Unix(), shortID()))
	if err := writePlaceholder(path, "mock audio: "+req.Text); err != nil {
		return nil, NewProviderError(p.Name(), ErrGeneration, "failed to write placeholder audio", err)
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1.0
	}
	words := float64(len(strings.Fields(req.Text)))
	duration := words / mockWordsPerMinute * 60.0 / speed
	return &AudioResult{
		AudioPath: path,
		Duration:  duration,
		Metadata:  map[string]string{"provider": p.Name(), "voice": req.VoiceID},
	}, nil
}

// writePlaceholder creates the parent directory and writes a small text
// stand-in for the artifact a real backend would produce.
func writePlaceholder(path string, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// shortID returns the first 8 characters of a UUID, enough to keep
// concurrently generated filenames from colliding.
func shortID() string {
	return uuid.New().String()[:8]
}
