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

// Stub providers fail every request with a fixed diagnostic. They exist to
// exercise the pipeline's failure handling: partial render batches, the
// assembler's retry loop, and the registry's fallback behavior.
package providers

import "context"

// StubImageProvider fails every image request.
type StubImageProvider struct{}

func (p *StubImageProvider) Name() string { return "stub-image" }

func (p *StubImageProvider) GenerateImage(_ context.Context, _ *ImageRequest) (*ImageResult, error) {
	return nil, NewProviderError(p.Name(), ErrGeneration, "stub provider: image generation intentionally unavailable", nil)
}

// StubVideoProvider fails every video request.
type StubVideoProvider struct{}

func (p *StubVideoProvider) Name() string { return "stub-video" }

func (p *StubVideoProvider) GenerateVideo(_ context.Context, _ *VideoRequest) (*VideoResult, error) {
	return nil, NewProviderError(p.Name(), ErrGeneration, "stub provider: video generation intentionally unavailable", nil)
}

// StubAudioProvider fails every audio request.
type StubAudioProvider struct{}

func (p *StubAudioProvider) Name() string { return "stub-audio" }

func (p *StubAudioProvider) GenerateAudio(_ context.Context, _ *AudioRequest) (*AudioResult, error) {
	return nil, NewProviderError(p.Name(), ErrGeneration, "stub provider: audio generation intentionally unavailable", nil)
}
