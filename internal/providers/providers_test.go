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

package providers

import (
	"context"
	"os"
	"testing"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/cloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockImageProviderWritesPlaceholder(t *testing.T) {
	p := NewMockImageProvider(t.TempDir())

	result, err := p.GenerateImage(context.Background(), &ImageRequest{Prompt: "a studio", AspectRatio: "1:1"})
	require.NoError(t, err)
	require.NotEmpty(t, result.ImagePath)

	content, err := os.ReadFile(result.ImagePath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "a studio")
	assert.Equal(t, "mock-image", result.Metadata["provider"])
}

func TestMockVideoProviderEchoesDuration(t *testing.T) {
	p := NewMockVideoProvider(t.TempDir())

	result, err := p.GenerateVideo(context.Background(), &VideoRequest{Prompt: "pan left", DurationSeconds: 8.0})
	require.NoError(t, err)
	assert.InDelta(t, 8.0, result.Duration, 0.001)
	assert.FileExists(t, result.VideoPath)
}

func TestMockAudioProviderEstimatesDuration(t *testing.T) {
	p := NewMockAudioProvider(t.TempDir())

	// 150 words at the assumed pace is one minute of narration.
	words := make([]byte, 0)
	for i := 0; i < 150; i++ {
		words = append(words, []byte("คอร์ส ")...)
	}
	result, err := p.GenerateAudio(context.Background(), &AudioRequest{Text: string(words), Speed: 1.0})
	require.NoError(t, err)
	assert.InDelta(t, 60.0, result.Duration, 0.001)

	// Doubling the speed halves the spoken length.
	result, err = p.GenerateAudio(context.Background(), &AudioRequest{Text: string(words), Speed: 2.0})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, result.Duration, 0.001)
}

func TestStubProvidersAlwaysFail(t *testing.T) {
	_, err := (&StubImageProvider{}).GenerateImage(context.Background(), &ImageRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, ErrGeneration, KindOf(err))

	_, err = (&StubVideoProvider{}).GenerateVideo(context.Background(), &VideoRequest{Prompt: "x"})
	require.Error(t, err)

	_, err = (&StubAudioProvider{}).GenerateAudio(context.Background(), &AudioRequest{Text: "x"})
	require.Error(t, err)
}

func TestRegistryResolvesEnvOverride(t *testing.T) {
	t.Setenv(EnvImageProvider, ProviderStub)
	t.Setenv(EnvVideoProvider, ProviderMock)

	r := NewRegistry(cloud.NewConfig(), nil)

	assert.Equal(t, "stub-image", r.Image().Name())
	assert.Equal(t, "mock-video", r.Video().Name())
}

func TestRegistryUnknownNameFallsBackToMock(t *testing.T) {
	t.Setenv(EnvImageProvider, "nonsense")
	t.Setenv(EnvVideoProvider, "")
	t.Setenv(EnvAudioProvider, "")

	config := cloud.NewConfig()
	config.Providers.Video = "also-nonsense"

	r := NewRegistry(config, nil)

	assert.Equal(t, "mock-image", r.Image().Name())
	assert.Equal(t, "mock-video", r.Video().Name())
	assert.Equal(t, "mock-audio", r.Audio().Name())
}

func TestRegistryVertexWithoutCredentialsFallsBack(t *testing.T) {
	t.Setenv(EnvImageProvider, ProviderGoogle)
	t.Setenv(EnvVideoProvider, ProviderVeo)
	t.Setenv(EnvVertexAPIKey, "")
	t.Setenv(EnvVertexProject, "")

	config := cloud.NewConfig()
	config.Vertex.APIKey = ""
	config.Vertex.ProjectID = ""

	r := NewRegistry(config, nil)

	// The vertex factories fail fast on missing credentials, and every
	// resolution path terminates in mock.
	assert.Equal(t, "mock-image", r.Image().Name())
	assert.Equal(t, "mock-video", r.Video().Name())
}

func TestRegistryAutoPrefersMockWithoutCredentials(t *testing.T) {
	t.Setenv(EnvImageProvider, ProviderAuto)
	t.Setenv(EnvVideoProvider, ProviderAuto)
	t.Setenv(EnvVertexAPIKey, "")
	t.Setenv(EnvVertexProject, "")

	config := cloud.NewConfig()
	config.Vertex.APIKey = ""
	config.Vertex.ProjectID = ""

	r := NewRegistry(config, nil)

	assert.Equal(t, "mock-image", r.Image().Name())
	assert.Equal(t, "mock-video", r.Video().Name())
}

func TestRegistryAutoAudioResolvesToMock(t *testing.T) {
	t.Setenv(EnvAudioProvider, ProviderAuto)

	r := NewRegistry(cloud.NewConfig(), nil)

	// "auto" is a registered audio name, not an unknown one.
	_, registered := r.audioFactories[ProviderAuto]
	assert.True(t, registered)
	assert.Equal(t, "mock-audio", r.Audio().Name())
}

func TestKindOfClassifiesErrors(t *testing.T) {
	assert.Equal(t, ErrAuth, KindOf(NewProviderError("p", ErrAuth, "denied", nil)))
	assert.Equal(t, ErrQuota, KindOf(NewProviderError("p", ErrQuota, "throttled", nil)))
	assert.Equal(t, ErrGeneration, KindOf(os.ErrNotExist))
}

func TestQuotaAwareProvidersDelegate(t *testing.T) {
	mock := NewMockImageProvider(t.TempDir())
	wrapped := NewQuotaAwareImageProvider(600, mock)

	assert.Equal(t, mock.Name(), wrapped.Name())

	result, err := wrapped.GenerateImage(context.Background(), &ImageRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ImagePath)
}

func TestQuotaAwareProviderHonorsCancellation(t *testing.T) {
	mock := NewMockVideoProvider(t.TempDir())
	// One call per minute with no burst headroom left after the first.
	wrapped := NewQuotaAwareVideoProvider(1, mock)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := wrapped.GenerateVideo(ctx, &VideoRequest{Prompt: "first"})
	require.NoError(t, err)

	cancel()
	_, err = wrapped.GenerateVideo(ctx, &VideoRequest{Prompt: "second"})
	require.Error(t, err)
	assert.Equal(t, ErrTimeout, KindOf(err))
}
