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

// The registry resolves provider names to constructed backends.
//
// Logic Flow:
//  1. Read the IMAGE_PROVIDER / VIDEO_PROVIDER / AUDIO_PROVIDER environment
//     variables, falling back to the configured defaults when unset.
//  2. Look the name up in the per-kind factory map. Unknown names log a
//     warning and resolve to the mock backend.
//  3. Run the factory. A factory may fail (missing credentials, for one),
//     in which case the registry logs the failure and falls back to mock.
//
// Every resolution path terminates in a working provider. The registry
// never panics and never returns nil.
package providers

import (
	"log/slog"
	"os"

	"cloud.google.com/go/storage"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/cloud"
)

// Environment variables consulted during resolution.
const (
	EnvImageProvider = "IMAGE_PROVIDER"
	EnvVideoProvider = "VIDEO_PROVIDER"
	EnvAudioProvider = "AUDIO_PROVIDER"
	EnvVertexAPIKey  = "VERTEX_API_KEY"
	EnvVertexProject = "VERTEX_PROJECT_ID"
	EnvVertexRegion  = "VERTEX_LOCATION"

	DefaultVertexLocation = "us-central1"
)

// Well-known provider names accepted by the registry. "auto" resolves to
// the hosted backend when credentials are present and to mock otherwise.
const (
	ProviderMock   = "mock"
	ProviderStub   = "stub"
	ProviderGoogle = "google"
	ProviderVeo    = "veo"
	ProviderAuto   = "auto"
)

// ImageFactory builds an image provider or reports why it cannot.
type ImageFactory func() (ImageProvider, error)

// VideoFactory builds a video provider or reports why it cannot.
type VideoFactory func() (VideoProvider, error)

// AudioFactory builds an audio provider or reports why it cannot.
type AudioFactory func() (AudioProvider, error)

// Registry maps provider names to factories for each media kind.
type Registry struct {
	config  *cloud.Config
	storage *storage.Client

	imageFactories map[string]ImageFactory
	videoFactories map[string]VideoFactory
	audioFactories map[string]AudioFactory
}

// NewRegistry constructs a registry pre-populated with the built-in
// factories. The storage client is optional and only used by the Vertex
// backends to fetch GCS-hosted results.
//
// Inputs:
//  1. config - the application configuration (output dirs, model names, quota)
//  2. storageClient - optional Cloud Storage client, may be nil
//
// Outputs:
//  1. *Registry - the populated registry
func NewRegistry(config *cloud.Config, storageClient *storage.Client) *Registry {
	r := &Registry{
		config:         config,
		storage:        storageClient,
		imageFactories: make(map[string]ImageFactory),
		videoFactories: make(map[string]VideoFactory),
		audioFactories: make(map[string]AudioFactory),
	}

	r.RegisterImage(ProviderMock, func() (ImageProvider, error) {
		return NewMockImageProvider(config.Output.ImagesDir), nil
	})
	r.RegisterImage(ProviderStub, func() (ImageProvider, error) {
		return &StubImageProvider{}, nil
	})
	r.RegisterImage(ProviderGoogle, r.vertexImageFactory)
	r.RegisterImage(ProviderAuto, r.autoImageFactory)

	r.RegisterVideo(ProviderMock, func() (VideoProvider, error) {
		return NewMockVideoProvider(config.Output.SegmentsDir), nil
	})
	r.RegisterVideo(ProviderStub, func() (VideoProvider, error) {
		return &StubVideoProvider{}, nil
	})
	r.RegisterVideo(ProviderVeo, r.vertexVideoFactory)
	r.RegisterVideo(ProviderAuto, r.autoVideoFactory)

	r.RegisterAudio(ProviderMock, func() (AudioProvider, error) {
		return NewMockAudioProvider(config.Output.AudioDir), nil
	})
	r.RegisterAudio(ProviderStub, func() (AudioProvider, error) {
		return &StubAudioProvider{}, nil
	})
	r.RegisterAudio(ProviderAuto, r.autoAudioFactory)

	return r
}

// RegisterImage adds or replaces the image factory registered under name.
func (r *Registry) RegisterImage(name string, factory ImageFactory) {
	r.imageFactories[name] = factory
}

// RegisterVideo adds or replaces the video factory registered under name.
func (r *Registry) RegisterVideo(name string, factory VideoFactory) {
	r.videoFactories[name] = factory
}

// RegisterAudio adds or replaces the audio factory registered under name.
func (r *Registry) RegisterAudio(name string, factory AudioFactory) {
	r.audioFactories[name] = factory
}

// Image resolves the image provider for the current environment.
func (r *Registry) Image() ImageProvider {
	name := envOrDefault(EnvImageProvider, r.config.Providers.Image)
	factory, ok := r.imageFactories[name]
	if !ok {
		slog.Warn("unknown image provider, falling back to mock", "name", name)
		name = ProviderMock
		factory = r.imageFactories[ProviderMock]
	}
	provider, err := factory()
	if err != nil {
		slog.Warn("image provider unavailable, falling back to mock",
			"name", name, "error", err.Error())
		provider, _ = r.imageFactories[ProviderMock]()
	}
	return provider
}

// Video resolves the video provider for the current environment.
func (r *Registry) Video() VideoProvider {
	name := envOrDefault(EnvVideoProvider, r.config.Providers.Video)
	factory, ok := r.videoFactories[name]
	if !ok {
		slog.Warn("unknown video provider, falling back to mock", "name", name)
		name = ProviderMock
		factory = r.videoFactories[ProviderMock]
	}
	provider, err := factory()
	if err != nil {
		slog.Warn("video provider unavailable, falling back to mock",
			"name", name, "error", err.Error())
		provider, _ = r.videoFactories[ProviderMock]()
	}
	return provider
}

// Audio resolves the audio provider for the current environment.
func (r *Registry) Audio() AudioProvider {
	name := envOrDefault(EnvAudioProvider, r.config.Providers.Audio)
	factory, ok := r.audioFactories[name]
	if !ok {
		slog.Warn("unknown audio provider, falling back to mock", "name", name)
		name = ProviderMock
		factory = r.audioFactories[ProviderMock]
	}
	provider, err := factory()
	if err != nil {
		slog.Warn("audio provider unavailable, falling back to mock",
			"name", name, "error", err.Error())
		provider, _ = r.audioFactories[ProviderMock]()
	}
	return provider
}

// vertexConfig assembles the Vertex connection settings from the
// environment and the TOML configuration. It fails when the API key or
// project is missing so the caller can fall back instead of issuing doomed
// requests.
func (r *Registry) vertexConfig(outputDir string) (VertexConfig, error) {
	apiKey := envOrDefault(EnvVertexAPIKey, r.config.Vertex.APIKey)
	if apiKey == "" {
		return VertexConfig{}, NewProviderError("vertex", ErrAuth,
			EnvVertexAPIKey+" is not set", nil)
	}
	project := envOrDefault(EnvVertexProject, r.config.Vertex.ProjectID)
	if project == "" {
		return VertexConfig{}, NewProviderError("vertex", ErrAuth,
			EnvVertexProject+" is not set", nil)
	}
	location := envOrDefault(EnvVertexRegion, r.config.Vertex.Location)
	if location == "" {
		location = DefaultVertexLocation
	}
	return VertexConfig{
		APIKey:    apiKey,
		ProjectID: project,
		Location:  location,
		OutputDir: outputDir,
	}, nil
}

func (r *Registry) vertexImageFactory() (ImageProvider, error) {
	cfg, err := r.vertexConfig(r.config.Output.ImagesDir)
	if err != nil {
		return nil, err
	}
	provider := NewVertexImageProvider(cfg, r.config.Vertex.ImageModel, r.storage)
	return NewQuotaAwareImageProvider(r.config.Vertex.RateLimit, provider), nil
}

func (r *Registry) vertexVideoFactory() (VideoProvider, error) {
	cfg, err := r.vertexConfig(r.config.Output.SegmentsDir)
	if err != nil {
		return nil, err
	}
	provider := NewVertexVideoProvider(cfg, r.config.Vertex.VideoModel, r.storage)
	return NewQuotaAwareVideoProvider(r.config.Vertex.RateLimit, provider), nil
}

// autoImageFactory picks the hosted backend when credentials are present
// and mock otherwise.
func (r *Registry) autoImageFactory() (ImageProvider, error) {
	if provider, err := r.vertexImageFactory(); err == nil {
		return provider, nil
	}
	slog.Info("auto image provider resolved to mock, no hosted credentials")
	return NewMockImageProvider(r.config.Output.ImagesDir), nil
}

// autoVideoFactory picks the hosted backend when credentials are present
// and mock otherwise.
func (r *Registry) autoVideoFactory() (VideoProvider, error) {
	if provider, err := r.vertexVideoFactory(); err == nil {
		return provider, nil
	}
	slog.Info("auto video provider resolved to mock, no hosted credentials")
	return NewMockVideoProvider(r.config.Output.SegmentsDir), nil
}

// autoAudioFactory resolves to mock. There is no hosted audio backend
// yet, so auto keeps the same contract as the other kinds without the
// unknown-name warning.
func (r *Registry) autoAudioFactory() (AudioProvider, error) {
	return NewMockAudioProvider(r.config.Output.AudioDir), nil
}

func envOrDefault(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
