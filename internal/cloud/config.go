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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, plus the clients for the Google Cloud services the
// pipeline talks to. This file centralizes all configuration-related
// structs.
//
// Structs:
//   - Output: Directory layout for generated artifacts.
//   - ProviderDefaults: Which provider backs each media kind when no
//     environment override is present.
//   - VertexModels: Connection settings for the Vertex AI predict endpoints.
//   - RenderDirective: Default motion directives for segment rendering.
//   - Assembler: Retry policy for the assembly phase.
//   - TopicPublisher: Configuration for a Pub/Sub completion topic.
//   - Config: The top-level struct aggregating all of the above.
//
// Functions:
//   - NewConfig: A constructor that initializes a Config with usable defaults.
package cloud

// Output describes where generated artifacts land on the local filesystem.
// All paths are relative to the process working directory unless absolute.
type Output struct {
	BaseDir     string `toml:"base_dir"`     // Root for all generated output.
	ImagesDir   string `toml:"images_dir"`   // Character/location previews and keyframe stills.
	SegmentsDir string `toml:"segments_dir"` // Rendered video segments.
	AudioDir    string `toml:"audio_dir"`    // Generated voiceover clips.
	FinalDir    string `toml:"final_dir"`    // Assembled final videos.
}

// ProviderDefaults names the provider backing each media kind when the
// corresponding environment variable is unset. Valid values are the names
// registered with the provider registry ("mock", "stub", "google", "veo",
// "auto").
type ProviderDefaults struct {
	Image string `toml:"image"`
	Video string `toml:"video"`
	Audio string `toml:"audio"`
}

// VertexModels holds connection settings for the Vertex AI predict
// endpoints. The API key and project may also arrive via environment
// variables, which take precedence over these values.
type VertexModels struct {
	APIKey     string `toml:"api_key"`
	ProjectID  string `toml:"project_id"`
	Location   string `toml:"location"`    // Defaults to us-central1 when empty.
	ImageModel string `toml:"image_model"` // e.g. "imagen-3.0-generate-001".
	VideoModel string `toml:"video_model"` // e.g. "veo-2.0-generate-001".
	RateLimit  int    `toml:"rate_limit"`  // Max predict calls per minute.
}

// RenderDirective is the default motion directive applied to every segment
// render. A camera movement of "none" omits the camera clause from the
// generation prompt.
type RenderDirective struct {
	MotionType      string `toml:"motion_type"`
	CameraMovement  string `toml:"camera_movement"`
	TransitionStyle string `toml:"transition_style"`
}

// Assembler holds the retry policy for re-rendering failed segments during
// assembly.
type Assembler struct {
	MaxRetries int `toml:"max_retries"`
}

// TopicPublisher represents the configuration for a Pub/Sub topic the
// pipeline publishes run-completion events to.
type TopicPublisher struct {
	Name             string `toml:"name"`               // The Pub/Sub topic ID.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Publish confirmation timeout.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other
// configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
		ThreadPoolSize  int    `toml:"thread_pool_size"`  // Worker pool size for parallel candidate image generation.
		// BriefSubscription names a Pub/Sub subscription to pull briefs
		// from. When empty the listener is not started.
		BriefSubscription string `toml:"brief_subscription"`
	} `toml:"application"`
	Output             Output                    `toml:"output"`              // Artifact directory layout.
	Providers          ProviderDefaults          `toml:"providers"`           // Default provider per media kind.
	Vertex             VertexModels              `toml:"vertex"`              // Vertex AI predict endpoint settings.
	Render             RenderDirective           `toml:"render"`              // Default segment render directive.
	Assembler          Assembler                 `toml:"assembler"`           // Assembly retry policy.
	TopicNotifications map[string]TopicPublisher `toml:"topic_notifications"` // Completion topics, keyed by a logical name.
}

// NewConfig is a constructor function that creates a new Config instance
// with usable defaults. Values loaded from the TOML files overwrite these,
// so a missing config file still yields a runnable mock-backed pipeline.
//
// Outputs:
//   - *Config: A pointer to a new Config struct.
func NewConfig() *Config {
	c := &Config{
		TopicNotifications: make(map[string]TopicPublisher),
	}
	c.Application.Name = "ad-pipeline"
	c.Application.ThreadPoolSize = 4
	c.Output = Output{
		BaseDir:     "output",
		ImagesDir:   "output/images",
		SegmentsDir: "output/segments",
		AudioDir:    "output/audio",
		FinalDir:    "output",
	}
	c.Providers = ProviderDefaults{Image: "mock", Video: "mock", Audio: "mock"}
	c.Vertex = VertexModels{
		Location:   "us-central1",
		ImageModel: "imagen-3.0-generate-001",
		VideoModel: "veo-2.0-generate-001",
		RateLimit:  60,
	}
	c.Render = RenderDirective{MotionType: "smooth", CameraMovement: "none", TransitionStyle: "fade"}
	c.Assembler = Assembler{MaxRetries: MaxRetries}
	return c
}
