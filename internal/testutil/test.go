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

// Package test provides utility functions and sample data to support the
// application's test suite. It helps in setting up a consistent test
// environment, loading test-specific configuration, and providing a
// canonical marketing brief for workflow tests.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/cloud"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so the TOML files are parsed once per
// test binary instead of once per test.
type StateManager struct {
	config *cloud.Config
}

// state holds the singleton StateManager instance.
var state = &StateManager{}

// HandleErr fails the test when err is not nil. A convenience to cut down
// boilerplate error checks in tests.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestBrief returns the canonical marketing brief used throughout the
// test suite: a Thai online-course campaign targeting non-technical
// beginners on Facebook Reels, with four casting candidates per slot.
//
// Returns:
//   - A pointer to a fully populated model.Brief.
func GetTestBrief() *model.Brief {
	return &model.Brief{
		Goal:          "ขายคอร์สออนไลน์",
		Product:       "AI Creator Tool",
		Audience:      "มือใหม่ ไม่เก่งเทค",
		Platform:      "Facebook Reel",
		NumCandidates: 4,
	}
}

// SetupOS configures the environment variables the configuration loader
// (`cloud.LoadConfig`) depends on, directing it to the test-specific
// configuration files (e.g. `configs/.env.test.toml`).
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	// Directory where the configuration files are located.
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	// The "test" runtime makes the loader apply ".env.test.toml" overrides.
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. The TOML
// files are loaded on first call and cached for the rest of the test run.
//
// Returns:
//   - A pointer to the loaded and cached cloud.Config struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
