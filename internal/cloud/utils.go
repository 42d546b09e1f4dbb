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

// Package cloud provides components for interacting with Google Cloud
// services. This file contains general-purpose utility functions that
// support the cloud package.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Implements a hierarchical configuration loader. It first
//     reads a base configuration file and then overwrites values with a
//     second, environment-specific file (e.g., .env.local.toml,
//     .env.test.toml). The environment is determined by an environment
//     variable.
package cloud

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Cloud Constants define key strings and values used throughout the package,
// primarily for configuration loading and retry policies.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	MaxRetries          = 3                   // The default maximum number of retry rounds for failed operations.
)

// fileExists checks if a file or directory exists at the given path.
//
// Inputs:
//   - in: The path to the file or directory as a string.
//
// Outputs:
//   - bool: Returns true if the file exists, and false if it does not.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It
// first loads a base configuration file and then overwrites its values with
// an environment-specific configuration file. The config directory and the
// runtime environment are determined by environment variables.
//
// Inputs:
//   - baseConfig: An interface{} representing a pointer to the target
//     configuration struct that will be populated from the TOML files.
func LoadConfig(baseConfig interface{}) {
	// Read the directory path for config files from an environment variable.
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	// Ensure the prefix ends with a path separator if it's not empty.
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	// Read the runtime environment (e.g., "local", "test") from an environment
	// variable. Default to "test" if the variable is not set.
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	// Construct the path for the base configuration file (e.g., "configs/.env.toml").
	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	fmt.Printf("Base Configuration File: %s\n", baseConfigFileName)

	// Construct the path for the environment-specific override file (e.g., "configs/.env.test.toml").
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	fmt.Printf("Environment Configuration File: %s\n", envConfigFileName)

	// If the base configuration file exists, decode it into the baseConfig struct.
	if fileExists(baseConfigFileName) {
		_, err := toml.DecodeFile(baseConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	// If the environment-specific configuration file exists, decode it.
	// Any values in this file will overwrite the values from the base config.
	if fileExists(envConfigFileName) {
		_, err := toml.DecodeFile(envConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}
