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

// Shared context parameter names used across commands.
package commands

// briefParamName is the context key the original brief stays available
// under for the whole run, independent of the phase-to-phase piping.
const briefParamName = "__brief__"

// GetBriefParamName returns the context key for the run's brief.
func GetBriefParamName() string {
	return briefParamName
}
