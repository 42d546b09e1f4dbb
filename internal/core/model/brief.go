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

// Package model defines the core data structures for the pipeline. All of
// these objects live in memory for the duration of a single run; nothing in
// this package is persisted. This file defines the marketing brief that
// starts a run, and the canonical names of the pipeline phases.
package model

// Pipeline phase names, in execution order. Each phase command marks its
// name complete on the run context once its output has validated, and the
// next phase refuses to run until its predecessor's name is present.
const (
	PhaseStory      = "story"
	PhaseCasting    = "casting"
	PhaseStoryboard = "storyboard"
	PhasePlan       = "video_plan"
	PhaseRender     = "render"
	PhaseAssembly   = "assembly"
)

// Brief is the marketing input that seeds a pipeline run. The goal selects
// the story template set; product, audience, and platform are interpolated
// into scene descriptions and render prompts.
type Brief struct {
	Goal          string `json:"goal"`           // Campaign goal, e.g. "ขายคอร์สออนไลน์".
	Product       string `json:"product"`        // Product or service being advertised.
	Audience      string `json:"audience"`       // Target audience description.
	Platform      string `json:"platform"`       // Target platform, e.g. "Facebook Reel".
	NumCandidates int    `json:"num_candidates"` // How many character/location candidates to propose.
}
