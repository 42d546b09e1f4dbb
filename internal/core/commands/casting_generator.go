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

// This file implements the casting phase: character and location candidates
// are generated from fixed template tables and a candidate image is produced
// for each one.
//
// Logic Flow:
//  1. Take the story produced by the previous phase from the context.
//  2. Slice the first N entries of the character and location template
//     tables, where N is the clamped candidate count.
//  3. **Worker Pool Pattern**: candidate images are independent of one
//     another, so they are generated concurrently. A `jobs` channel feeds
//     image prompts to a configurable number of worker goroutines and a
//     `results` channel carries the image references back.
//  4. A provider failure never fails the phase: the candidate falls back
//     to a deterministic placeholder URL derived from its prompt.
//  5. Apply the default selection (the first candidate of each list) and
//     publish the validated casting set.
package commands

import (
	goctx "context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/validate"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
)

// maxCandidates is the size of the template tables and therefore the upper
// bound on the candidate count.
const maxCandidates = 5

// defaultCandidates is used when the brief does not specify a count.
const defaultCandidates = 4

// characterTemplate is one row of the fixed character table. The
// description interpolates the brief fields at generation time.
type characterTemplate struct {
	name        string
	describe    func(s *model.Story) string
	style       string
	ageRange    string
	personality string
}

var characterTemplates = []characterTemplate{
	{
		name: "ผู้เชี่ยวชาญ",
		describe: func(s *model.Story) string {
			return fmt.Sprintf("ผู้เชี่ยวชาญที่เข้าใจปัญหาและแนะนำ%s", s.Product)
		},
		style:       "professional",
		ageRange:    "30-45",
		personality: "confident, knowledgeable",
	},
	{
		name: "ผู้ใช้จริง",
		describe: func(s *model.Story) string {
			return fmt.Sprintf("ตัวแทนของ%sที่ประสบความสำเร็จด้วย%s", s.Audience, s.Product)
		},
		style:       "relatable",
		ageRange:    "25-40",
		personality: "friendly, authentic",
	},
	{
		name: "ผู้เริ่มต้น",
		describe: func(s *model.Story) string {
			return fmt.Sprintf("คนที่เพิ่งเริ่มต้นและกำลังเรียนรู้เกี่ยวกับ%s", s.Product)
		},
		style:       "approachable",
		ageRange:    "20-35",
		personality: "curious, eager",
	},
	{
		name: "ผู้สร้างคอนเทนต์",
		describe: func(s *model.Story) string {
			return fmt.Sprintf("ผู้สร้างคอนเทนต์ที่ใช้%sบน%s", s.Product, s.Platform)
		},
		style:       "creative",
		ageRange:    "22-38",
		personality: "innovative, energetic",
	},
	{
		name: "ผู้สอน",
		describe: func(s *model.Story) string {
			return fmt.Sprintf("ผู้สอนที่ช่วยให้%sเข้าใจ%s", s.Audience, s.Product)
		},
		style:       "educational",
		ageRange:    "28-42",
		personality: "patient, clear",
	},
}

// locationTemplate is one row of the fixed location table.
type locationTemplate struct {
	name          string
	description   string
	scenePurposes []string
	style         string
	mood          string
}

var locationTemplates = []locationTemplate{
	{
		name:          "สถานที่ทำงาน",
		description:   "สถานที่ทำงานที่สะท้อนปัญหาและความท้าทาย",
		scenePurposes: []string{"hook", "conflict"},
		style:         "modern office",
		mood:          "professional, challenging",
	},
	{
		name:          "บ้าน/พื้นที่ส่วนตัว",
		description:   "พื้นที่ส่วนตัวที่สะท้อนความสะดวกสบายและความเป็นส่วนตัว",
		scenePurposes: []string{"reveal", "close"},
		style:         "cozy home",
		mood:          "comfortable, personal",
	},
	{
		name:          "สตูดิโอ",
		description:   "สตูดิโอสำหรับสร้างคอนเทนต์และทำงานสร้างสรรค์",
		scenePurposes: []string{"reveal", "close"},
		style:         "creative studio",
		mood:          "creative, inspiring",
	},
	{
		name:          "พื้นที่สาธารณะ",
		description:   "พื้นที่สาธารณะที่สะท้อนการใช้งานจริง",
		scenePurposes: []string{"hook", "conflict", "reveal"},
		style:         "public space",
		mood:          "realistic, relatable",
	},
	{
		name:          "พื้นที่ดิจิทัล",
		description:   "พื้นหลังที่แสดงผลลัพธ์บนแพลตฟอร์มดิจิทัล",
		scenePurposes: []string{"reveal", "close"},
		style:         "digital interface",
		mood:          "modern, tech-forward",
	},
}

// FallbackImageURL builds the deterministic placeholder reference used when
// the image provider cannot deliver a candidate image. The id is derived
// from the prompt so the same prompt always maps to the same URL.
func FallbackImageURL(prompt string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	return fmt.Sprintf("https://mock-images.google.com/generated/%d.jpg", h.Sum32()%1000000)
}

// ClampCandidateCount bounds the requested candidate count by the template
// table size. Zero and negative values resolve to the default.
func ClampCandidateCount(n int) int {
	if n <= 0 {
		return defaultCandidates
	}
	if n > maxCandidates {
		return maxCandidates
	}
	return n
}

// CharacterPrompt renders the image generation prompt for a character.
func CharacterPrompt(tmpl characterTemplate, audience string) string {
	return fmt.Sprintf("%s, %s style, age %s, %s, suitable for %s audience",
		tmpl.name, tmpl.style, tmpl.ageRange, tmpl.personality, audience)
}

// LocationPrompt renders the image generation prompt for a location.
func LocationPrompt(tmpl locationTemplate, platform string, audience string) string {
	return fmt.Sprintf("%s, %s style, %s, suitable for %s content, %s audience",
		tmpl.name, tmpl.style, tmpl.mood, platform, audience)
}

// CastingGenerator is the second pipeline command. It reads the story from
// the chain context and emits a validated casting set with candidate images.
type CastingGenerator struct {
	cor.BaseCommand
	imageProvider   providers.ImageProvider
	numCandidates   int
	numberOfWorkers int
}

// NewCastingGenerator creates the casting phase command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - outputParamName: The context key the *model.CastingSet is also stored under.
//   - imageProvider: The backend used to generate candidate images.
//   - numCandidates: How many candidates of each kind to generate (clamped).
//   - numberOfWorkers: The size of the worker pool for image generation.
//
// Outputs:
//   - *CastingGenerator: A pointer to the newly instantiated command.
func NewCastingGenerator(
	name string,
	outputParamName string,
	imageProvider providers.ImageProvider,
	numCandidates int,
	numberOfWorkers int) *CastingGenerator {
	out := &CastingGenerator{
		BaseCommand:     *cor.NewBaseCommand(name),
		imageProvider:   imageProvider,
		numCandidates:   ClampCandidateCount(numCandidates),
		numberOfWorkers: numberOfWorkers,
	}
	out.OutputParamName = outputParamName
	if out.numberOfWorkers < 1 {
		out.numberOfWorkers = 1
	}
	return out
}

// imageJob asks a worker to generate one candidate image.
type imageJob struct {
	slot   int // Index into the shared results slice.
	prompt string
}

// imageResult carries the image reference for one candidate back from a worker.
type imageResult struct {
	slot     int
	imageURL string
}

// Execute generates the candidate lists, fans image generation out to the
// worker pool, applies the default selection and validates the result.
func (c *CastingGenerator) Execute(context cor.Context) {
	story, ok := context.Get(c.GetInputParam()).(*model.Story)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("input %q is not a story", c.GetInputParam()))
		return
	}
	if err := validate.RequirePhase(context, model.PhaseCasting, model.PhaseStory); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	// The brief's candidate count, when present, overrides the configured
	// default for this run.
	numCandidates := c.numCandidates
	if brief, ok := context.Get(GetBriefParamName()).(*model.Brief); ok && brief.NumCandidates > 0 {
		numCandidates = ClampCandidateCount(brief.NumCandidates)
	}

	characters := make([]*model.Character, numCandidates)
	for i, tmpl := range characterTemplates[:numCandidates] {
		characters[i] = &model.Character{
			ID:          i + 1,
			Name:        tmpl.name,
			Description: tmpl.describe(story),
			Style:       tmpl.style,
			AgeRange:    tmpl.ageRange,
			Personality: tmpl.personality,
			ImagePrompt: CharacterPrompt(tmpl, story.Audience),
		}
	}

	locations := make([]*model.Location, numCandidates)
	for i, tmpl := range locationTemplates[:numCandidates] {
		locations[i] = &model.Location{
			ID:            i + 1,
			Name:          tmpl.name,
			Description:   tmpl.description,
			ScenePurposes: tmpl.scenePurposes,
			Style:         tmpl.style,
			Mood:          tmpl.mood,
			ImagePrompt:   LocationPrompt(tmpl, story.Platform, story.Audience),
		}
	}

	// Generate all candidate images through the worker pool. Character
	// slots occupy [0,n), location slots [n,2n).
	urls := c.generateImages(context.GetContext(), characters, locations)
	for i := range characters {
		characters[i].ImageURL = urls[i]
	}
	for i := range locations {
		locations[i].ImageURL = urls[len(characters)+i]
	}

	// No explicit selection exists yet at this point in the pipeline, so
	// default to the first candidate of each list.
	slog.WarnContext(context.GetContext(), "no casting selection provided, defaulting to first candidates",
		"character_id", 1, "location_id", 1)

	castingSet := &model.CastingSet{
		Story:      story,
		Characters: characters,
		Locations:  locations,
		Selection: &model.Selection{
			SelectedCharacterID: 1,
			SelectedLocationID:  1,
		},
	}
	if err := validate.ValidateCastingSet(castingSet); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	context.MarkPhaseComplete(model.PhaseCasting)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), castingSet)
	context.Add(cor.CtxOut, castingSet)
}

// generateImages runs one image generation job per candidate through the
// worker pool and returns the image references indexed by slot. Failed
// generations resolve to the deterministic fallback URL.
func (c *CastingGenerator) generateImages(ctx goctx.Context, characters []*model.Character, locations []*model.Location) []string {
	total := len(characters) + len(locations)
	jobs := make(chan imageJob, total)
	results := make(chan imageResult, total)

	var wg sync.WaitGroup
	for w := 0; w < c.numberOfWorkers; w++ {
		wg.Add(1)
		go c.imageWorker(ctx, jobs, results, &wg)
	}

	for i, character := range characters {
		jobs <- imageJob{slot: i, prompt: character.ImagePrompt}
	}
	for i, location := range locations {
		jobs <- imageJob{slot: len(characters) + i, prompt: location.ImagePrompt}
	}
	close(jobs)

	wg.Wait()
	close(results)

	urls := make([]string, total)
	for r := range results {
		urls[r.slot] = r.imageURL
	}
	return urls
}

// imageWorker processes image jobs until the jobs channel is drained.
func (c *CastingGenerator) imageWorker(ctx goctx.Context, jobs <-chan imageJob, results chan<- imageResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		result, err := c.imageProvider.GenerateImage(ctx, &providers.ImageRequest{
			Prompt:      j.prompt,
			AspectRatio: "1:1",
			NumImages:   1,
		})
		if err != nil {
			slog.WarnContext(ctx, "candidate image generation failed, using fallback",
				"provider", c.imageProvider.Name(), "error", err.Error())
			results <- imageResult{slot: j.slot, imageURL: FallbackImageURL(j.prompt)}
			continue
		}
		url := result.ImageURL
		if url == "" {
			url = result.ImagePath
		}
		results <- imageResult{slot: j.slot, imageURL: url}
	}
}
