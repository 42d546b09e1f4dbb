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

// Package commands holds the pipeline phase commands. Each command embeds
// the chain plumbing, reads its input object from the chain context,
// produces the next pipeline artifact and validates it before handing it
// downstream.
//
// This file implements the story phase: a marketing brief is expanded into
// a four-scene narrative arc (hook, conflict, reveal, close) using
// goal-keyed Thai description templates.
package commands

import (
	"fmt"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/validate"
)

// sceneTemplate fixes the structure of one scene in the arc. Descriptions
// come from the goal template tables, everything else is constant.
type sceneTemplate struct {
	id       int
	purpose  string
	emotion  string
	duration float64
}

// sceneArc is the fixed four-scene shape every story follows.
var sceneArc = []sceneTemplate{
	{id: 1, purpose: "hook", emotion: "curious", duration: 3},
	{id: 2, purpose: "conflict", emotion: "frustrated", duration: 5},
	{id: 3, purpose: "reveal", emotion: "relief", duration: 5},
	{id: 4, purpose: "close", emotion: "confident", duration: 4},
}

// descTemplate renders a scene description from the brief fields.
type descTemplate func(b *model.Brief) string

// Goal-keyed description tables, one per scene purpose. Goals without an
// entry fall back to the generic template.
var (
	hookDescriptions = map[string]descTemplate{
		"ขายคอร์สออนไลน์": func(b *model.Brief) string {
			return fmt.Sprintf("ตั้งคำถามว่าทำไม%sถึงยังไม่ได้เริ่มใช้%s", b.Audience, b.Product)
		},
		"เพิ่มผู้ติดตาม": func(b *model.Brief) string {
			return fmt.Sprintf("คุณรู้หรือไม่ว่า%sต้องการอะไรจาก%s", b.Audience, b.Platform)
		},
		"สร้างแบรนด์": func(b *model.Brief) string {
			return fmt.Sprintf("ทำไม%sถึงเป็นที่นิยมในกลุ่ม%s", b.Product, b.Audience)
		},
	}
	genericHook = func(b *model.Brief) string {
		return fmt.Sprintf("ตั้งคำถามที่น่าสนใจเกี่ยวกับ%sสำหรับ%s", b.Product, b.Audience)
	}

	conflictDescriptions = map[string]descTemplate{
		"ขายคอร์สออนไลน์": func(b *model.Brief) string {
			return fmt.Sprintf("โชว์ความยุ่งยากที่%sต้องเจอเมื่อต้องเรียนรู้เอง", b.Audience)
		},
		"เพิ่มผู้ติดตาม": func(b *model.Brief) string {
			return fmt.Sprintf("แสดงปัญหาในการสร้างคอนเทนต์สำหรับ%s", b.Platform)
		},
		"สร้างแบรนด์": func(b *model.Brief) string {
			return fmt.Sprintf("ความยากในการทำให้%sรู้จักและเชื่อใจ", b.Audience)
		},
	}
	genericConflict = func(b *model.Brief) string {
		return fmt.Sprintf("แสดงปัญหาและความท้าทายที่%sต้องเผชิญ", b.Audience)
	}

	revealDescriptions = map[string]descTemplate{
		"ขายคอร์สออนไลน์": func(b *model.Brief) string {
			return fmt.Sprintf("แนะนำ%sที่ทำให้%sเรียนรู้ได้ง่ายและรวดเร็ว", b.Product, b.Audience)
		},
		"เพิ่มผู้ติดตาม": func(b *model.Brief) string {
			return fmt.Sprintf("เปิดเผยวิธีใช้%sเพื่อสร้างคอนเทนต์ที่โดนใจบน%s", b.Product, b.Platform)
		},
		"สร้างแบรนด์": func(b *model.Brief) string {
			return fmt.Sprintf("แนะนำ%sที่เป็นทางออกสำหรับ%s", b.Product, b.Audience)
		},
	}
	genericReveal = func(b *model.Brief) string {
		return fmt.Sprintf("แนะนำ%sที่เป็นทางออกสำหรับปัญหา", b.Product)
	}

	closeDescriptions = map[string]descTemplate{
		"ขายคอร์สออนไลน์": func(b *model.Brief) string {
			return fmt.Sprintf("เชิญชวนให้%sสมัครเรียน%s", b.Audience, b.Product)
		},
		"เพิ่มผู้ติดตาม": func(b *model.Brief) string {
			return fmt.Sprintf("เชิญชวนให้ติดตามและลองใช้%sบน%s", b.Product, b.Platform)
		},
		"สร้างแบรนด์": func(b *model.Brief) string {
			return fmt.Sprintf("เชิญชวนให้%sลองใช้%sและติดตามผลลัพธ์", b.Audience, b.Product)
		},
	}
	genericClose = func(b *model.Brief) string {
		return fmt.Sprintf("เชิญชวนให้ลองใช้%s", b.Product)
	}
)

// descTables pairs each scene purpose with its goal table and fallback.
var descTables = map[string]struct {
	byGoal  map[string]descTemplate
	generic descTemplate
}{
	"hook":     {hookDescriptions, genericHook},
	"conflict": {conflictDescriptions, genericConflict},
	"reveal":   {revealDescriptions, genericReveal},
	"close":    {closeDescriptions, genericClose},
}

// NewStory expands a brief into the fixed four-scene arc, filling in the
// goal-appropriate Thai description for each scene.
//
// Inputs:
//  1. brief - the marketing brief to expand
//
// Outputs:
//  1. *model.Story - the narrative with all four scenes populated
func NewStory(brief *model.Brief) *model.Story {
	scenes := make([]*model.Scene, 0, len(sceneArc))
	for _, tmpl := range sceneArc {
		table := descTables[tmpl.purpose]
		render, ok := table.byGoal[brief.Goal]
		if !ok {
			render = table.generic
		}
		scenes = append(scenes, &model.Scene{
			ID:          tmpl.id,
			Purpose:     tmpl.purpose,
			Emotion:     tmpl.emotion,
			Duration:    tmpl.duration,
			Description: render(brief),
		})
	}
	return &model.Story{
		Goal:     brief.Goal,
		Product:  brief.Product,
		Audience: brief.Audience,
		Platform: brief.Platform,
		Scenes:   scenes,
	}
}

// StoryGenerator is the first pipeline command. It reads the brief from
// the chain context and emits a validated story.
type StoryGenerator struct {
	cor.BaseCommand
}

// NewStoryGenerator creates the story phase command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - outputParamName: The context key the *model.Story is also stored under.
//
// Outputs:
//   - *StoryGenerator: A pointer to the newly instantiated command.
func NewStoryGenerator(name string, outputParamName string) *StoryGenerator {
	out := &StoryGenerator{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return out
}

// IsExecutable checks the context contains a brief under the input key.
func (s *StoryGenerator) IsExecutable(context cor.Context) bool {
	brief, ok := context.Get(s.GetInputParam()).(*model.Brief)
	return ok && brief != nil
}

// Execute expands the brief into a story and validates the result before
// publishing it to the output key.
func (s *StoryGenerator) Execute(context cor.Context) {
	brief, ok := context.Get(s.GetInputParam()).(*model.Brief)
	if !ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("input %q is not a brief", s.GetInputParam()))
		return
	}
	if brief.Goal == "" || brief.Product == "" || brief.Audience == "" || brief.Platform == "" {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(),
			validate.NewValidationError(model.PhaseStory, "brief requires goal, product, audience and platform"))
		return
	}

	story := NewStory(brief)
	if err := validate.ValidateStory(story); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	context.MarkPhaseComplete(model.PhaseStory)
	s.GetSuccessCounter().Add(context.GetContext(), 1)

	// Store the story under its named key and in the general-purpose output
	// slot so the next command in the chain picks it up.
	context.Add(s.GetOutputParam(), story)
	context.Add(cor.CtxOut, story)
}
