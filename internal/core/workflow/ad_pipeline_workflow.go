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

// Package workflow defines the high-level business logic orchestrations,
// combining phase commands into coherent pipelines. This file implements
// the primary ad generation workflow: a marketing brief goes in, the four
// intermediate artifacts (story, casting set, storyboard, video plan) are
// produced in order, the plan is rendered segment by segment, and the
// rendered clips are assembled into the final video.
package workflow

import (
	goctx "context"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/cloud"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/commands"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
)

// Context keys for the pipeline's phase outputs. Exposed so callers (CLI,
// API server, tests) can pull individual artifacts out of a finished run.
const (
	StoryOutputParamName      = "__story_output__"
	CastingOutputParamName    = "__casting_output__"
	StoryboardOutputParamName = "__storyboard_output__"
	PlanOutputParamName       = "__plan_output__"
	RenderOutputParamName     = "__render_output__"
	AssemblyOutputParamName   = "__assembly_output__"
)

// AdPipelineWorkflow orchestrates the full brief-to-video generation run.
// It is structured as a Chain of Responsibility (cor.Chain) executing the
// six phase commands in order, with the output of each phase piped into
// the next.
type AdPipelineWorkflow struct {
	cor.BaseCommand
	config        *cloud.Config
	imageProvider providers.ImageProvider
	videoProvider providers.VideoProvider
	chain         cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the entire pipeline by invoking the underlying chain. The
// context must carry the brief; use NewRunContext to prepare one.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (w *AdPipelineWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// NewRunContext prepares a chain context for one pipeline run: the brief is
// seeded both as the first command's input and under its stable key so any
// later phase can consult the original request.
//
// Inputs:
//   - ctx: The standard Go context for cancellation and tracing.
//   - brief: The marketing brief driving the run.
//
// Outputs:
//   - cor.Context: A chain context ready to pass to Execute.
func NewRunContext(ctx goctx.Context, brief *model.Brief) cor.Context {
	out := cor.NewBaseContext()
	out.SetContext(ctx)
	out.Add(cor.CtxIn, brief)
	out.Add(commands.GetBriefParamName(), brief)
	return out
}

// initializeChain builds the sequence of commands that make up this
// workflow. Each command validates its own output before handing it to the
// next, so a broken artifact stops the chain at the phase that produced it.
func (w *AdPipelineWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Phase 1: expand the brief into the four-scene story arc.
	out.AddCommand(commands.NewStoryGenerator("generate-story", StoryOutputParamName))

	// Phase 2: generate character and location candidates with preview
	// images, fanned out over the configured worker pool.
	out.AddCommand(commands.NewCastingGenerator(
		"generate-casting",
		CastingOutputParamName,
		w.imageProvider,
		0, // Candidate count comes from the brief; 0 selects the default.
		w.config.Application.ThreadPoolSize))

	// Phase 3: expand every scene into keyframes anchored on the selection.
	out.AddCommand(commands.NewStoryboardBuilder("build-storyboard", StoryboardOutputParamName))

	// Phase 4: flatten the keyframes into a contiguous segment timeline.
	out.AddCommand(commands.NewVideoPlanGenerator("generate-video-plan", PlanOutputParamName))

	// Phase 5: render the plan one segment at a time through the video
	// provider, with the configured motion directive.
	out.AddCommand(commands.NewSegmentRenderer(
		"render-segments",
		RenderOutputParamName,
		w.videoProvider,
		model.Directive{
			MotionType:      w.config.Render.MotionType,
			CameraMovement:  w.config.Render.CameraMovement,
			TransitionStyle: w.config.Render.TransitionStyle,
		}))

	// Phase 5.5: stitch the rendered clips into the final video, retrying
	// failed segments through the placeholder re-render callback.
	out.AddCommand(commands.NewVideoAssembler(
		"assemble-video",
		AssemblyOutputParamName,
		w.config.Output.FinalDir,
		w.config.Assembler.MaxRetries,
		commands.MockRetrySegment(w.config.Output.SegmentsDir)))

	w.chain = out
}

// NewAdPipelineWorkflow is the constructor for the AdPipelineWorkflow. It
// resolves the providers from the registry and initializes the command
// chain.
//
// Inputs:
//   - config: The application's overall configuration.
//   - registry: The provider registry to resolve backends from.
//
// Outputs:
//   - *AdPipelineWorkflow: A pointer to a fully initialized workflow.
func NewAdPipelineWorkflow(config *cloud.Config, registry *providers.Registry) *AdPipelineWorkflow {
	pipeline := &AdPipelineWorkflow{
		BaseCommand:   *cor.NewBaseCommand("ad-pipeline"),
		config:        config,
		imageProvider: registry.Image(),
		videoProvider: registry.Video(),
	}
	pipeline.initializeChain()
	return pipeline
}
