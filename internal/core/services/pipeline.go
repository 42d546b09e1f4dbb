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

// Package services contains the business logic behind the HTTP API. This
// file defines the PipelineService, which owns the in-memory run store and
// drives the phase commands either one at a time (the stepwise API) or as
// the full chain (the run-all API). Each run keeps its chain context alive
// between calls so a client can generate casting candidates, pick a
// character, and only then continue to the storyboard.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/gcp-go-ad-pipeline/internal/cloud"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/commands"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/cor"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/model"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/core/workflow"
	"github.com/reelforge/gcp-go-ad-pipeline/internal/providers"
)

// Run is one pipeline run: the brief it was created from plus the chain
// context that accumulates phase outputs. The mutex serializes phase
// execution so concurrent API calls against the same run cannot interleave.
type Run struct {
	ID        string
	Brief     *model.Brief
	CreatedAt time.Time

	mu       sync.Mutex
	chainCtx cor.Context
}

// RunSummary is the API-facing snapshot of a run's progress.
type RunSummary struct {
	ID        string            `json:"id"`
	Brief     *model.Brief      `json:"brief"`
	CreatedAt time.Time         `json:"created_at"`
	Phases    map[string]bool   `json:"phases"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// PipelineService encapsulates the run store and the phase commands. It is
// the single owner of run state; HTTP handlers stay thin and delegate here.
type PipelineService struct {
	config   *cloud.Config
	registry *providers.Registry
	notifier *cloud.CompletionNotifier // Optional, publishes run completions. May be nil.

	story      cor.Command
	casting    cor.Command
	storyboard cor.Command
	plan       cor.Command
	render     cor.Command
	assemble   cor.Command
	pipeline   *workflow.AdPipelineWorkflow

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewPipelineService creates the service with one command instance per
// phase. Commands are stateless between executions, so sharing them across
// runs is safe; per-run state lives entirely in the chain context.
//
// Inputs:
//   - config: The loaded application configuration.
//   - registry: The provider registry used to resolve media backends.
//
// Outputs:
//   - *PipelineService: The initialized service.
func NewPipelineService(config *cloud.Config, registry *providers.Registry) *PipelineService {
	return &PipelineService{
		config:   config,
		registry: registry,
		story:    commands.NewStoryGenerator("generate-story", workflow.StoryOutputParamName),
		casting: commands.NewCastingGenerator(
			"generate-casting",
			workflow.CastingOutputParamName,
			registry.Image(),
			0, // the brief's candidate count applies
			config.Application.ThreadPoolSize),
		storyboard: commands.NewStoryboardBuilder("build-storyboard", workflow.StoryboardOutputParamName),
		plan:       commands.NewVideoPlanGenerator("generate-video-plan", workflow.PlanOutputParamName),
		render: commands.NewSegmentRenderer(
			"render-segments",
			workflow.RenderOutputParamName,
			registry.Video(),
			model.Directive{
				MotionType:      config.Render.MotionType,
				CameraMovement:  config.Render.CameraMovement,
				TransitionStyle: config.Render.TransitionStyle,
			}),
		assemble: commands.NewVideoAssembler(
			"assemble-video",
			workflow.AssemblyOutputParamName,
			config.Output.FinalDir,
			config.Assembler.MaxRetries,
			commands.MockRetrySegment(config.Output.SegmentsDir)),
		pipeline: workflow.NewAdPipelineWorkflow(config, registry),
		runs:     make(map[string]*Run),
	}
}

// SetNotifier attaches an optional completion notifier. When set, RunAll
// and Assemble publish the assembly result after a successful run.
func (s *PipelineService) SetNotifier(notifier *cloud.CompletionNotifier) {
	s.notifier = notifier
}

// CreateRun registers a new run for the given brief and returns it. The
// chain context is seeded the same way the full workflow seeds it, so the
// stepwise and run-all paths are interchangeable.
//
// Inputs:
//   - ctx: The request context, carried into the run for tracing.
//   - brief: The marketing brief driving the run.
//
// Outputs:
//   - *Run: The newly registered run with a fresh UUID.
func (s *PipelineService) CreateRun(ctx context.Context, brief *model.Brief) *Run {
	run := &Run{
		ID:        uuid.New().String(),
		Brief:     brief,
		CreatedAt: time.Now(),
		chainCtx:  workflow.NewRunContext(ctx, brief),
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
	return run
}

// GetRun looks up a run by ID.
//
// Outputs:
//   - *Run: The run, when found.
//   - error: An error when no run with that ID exists.
func (s *PipelineService) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %q not found", id)
	}
	return run, nil
}

// Summary returns the API-facing snapshot of a run: which phases have
// completed and any recorded command errors.
func (s *PipelineService) Summary(id string) (*RunSummary, error) {
	run, err := s.GetRun(id)
	if err != nil {
		return nil, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	phases := make(map[string]bool)
	for _, phase := range []string{
		model.PhaseStory, model.PhaseCasting, model.PhaseStoryboard,
		model.PhasePlan, model.PhaseRender, model.PhaseAssembly,
	} {
		phases[phase] = run.chainCtx.IsPhaseComplete(phase)
	}

	errs := make(map[string]string)
	for name, e := range run.chainCtx.GetErrors() {
		errs[name] = e.Error()
	}

	return &RunSummary{
		ID:        run.ID,
		Brief:     run.Brief,
		CreatedAt: run.CreatedAt,
		Phases:    phases,
		Errors:    errs,
	}, nil
}

// Stats reports aggregate counters over the run store: the total number of
// registered runs and how many have completed each phase.
func (s *PipelineService) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	phases := map[string]int{
		model.PhaseStory: 0, model.PhaseCasting: 0, model.PhaseStoryboard: 0,
		model.PhasePlan: 0, model.PhaseRender: 0, model.PhaseAssembly: 0,
	}
	for _, run := range s.runs {
		run.mu.Lock()
		for phase := range phases {
			if run.chainCtx.IsPhaseComplete(phase) {
				phases[phase]++
			}
		}
		run.mu.Unlock()
	}
	return map[string]interface{}{
		"runs":   len(s.runs),
		"phases": phases,
	}
}

// executePhase runs one command against the run's chain context, mirroring
// the chain's output hand-off so the next phase finds its input. A previous
// failure of the same command is cleared first, which makes phase calls
// retryable.
func (s *PipelineService) executePhase(run *Run, cmd cor.Command) error {
	run.mu.Lock()
	defer run.mu.Unlock()

	delete(run.chainCtx.GetErrors(), cmd.GetName())
	cmd.Execute(run.chainCtx)
	if err, ok := run.chainCtx.GetErrors()[cmd.GetName()]; ok {
		return err
	}
	run.chainCtx.Add(cor.CtxIn, run.chainCtx.Get(cor.CtxOut))
	return nil
}

// RunAll executes the full six-phase chain for a brief in one call and
// returns the run ID with the assembly result.
//
// Inputs:
//   - ctx: The request context.
//   - brief: The marketing brief driving the run.
//
// Outputs:
//   - *Run: The registered run, so the client can inspect intermediate
//     outputs afterward.
//   - *model.AssembleResult: The final assembly result.
//   - error: The first chain error when the run did not finish.
func (s *PipelineService) RunAll(ctx context.Context, brief *model.Brief) (*Run, *model.AssembleResult, error) {
	run := s.CreateRun(ctx, brief)

	run.mu.Lock()
	s.pipeline.Execute(run.chainCtx)
	hasErrors := run.chainCtx.HasErrors()
	result, _ := run.chainCtx.Get(workflow.AssemblyOutputParamName).(*model.AssembleResult)
	run.mu.Unlock()

	if hasErrors {
		summary, _ := s.Summary(run.ID)
		for name, msg := range summary.Errors {
			slog.ErrorContext(ctx, "pipeline command failed", "run_id", run.ID, "command", name, "error", msg)
		}
		return run, result, fmt.Errorf("pipeline run %s failed", run.ID)
	}

	s.publishCompletion(ctx, run, result)
	return run, result, nil
}

// GenerateStory runs the story phase for a run.
func (s *PipelineService) GenerateStory(runID string) (*model.Story, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if err := s.executePhase(run, s.story); err != nil {
		return nil, err
	}
	out, _ := run.chainCtx.Get(workflow.StoryOutputParamName).(*model.Story)
	return out, nil
}

// GenerateCasting runs the casting phase, producing character and location
// candidates with generated preview images.
func (s *PipelineService) GenerateCasting(runID string) (*model.CastingSet, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if err := s.executePhase(run, s.casting); err != nil {
		return nil, err
	}
	out, _ := run.chainCtx.Get(workflow.CastingOutputParamName).(*model.CastingSet)
	return out, nil
}

// ApplySelection records the client's chosen character and location on the
// run's casting set. Must be called after casting and before the
// storyboard phase consumes the selection.
//
// Inputs:
//   - runID: The run to update.
//   - characterID: The 1-based ID of the chosen character candidate.
//   - locationID: The 1-based ID of the chosen location candidate.
//
// Outputs:
//   - *model.CastingSet: The updated casting set.
//   - error: An error when the run or either candidate does not exist.
func (s *PipelineService) ApplySelection(runID string, characterID int, locationID int) (*model.CastingSet, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	castingSet, ok := run.chainCtx.Get(workflow.CastingOutputParamName).(*model.CastingSet)
	if !ok {
		return nil, fmt.Errorf("run %q has no casting set, generate casting first", runID)
	}
	if err := castingSet.ApplySelection(characterID, locationID); err != nil {
		return nil, err
	}
	return castingSet, nil
}

// BuildStoryboard runs the storyboard phase for a run.
func (s *PipelineService) BuildStoryboard(runID string) (*model.Storyboard, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if err := s.executePhase(run, s.storyboard); err != nil {
		return nil, err
	}
	out, _ := run.chainCtx.Get(workflow.StoryboardOutputParamName).(*model.Storyboard)
	return out, nil
}

// GeneratePlan runs the video-plan phase for a run.
func (s *PipelineService) GeneratePlan(runID string) (*model.VideoPlan, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if err := s.executePhase(run, s.plan); err != nil {
		return nil, err
	}
	out, _ := run.chainCtx.Get(workflow.PlanOutputParamName).(*model.VideoPlan)
	return out, nil
}

// RenderSegments runs the render phase for a run. Individual segment
// failures are reported inside the result rather than as an error.
func (s *PipelineService) RenderSegments(runID string) (*model.RenderResult, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if err := s.executePhase(run, s.render); err != nil {
		return nil, err
	}
	out, _ := run.chainCtx.Get(workflow.RenderOutputParamName).(*model.RenderResult)
	return out, nil
}

// Assemble runs the assembly phase for a run and publishes the completion
// notification when a notifier is attached.
func (s *PipelineService) Assemble(runID string) (*model.AssembleResult, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if err := s.executePhase(run, s.assemble); err != nil {
		return nil, err
	}
	out, _ := run.chainCtx.Get(workflow.AssemblyOutputParamName).(*model.AssembleResult)
	if out != nil && out.Success {
		s.publishCompletion(run.chainCtx.GetContext(), run, out)
	}
	return out, nil
}

// publishCompletion sends the run-complete event when a notifier is
// configured. Publish failures are logged, never surfaced to the caller;
// the run itself already succeeded.
func (s *PipelineService) publishCompletion(ctx context.Context, run *Run, result *model.AssembleResult) {
	if s.notifier == nil || result == nil {
		return
	}
	payload := map[string]interface{}{
		"run_id":     run.ID,
		"brief":      run.Brief,
		"success":    result.Success,
		"final_path": result.OutputPath,
	}
	if err := s.notifier.Publish(ctx, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish run completion", "run_id", run.ID, "error", err)
	}
}
