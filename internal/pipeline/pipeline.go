// Package pipeline sequences the stages of a coverage run.
//
// A Pipeline walks its stages in order, enforcing the state machine as
// it goes. The first failure aborts the run: later stages are never
// invoked, there are no retries, and already-produced artifacts are
// left on disk for inspection.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

// StageError reports a stage whose command ran and failed. It carries
// the tool's exit code so the process exit code can propagate it.
type StageError struct {
	Stage  string
	State  State
	Code   int
	Stdout string
	Stderr string
	Err    error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// ExitCode returns the failed tool's exit code.
func (e *StageError) ExitCode() int { return e.Code }

// ArtifactError reports a stage that exited successfully without
// leaving a declared artifact behind.
type ArtifactError struct {
	Stage string
	Path  string
	Hint  string
}

func (e *ArtifactError) Error() string {
	msg := fmt.Sprintf("%s exited successfully but %s was not created", e.Stage, e.Path)
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

func (e *ArtifactError) Unwrap() error { return coverrs.ErrArtifactNotProduced }

// MissingInputError reports a stage whose required input artifact was
// absent when the stage started.
type MissingInputError struct {
	Stage string
	Path  string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s requires %s, which does not exist", e.Stage, e.Path)
}

func (e *MissingInputError) Unwrap() error { return coverrs.ErrMissingArtifact }

// StageResult records one stage attempt.
type StageResult struct {
	Name     string
	State    State
	Started  time.Time
	Duration time.Duration

	// Artifacts are the declared files verified to exist after a
	// successful stage. Empty when the stage failed.
	Artifacts []string

	Err error
}

// Outcome is the final account of a run: the terminal state, one
// result per attempted stage, and the error that aborted the run, if
// any. Stages after the failed one do not appear in Results.
type Outcome struct {
	FinalState State
	Results    []StageResult
	Err        error
}

// Pipeline runs an ordered list of stages. A Pipeline value is
// single-use: Run may be called once.
type Pipeline struct {
	stages   []Stage
	state    State
	log      zerolog.Logger
	progress io.Writer
}

// New creates a Pipeline over the given stages.
func New(stages []Stage, log zerolog.Logger) *Pipeline {
	return &Pipeline{stages: stages, state: StateNotStarted, log: log, progress: io.Discard}
}

// WithProgress sets the writer stage banners are printed to.
func (p *Pipeline) WithProgress(w io.Writer) *Pipeline {
	p.progress = w
	return p
}

// Run walks the stages in order and returns the outcome. It never
// panics on stage failure; the failure is captured in the outcome.
func (p *Pipeline) Run() *Outcome {
	out := &Outcome{FinalState: StateAborted}

	if p.state != StateNotStarted {
		out.Err = fmt.Errorf("%w: pipeline already ran", coverrs.ErrValidation)
		return out
	}
	if len(p.stages) == 0 {
		out.Err = fmt.Errorf("%w: pipeline has no stages", coverrs.ErrValidation)
		return out
	}

	for _, stage := range p.stages {
		if err := p.transition(stage.State()); err != nil {
			out.Err = err
			return out
		}

		fmt.Fprintf(p.progress, "[Coverage] %s...\n", stage.Name())
		p.log.Info().Str("stage", stage.Name()).Str("state", string(stage.State())).Msg("stage starting")

		start := time.Now()
		err := stage.Run()
		if err == nil {
			err = p.checkArtifacts(stage)
		}
		elapsed := time.Since(start)

		result := StageResult{
			Name:     stage.Name(),
			State:    stage.State(),
			Started:  start,
			Duration: elapsed,
			Err:      err,
		}
		if err == nil {
			for _, artifact := range stage.Produces() {
				result.Artifacts = append(result.Artifacts, artifact.Path)
			}
		}
		out.Results = append(out.Results, result)

		if err != nil {
			p.state = StateAborted
			p.log.Error().Str("stage", stage.Name()).Dur("duration", elapsed).Err(err).Msg("stage failed")
			out.Err = err
			return out
		}

		p.log.Info().Str("stage", stage.Name()).Dur("duration", elapsed).Msg("stage finished")
	}

	if err := p.transition(StateCompleted); err != nil {
		out.Err = err
		return out
	}
	out.FinalState = StateCompleted
	return out
}

// State returns the pipeline's current state.
func (p *Pipeline) State() State { return p.state }

func (p *Pipeline) transition(to State) error {
	from := p.state
	if !CanTransition(from, to) {
		p.state = StateAborted
		return fmt.Errorf("%w: illegal transition %s -> %s", coverrs.ErrValidation, from, to)
	}
	p.state = to
	return nil
}

func (p *Pipeline) checkArtifacts(stage Stage) error {
	for _, artifact := range stage.Produces() {
		if _, err := os.Stat(artifact.Path); err != nil {
			return &ArtifactError{Stage: stage.Name(), Path: artifact.Path, Hint: artifact.Hint}
		}
	}
	return nil
}
