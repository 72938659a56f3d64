package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
	"github.com/zjy-dev/covrun/internal/exec"
)

// Artifact names a file a stage must leave behind, with an optional
// hint shown when the file turns out to be missing.
type Artifact struct {
	Path string
	Hint string
}

// Stage is one step of a coverage run. Implementations carry their own
// inputs; Run takes no arguments so stubbing a stage in tests is a
// one-liner.
type Stage interface {
	// Name is the human-readable stage name used in progress output
	// and error messages.
	Name() string

	// State is the machine state entered while this stage runs.
	State() State

	// Run performs the stage's work and blocks until it is done.
	Run() error

	// Produces lists artifacts that must exist after a successful Run.
	// Stages whose output cannot be named up front return nil.
	Produces() []Artifact
}

// requireInputs verifies a stage's input artifacts exist before any
// work starts.
func requireInputs(stage string, paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return &MissingInputError{Stage: stage, Path: path}
		}
	}
	return nil
}

// CommandStage runs one external command, maps a non-zero exit to a
// StageError, and optionally post-processes the captured output.
type CommandStage struct {
	name      string
	state     State
	runner    exec.Runner
	command   exec.Command
	requires  []string
	artifacts []Artifact
	onSuccess func(*exec.Result) error
}

// NewCommandStage builds a stage around a single external command.
func NewCommandStage(name string, state State, runner exec.Runner, command exec.Command) *CommandStage {
	return &CommandStage{name: name, state: state, runner: runner, command: command}
}

// WithRequires declares an input artifact that must exist before the
// command starts.
func (s *CommandStage) WithRequires(path string) *CommandStage {
	s.requires = append(s.requires, path)
	return s
}

// WithArtifact declares a file that must exist once the command has
// exited successfully.
func (s *CommandStage) WithArtifact(path, hint string) *CommandStage {
	s.artifacts = append(s.artifacts, Artifact{Path: path, Hint: hint})
	return s
}

// WithOnSuccess registers a callback invoked after a zero exit, before
// artifact checks. Stages use it to persist captured stdout.
func (s *CommandStage) WithOnSuccess(fn func(*exec.Result) error) *CommandStage {
	s.onSuccess = fn
	return s
}

func (s *CommandStage) Name() string         { return s.name }
func (s *CommandStage) State() State         { return s.state }
func (s *CommandStage) Produces() []Artifact { return s.artifacts }

func (s *CommandStage) Run() error {
	if err := requireInputs(s.name, s.requires); err != nil {
		return err
	}
	result, err := s.runner.Run(s.command)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	if result.ExitCode != 0 {
		return &StageError{
			Stage:  s.name,
			State:  s.state,
			Code:   result.ExitCode,
			Stdout: result.Stdout,
			Stderr: result.Stderr,
			Err: fmt.Errorf("%w: %s exited with code %d",
				coverrs.ErrNonZeroExit, filepath.Base(s.command.Path), result.ExitCode),
		}
	}
	if s.onSuccess != nil {
		if err := s.onSuccess(result); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// FuncStage adapts a plain function into a Stage, for steps that do
// local work instead of launching a process.
type FuncStage struct {
	name      string
	state     State
	fn        func() error
	requires  []string
	artifacts []Artifact
}

// NewFuncStage builds a stage from a function.
func NewFuncStage(name string, state State, fn func() error) *FuncStage {
	return &FuncStage{name: name, state: state, fn: fn}
}

// WithRequires declares an input artifact that must exist before the
// function runs.
func (s *FuncStage) WithRequires(path string) *FuncStage {
	s.requires = append(s.requires, path)
	return s
}

// WithArtifact declares a file that must exist once the function has
// returned nil.
func (s *FuncStage) WithArtifact(path, hint string) *FuncStage {
	s.artifacts = append(s.artifacts, Artifact{Path: path, Hint: hint})
	return s
}

func (s *FuncStage) Name() string         { return s.name }
func (s *FuncStage) State() State         { return s.state }
func (s *FuncStage) Produces() []Artifact { return s.artifacts }

func (s *FuncStage) Run() error {
	if err := requireInputs(s.name, s.requires); err != nil {
		return err
	}
	if err := s.fn(); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}
