// Package exec runs external commands for the coverage pipeline.
//
// Commands run synchronously: Run returns only after the process has
// exited and its output streams are fully drained. Non-zero exit codes
// are reported through the Result, not as errors; an error from Run
// means the process could not be started at all.
package exec

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

// Command describes a single external process invocation.
type Command struct {
	// Path is the resolved executable path or bare command name.
	Path string

	// Args are the arguments passed to the executable, excluding the
	// executable name itself.
	Args []string

	// Env is an overlay merged over the parent environment. Keys present
	// here override inherited values; the parent environment is never
	// replaced wholesale.
	Env map[string]string
}

// Result holds the outcome of a finished command.
type Result struct {
	// RunID correlates log events belonging to one invocation.
	RunID string

	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner defines an interface for running external commands.
// This allows for mocking in tests.
type Runner interface {
	Run(cmd Command) (*Result, error)
}

// HostRunner is a concrete implementation of the Runner interface that
// runs actual commands on the host system.
type HostRunner struct {
	log zerolog.Logger
}

// NewHostRunner creates a new HostRunner.
func NewHostRunner(log zerolog.Logger) *HostRunner {
	return &HostRunner{log: log}
}

// Run executes the given command and returns its result.
func (r *HostRunner) Run(cmd Command) (*Result, error) {
	runID := uuid.NewString()

	c := exec.Command(cmd.Path, cmd.Args...)
	c.Env = mergeEnv(cmd.Env)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	r.log.Debug().
		Str("run_id", runID).
		Str("path", cmd.Path).
		Strs("args", cmd.Args).
		Msg("starting command")

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)

	// c.Run returns an error for non-zero exit codes, but the exit code
	// is handled explicitly through the Result. Only failures to start
	// the process at all are returned as errors.
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			r.log.Debug().
				Str("run_id", runID).
				Str("path", cmd.Path).
				Err(err).
				Msg("command failed to launch")
			return nil, fmt.Errorf("%w: %s: %w", coverrs.ErrLaunchFailure, cmd.Path, err)
		}
	}

	result := &Result{
		RunID:    runID,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: elapsed,
	}

	r.log.Debug().
		Str("run_id", runID).
		Str("path", cmd.Path).
		Int("exit_code", result.ExitCode).
		Dur("duration", elapsed).
		Msg("command finished")

	return result, nil
}

// mergeEnv appends the overlay to the parent environment in sorted key
// order. os/exec keeps the last value for a duplicated key, so overlay
// entries win over inherited ones.
func mergeEnv(overlay map[string]string) []string {
	environ := os.Environ()
	if len(overlay) == 0 {
		return environ
	}
	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		environ = append(environ, k+"="+overlay[k])
	}
	return environ
}
