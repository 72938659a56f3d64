// Package errors defines the error taxonomy shared across the covrun
// pipeline. Every failure mode is represented by a sentinel that callers
// can test with errors.Is; richer errors elsewhere wrap these sentinels.
//
// This package must not import any other internal package.
package errors

import "errors"

var (
	// ErrValidation indicates invalid run inputs (missing binary, missing
	// source root) caught before any external process starts.
	ErrValidation = errors.New("validation failed")

	// ErrToolNotFound indicates a required external tool could not be
	// resolved from an override or the executable search path.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolchainChannelMissing indicates the toolchain channel required
	// for the requested coverage mode is not installed.
	ErrToolchainChannelMissing = errors.New("toolchain channel missing")

	// ErrLaunchFailure indicates an external process could not be started
	// at all, as opposed to running and failing.
	ErrLaunchFailure = errors.New("process launch failed")

	// ErrNonZeroExit indicates an external process ran and exited with a
	// non-zero status.
	ErrNonZeroExit = errors.New("command exited non-zero")

	// ErrArtifactNotProduced indicates a stage exited successfully but did
	// not produce the artifact it declared.
	ErrArtifactNotProduced = errors.New("artifact not produced")

	// ErrReportWrite indicates a report could not be written to the local
	// filesystem.
	ErrReportWrite = errors.New("report write failed")

	// ErrMissingArtifact indicates an input artifact required by a stage
	// does not exist on disk.
	ErrMissingArtifact = errors.New("missing artifact")
)

// ExitCoder is implemented by errors that carry the exit code of a failed
// external command.
type ExitCoder interface {
	ExitCode() int
}

// ExitCode maps an error to the process exit code covrun terminates with:
// 0 for nil, the external tool's exit code when one is attached, 1 for
// everything else (validation failures, unresolved tools, write errors).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) && ec.ExitCode() > 0 {
		return ec.ExitCode()
	}
	return 1
}
