//go:build integration

package exec

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHostRunner_Integration_Echo tests running echo command.
func TestHostRunner_Integration_Echo(t *testing.T) {
	runner := NewHostRunner(zerolog.Nop())

	result, err := runner.Run(Command{Path: "echo", Args: []string{"Hello, World!"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "Hello, World!")
}

// TestHostRunner_Integration_Cat tests reading file content.
func TestHostRunner_Integration_Cat(t *testing.T) {
	tempFile, err := os.CreateTemp("", "exec_test_")
	require.NoError(t, err)
	defer os.Remove(tempFile.Name())

	content := "Test content for cat command"
	_, err = tempFile.WriteString(content)
	require.NoError(t, err)
	tempFile.Close()

	runner := NewHostRunner(zerolog.Nop())
	result, err := runner.Run(Command{Path: "cat", Args: []string{tempFile.Name()}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, content, result.Stdout)
}

// TestHostRunner_Integration_NonZeroExit tests non-zero exit code.
func TestHostRunner_Integration_NonZeroExit(t *testing.T) {
	runner := NewHostRunner(zerolog.Nop())

	// Use false command which always returns 1
	result, err := runner.Run(Command{Path: "false"})
	require.NoError(t, err) // Should not return error for non-zero exit
	assert.Equal(t, 1, result.ExitCode)
}

// TestHostRunner_Integration_Stderr tests stderr capture.
func TestHostRunner_Integration_Stderr(t *testing.T) {
	runner := NewHostRunner(zerolog.Nop())

	// ls on non-existent file should produce stderr
	result, err := runner.Run(Command{Path: "ls", Args: []string{"/nonexistent/path/that/does/not/exist"}})
	require.NoError(t, err)
	assert.NotEqual(t, 0, result.ExitCode)
	assert.NotEmpty(t, result.Stderr)
}

// TestHostRunner_Integration_CommandNotFound tests handling of non-existent command.
func TestHostRunner_Integration_CommandNotFound(t *testing.T) {
	runner := NewHostRunner(zerolog.Nop())

	result, err := runner.Run(Command{Path: "this_command_definitely_does_not_exist_12345"})
	assert.Error(t, err)
	assert.Nil(t, result)
}

// TestHostRunner_Integration_EnvOverlay tests that overlay variables reach the child.
func TestHostRunner_Integration_EnvOverlay(t *testing.T) {
	runner := NewHostRunner(zerolog.Nop())

	result, err := runner.Run(Command{
		Path: "printenv",
		Args: []string{"COVRUN_PROFILE_DEST"},
		Env:  map[string]string{"COVRUN_PROFILE_DEST": "/tmp/out.profraw"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "/tmp/out.profraw")
}

// TestHostRunner_Integration_LargeOutput tests handling large output.
func TestHostRunner_Integration_LargeOutput(t *testing.T) {
	runner := NewHostRunner(zerolog.Nop())

	// Generate large output using seq; coverage reports routinely run
	// to tens of thousands of lines and must be captured whole.
	result, err := runner.Run(Command{Path: "seq", Args: []string{"1", "10000"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "1\n")
	assert.Contains(t, result.Stdout, "10000")
}

// TestHostRunner_Integration_ExitCodePropagation tests arbitrary exit codes.
func TestHostRunner_Integration_ExitCodePropagation(t *testing.T) {
	runner := NewHostRunner(zerolog.Nop())

	result, err := runner.Run(Command{Path: "sh", Args: []string{"-c", "exit 42"}})
	require.NoError(t, err)
	assert.Equal(t, 42, result.ExitCode)
}

// TestHostRunner_Integration_Uname tests getting system info.
func TestHostRunner_Integration_Uname(t *testing.T) {
	runner := NewHostRunner(zerolog.Nop())

	result, err := runner.Run(Command{Path: "uname", Args: []string{"-s"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)

	if runtime.GOOS == "linux" {
		assert.Contains(t, result.Stdout, "Linux")
	}
}

// TestHostRunner_Integration_ScriptBinary tests running a freshly written executable,
// the same way the pipeline launches an instrumented test binary.
func TestHostRunner_Integration_ScriptBinary(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "exec_script_")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	binPath := filepath.Join(tempDir, "fake_test_binary")
	script := "#!/bin/sh\nprintf '%s' \"$LLVM_PROFILE_FILE\"\n"
	require.NoError(t, os.WriteFile(binPath, []byte(script), 0755))

	runner := NewHostRunner(zerolog.Nop())
	result, err := runner.Run(Command{
		Path: binPath,
		Env:  map[string]string{"LLVM_PROFILE_FILE": filepath.Join(tempDir, "unit.profraw")},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "unit.profraw")
}
