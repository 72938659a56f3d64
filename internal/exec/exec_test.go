package exec

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

func TestHostRunner_Run(t *testing.T) {
	runner := NewHostRunner(zerolog.Nop())

	t.Run("should execute a simple command successfully", func(t *testing.T) {
		result, err := runner.Run(Command{Path: "echo", Args: []string{"hello world"}})
		require.NoError(t, err)
		assert.Equal(t, "hello world\n", result.Stdout)
		assert.Empty(t, result.Stderr)
		assert.Equal(t, 0, result.ExitCode)
		assert.NotEmpty(t, result.RunID)
	})

	t.Run("should capture stderr", func(t *testing.T) {
		// This command writes "hello stderr" to stderr and exits.
		result, err := runner.Run(Command{Path: "sh", Args: []string{"-c", "echo 'hello stderr' 1>&2"}})
		require.NoError(t, err)
		assert.Empty(t, result.Stdout)
		assert.Equal(t, "hello stderr\n", result.Stderr)
		assert.Equal(t, 0, result.ExitCode)
	})

	t.Run("should handle non-zero exit codes", func(t *testing.T) {
		result, err := runner.Run(Command{Path: "sh", Args: []string{"-c", "exit 42"}})
		require.NoError(t, err) // We don't expect an error from Run itself
		assert.Equal(t, 42, result.ExitCode)
	})

	t.Run("should return error for non-existent command", func(t *testing.T) {
		_, err := runner.Run(Command{Path: "this_command_does_not_exist_12345"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, coverrs.ErrLaunchFailure))
	})

	t.Run("should pass the env overlay to the child process", func(t *testing.T) {
		result, err := runner.Run(Command{
			Path: "sh",
			Args: []string{"-c", "printf '%s' \"$COVRUN_TEST_VAR\""},
			Env:  map[string]string{"COVRUN_TEST_VAR": "overlay-value"},
		})
		require.NoError(t, err)
		assert.Equal(t, "overlay-value", result.Stdout)
	})

	t.Run("should let the overlay override inherited variables", func(t *testing.T) {
		t.Setenv("COVRUN_TEST_VAR", "inherited")
		result, err := runner.Run(Command{
			Path: "sh",
			Args: []string{"-c", "printf '%s' \"$COVRUN_TEST_VAR\""},
			Env:  map[string]string{"COVRUN_TEST_VAR": "overridden"},
		})
		require.NoError(t, err)
		assert.Equal(t, "overridden", result.Stdout)
	})

	t.Run("should not disturb the parent environment", func(t *testing.T) {
		t.Setenv("COVRUN_TEST_KEEP", "kept")
		result, err := runner.Run(Command{
			Path: "sh",
			Args: []string{"-c", "printf '%s' \"$COVRUN_TEST_KEEP\""},
			Env:  map[string]string{"COVRUN_TEST_VAR": "unrelated"},
		})
		require.NoError(t, err)
		assert.Equal(t, "kept", result.Stdout)
	})
}

func TestMergeEnv(t *testing.T) {
	t.Run("should return the parent environment when overlay is empty", func(t *testing.T) {
		merged := mergeEnv(nil)
		assert.NotEmpty(t, merged)
	})

	t.Run("should append overlay entries in sorted key order", func(t *testing.T) {
		merged := mergeEnv(map[string]string{"ZZZ_B": "2", "ZZZ_A": "1"})
		n := len(merged)
		require.GreaterOrEqual(t, n, 2)
		assert.Equal(t, "ZZZ_A=1", merged[n-2])
		assert.Equal(t, "ZZZ_B=2", merged[n-1])
	})
}
