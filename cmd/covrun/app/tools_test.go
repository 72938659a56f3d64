package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

func TestToolsCommand(t *testing.T) {
	t.Run("should print the path of every resolved tool", func(t *testing.T) {
		chdirTemp(t)

		out, err := execute(t, "tools",
			"--tool-path-override", "llvm-profdata=/opt/llvm/bin/llvm-profdata",
			"--tool-path-override", "llvm-cov=/opt/llvm/bin/llvm-cov",
		)
		require.NoError(t, err)
		assert.Contains(t, out, "tools for the llvm backend:")
		assert.Contains(t, out, "/opt/llvm/bin/llvm-profdata")
		assert.Contains(t, out, "/opt/llvm/bin/llvm-cov")
	})

	t.Run("should report every missing tool in one pass", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("PATH", "")

		out, err := execute(t, "tools")
		require.Error(t, err)
		assert.Contains(t, out, "llvm-profdata")
		assert.Contains(t, out, "llvm-cov")
		assert.Contains(t, out, "missing")

		assert.True(t, errors.Is(err, coverrs.ErrToolNotFound))
		assert.Len(t, multierr.Errors(err), 2, "both tools must be reported")
		assert.Contains(t, err.Error(), "install LLVM")
	})

	t.Run("should include rustup for tarpaulin branch coverage", func(t *testing.T) {
		chdirTemp(t)

		out, err := execute(t, "tools", "--backend", "tarpaulin", "--branch",
			"--tool-path-override", "cargo=/fake/cargo",
			"--tool-path-override", "rustup=/fake/rustup",
		)
		require.NoError(t, err)
		assert.Contains(t, out, "tools for the tarpaulin backend:")
		assert.Contains(t, out, "/fake/cargo")
		assert.Contains(t, out, "/fake/rustup")
	})

	t.Run("should reject an unknown backend", func(t *testing.T) {
		chdirTemp(t)

		_, err := execute(t, "tools", "--backend", "gcov")
		require.Error(t, err)
		assert.True(t, errors.Is(err, coverrs.ErrValidation))
	})

	t.Run("should reject a malformed override", func(t *testing.T) {
		chdirTemp(t)

		_, err := execute(t, "tools", "--tool-path-override", "llvm-cov")
		require.Error(t, err)
		assert.True(t, errors.Is(err, coverrs.ErrValidation))
		assert.Equal(t, 1, coverrs.ExitCode(err))
	})
}
