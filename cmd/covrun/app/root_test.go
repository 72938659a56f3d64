package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the covrun command tree with args and returns the
// combined output. Tests point HOME and COVRUN_HOME at throwaway
// directories so the log file sink never touches the real home.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("COVRUN_HOME", home)

	cmd := NewCovrunCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	// A nil slice would make cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

func TestCovrunCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "covrun")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "tools")
	assert.Contains(t, out, "init")
	assert.Contains(t, out, "--verbose")
	assert.Contains(t, out, "--quiet")
	assert.Contains(t, out, "--log-file")
}

func TestCovrunCommand_NoArgs(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:", "bare invocation should print help")
}

func TestCovrunCommand_UnknownCommand(t *testing.T) {
	_, err := execute(t, "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}
