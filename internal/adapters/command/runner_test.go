package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealRunner_Run_Success(t *testing.T) {
	runner := NewRealRunner()

	result, err := runner.Run(context.Background(), "echo", "0abc")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "0abc\n", result.Stdout)
}

func TestRealRunner_Run_NonZeroExitIsNotAnError(t *testing.T) {
	runner := NewRealRunner()

	result, err := runner.Run(context.Background(), "sh", "-c", "echo 'error: 404' >&2; exit 1")
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, "error: 404\n", result.Stderr)
}

func TestRealRunner_Run_NotFound(t *testing.T) {
	runner := NewRealRunner()

	_, err := runner.Run(context.Background(), "nonexistent-command-12345")
	assert.Error(t, err)
}

func TestRealRunner_Run_Timeout(t *testing.T) {
	runner := NewRealRunner(WithTimeout(50 * time.Millisecond))

	_, err := runner.Run(context.Background(), "sleep", "5")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRealRunner_Run_Env(t *testing.T) {
	runner := NewRealRunner(WithEnv("PLUGMIRROR_TEST=yes"))

	result, err := runner.Run(context.Background(), "sh", "-c", "printf %s \"$PLUGMIRROR_TEST\"")
	require.NoError(t, err)
	assert.Equal(t, "yes", result.Stdout)
}
