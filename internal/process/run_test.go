package process

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	res, err := Run(context.Background(), Command{Binary: "echo", Args: []string{"hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestRun_NonZeroExitKeepsStderr(t *testing.T) {
	res, err := Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "echo 'Invalid data found' >&2; exit 3"},
	})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "Invalid data found", res.StderrTail(100))
	assert.Contains(t, err.Error(), "exit code 3")
}

func TestRun_MissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Command{Binary: "definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
}

func TestRun_EmptyBinary(t *testing.T) {
	_, err := Run(context.Background(), Command{})
	assert.ErrorIs(t, err, ErrBinaryRequired)
}

func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, Command{Binary: "sleep", Args: []string{"10"}, GracePeriod: time.Second})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResult_StderrTail(t *testing.T) {
	r := &Result{Stderr: []byte("0123456789\n")}
	assert.Equal(t, "789", r.StderrTail(4))

	var nilResult *Result
	assert.Empty(t, nilResult.StderrTail(10))
}

func TestCommand_String(t *testing.T) {
	c := Command{Binary: "ffmpeg", Args: []string{"-y", "-i", "in.mp4"}}
	assert.True(t, strings.HasPrefix(c.String(), "ffmpeg -y"))
}
