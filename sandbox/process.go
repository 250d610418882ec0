package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// ProcessRunner implements CommandRunner with os/exec. Each child runs in
// its own process group (a job tree on Windows) so a timeout kills every
// descendant, not just the direct child.
type ProcessRunner struct {
	maxOutputBytes int
	killGrace      time.Duration
}

// NewProcessRunner creates a runner capturing at most maxOutputBytes per
// stream. killGrace bounds how long Run waits for output pipes to close
// once the process has exited or been killed.
func NewProcessRunner(maxOutputBytes int, killGrace time.Duration) *ProcessRunner {
	return &ProcessRunner{
		maxOutputBytes: maxOutputBytes,
		killGrace:      killGrace,
	}
}

// Run executes c and waits for it. TimedOut is reported instead of an error
// when the deadline or the parent context ends the process.
func (r *ProcessRunner) Run(ctx context.Context, c Command) (ProcessResult, error) {
	if len(c.Args) == 0 {
		return ProcessResult{}, errors.New("no command provided")
	}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Args[0], c.Args[1:]...) //nolint:gosec // running submitted programs is the point
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.WaitDelay = r.killGrace
	configureProcessTree(cmd)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdoutBuf, remaining: r.maxOutputBytes}
	cmd.Stderr = &limitedWriter{w: &stderrBuf, remaining: r.maxOutputBytes}

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	// Descendants that outlived the leader are reaped with the group.
	_ = killProcessTree(cmd)

	result := ProcessResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: duration,
	}

	if runCtx.Err() != nil {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			result.ExitCode = exitCode(exitErr.ProcessState)
			result.Signal = signalName(exitErr.ProcessState)
		case errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
			// Exited, but a leftover child held the output pipes open.
			result.ExitCode = exitCode(cmd.ProcessState)
			result.Signal = signalName(cmd.ProcessState)
		default:
			return result, fmt.Errorf("failed to run %s: %w", c.Args[0], err)
		}
	}

	return result, nil
}

// limitedWriter discards everything past the cap while reporting full
// writes, so a chatty child never sees a broken pipe.
type limitedWriter struct {
	w         io.Writer
	remaining int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.remaining <= 0 {
		return n, nil
	}
	if len(p) > lw.remaining {
		p = p[:lw.remaining]
	}
	written, err := lw.w.Write(p)
	lw.remaining -= written
	if err != nil {
		return written, err
	}
	return n, nil
}
