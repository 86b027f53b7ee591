// Package extool runs external command-line tools with a deadline and classifies how they fail.
package extool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// waitDelay bounds how long Run waits for output pipes after the process has been killed.
const waitDelay = 5 * time.Second

var (
	// ErrTimeout indicates the tool did not finish before its deadline.
	ErrTimeout = errors.New("timed out")
	// ErrNotInstalled indicates the tool binary could not be found.
	ErrNotInstalled = errors.New("executable not found")
	// ErrExit indicates the tool exited with a non-zero status.
	ErrExit = errors.New("non-zero exit status")
)

// Error describes a failed tool invocation.
type Error struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	if errors.Is(e.Err, ErrExit) {
		return fmt.Sprintf("%s: exit status %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Command is one invocation of an external tool.
type Command struct {
	Path    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// Result holds the captured output of a successful invocation.
type Result struct {
	Stdout   []byte
	Stderr   string
	Duration time.Duration
}

// Runner executes commands. Implementations must return *Error for tool failures.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) (*Result, error)

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// ExecRunner runs commands as child processes of the current process.
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run starts the command, waits for it and captures stdout and stderr. A deadline from
// cmd.Timeout kills the process and is reported as ErrTimeout.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	r.logger.Debug("Running external tool",
		zap.String("tool", cmd.Path),
		zap.Strings("args", cmd.Args),
		zap.Duration("timeout", cmd.Timeout))

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)

	if err == nil {
		r.logger.Debug("External tool finished",
			zap.String("tool", cmd.Path),
			zap.Duration("elapsed", elapsed))
		return &Result{Stdout: stdout.Bytes(), Stderr: stderr.String(), Duration: elapsed}, nil
	}

	toolErr := classify(ctx, cmd.Path, err, stderr.String())
	r.logger.Warn("External tool failed",
		zap.String("tool", cmd.Path),
		zap.Duration("elapsed", elapsed),
		zap.Int("exit_code", toolErr.ExitCode),
		zap.String("stderr", toolErr.Stderr),
		zap.Error(toolErr.Err))
	return nil, toolErr
}

func classify(ctx context.Context, tool string, err error, stderr string) *Error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Tool: tool, ExitCode: -1, Stderr: stderr, Err: ErrTimeout}
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return &Error{Tool: tool, ExitCode: -1, Stderr: stderr, Err: fmt.Errorf("%w: %v", ErrNotInstalled, err)}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Error{Tool: tool, ExitCode: exitErr.ExitCode(), Stderr: stderr, Err: ErrExit}
	}

	return &Error{Tool: tool, ExitCode: -1, Stderr: stderr, Err: err}
}
