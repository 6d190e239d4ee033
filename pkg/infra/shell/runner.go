package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// waitDelayFloor bounds how long Run waits for output pipes after the
// process group is killed. Detached children may keep them open.
const waitDelayFloor = time.Second

// Runner runs commands through "sh -c" and captures their output
type Runner struct {
	shell       string
	gracePeriod time.Duration
	env         []string
}

// Option is a functional option for Runner configuration
type Option func(*Runner)

// WithShell sets the shell binary, "sh" by default
func WithShell(shell string) Option {
	return func(r *Runner) {
		r.shell = shell
	}
}

// WithGracePeriod makes cancellation send SIGTERM to the process group and
// escalate to SIGKILL after d. Without it the group is killed immediately.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) {
		r.gracePeriod = d
	}
}

// WithEnv appends KEY=VALUE entries to the inherited environment
func WithEnv(env ...string) Option {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// NewRunner creates a new shell Runner
func NewRunner(opts ...Option) *Runner {
	r := &Runner{shell: "sh"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes command in dir. Output is returned even when the command
// fails so that callers can report stderr.
func (r *Runner) Run(ctx context.Context, dir, command string) (*model.ActionOutput, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.shell, "-c", command) // #nosec G204 commands come from trusted configuration
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	// Own process group so that cancellation reaches children of the shell
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		if r.gracePeriod <= 0 {
			return syscall.Kill(pgid, syscall.SIGKILL)
		}
		if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
			return syscall.Kill(pgid, syscall.SIGKILL)
		}
		go func() {
			time.Sleep(r.gracePeriod)
			_ = syscall.Kill(pgid, syscall.SIGKILL)
		}()
		return nil
	}

	cmd.WaitDelay = r.gracePeriod + waitDelayFloor

	logging.From(ctx).Debug("Running command", "command", command, "dir", dir)

	err := cmd.Run()
	out := &model.ActionOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return out, nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Join(err, ctxErr)
	}

	return out, goerr.Wrap(err, "command failed",
		goerr.V("command", command),
		goerr.V("dir", dir),
		goerr.V("exit_code", exitCode),
	)
}
