// Package cmdexec is the one execution contract shared by migrations,
// verifications, and user-declared commands (spec.md §4.7).
//
// A command's `run` string is handed to `sh -c`: run values come from the
// user's own version-controlled graft.yaml, so shell metacharacters are
// intentional, the same trust model as a Makefile target. Every spawn is
// placed in its own process group (grounded on the Setpgid pattern in
// other_examples' git iterator) so cancellation can SIGTERM the whole tree,
// not just the immediate child, and is registered with pkg/procregistry for
// the duration of the run.
package cmdexec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/logger"
	"github.com/graft-dev/graft/pkg/procregistry"
	"github.com/graft-dev/graft/pkg/stringutil"
	"github.com/sourcegraph/conc/pool"
)

var cmdexecLog = logger.New("cmdexec:cmdexec")

// GracePeriod is how long a cancelled command is given to exit after
// SIGTERM before SIGKILL is sent to its process group.
const GracePeriod = 5 * time.Second

const stderrTailLines = 40

// LineFunc is called once per line of stdout or stderr as a command runs.
type LineFunc func(stream Stream, line string)

// Stream identifies which pipe a streamed line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Role identifies why a command is being run, recorded in the process
// registry alongside its pid (spec.md §4.7).
type Role string

const (
	RoleMigration  Role = "migration"
	RoleVerify     Role = "verify"
	RoleUserCmd    Role = "user_command"
	RoleGitHelper  Role = "git_helper"
)

// Options configures a single Run invocation.
type Options struct {
	// Repo identifies the repository the command runs against, recorded in
	// the process registry.
	Repo string
	// Role classifies the command for the process registry.
	Role Role
	// Timeout bounds the command's total runtime. Zero means no timeout.
	Timeout time.Duration
	// OnLine is called for every streamed line, if non-nil.
	OnLine LineFunc
	// LogPath, if non-empty, is recorded in the process registry entry so a
	// front-end can locate captured output for a still-running command.
	LogPath string
}

// Result is the outcome of a completed command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Run executes cmd.Run as `sh -c <run>` with cmd.WorkingDir resolved
// relative to baseDir, cmd.Env overlaid on the inherited environment, in its
// own process group. It streams output line-by-line via opts.OnLine and
// returns the full captured text.
func Run(ctx context.Context, cmd domain.Command, baseDir string, opts Options) (Result, error) {
	workDir := baseDir
	if cmd.WorkingDir != "" {
		workDir = filepath.Join(baseDir, cmd.WorkingDir)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	execCmd := exec.Command("sh", "-c", cmd.Run)
	execCmd.Dir = workDir
	execCmd.Env = buildEnv(cmd.Env)
	execCmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdoutPipe, err := execCmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("cmdexec: stdout pipe: %w", err)
	}
	stderrPipe, err := execCmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("cmdexec: stderr pipe: %w", err)
	}

	cmdexecLog.Printf("spawning %q in %s (role=%s)", cmd.Name, workDir, opts.Role)
	if err := execCmd.Start(); err != nil {
		return Result{}, fmt.Errorf("cmdexec: start %q: %w", cmd.Name, err)
	}

	entry := procregistry.Entry{
		PID:       execCmd.Process.Pid,
		Repo:      opts.Repo,
		Role:      string(opts.Role),
		StartedAt: time.Now().UTC(),
		LogPath:   opts.LogPath,
	}
	if err := procregistry.Register(entry); err != nil {
		cmdexecLog.Printf("failed to register process %d: %v", entry.PID, err)
	}
	defer func() {
		if err := procregistry.Deregister(entry.PID); err != nil {
			cmdexecLog.Printf("failed to deregister process %d: %v", entry.PID, err)
		}
	}()

	var stdoutBuf, stderrBuf safeBuffer
	p := pool.New().WithErrors()
	p.Go(func() error { return pumpLines(stdoutPipe, Stdout, opts.OnLine, &stdoutBuf) })
	p.Go(func() error { return pumpLines(stderrPipe, Stderr, opts.OnLine, &stderrBuf) })

	waitDone := make(chan error, 1)
	go func() { waitDone <- execCmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-waitDone:
	case <-runCtx.Done():
		cmdexecLog.Printf("cancelling %q: %v", cmd.Name, runCtx.Err())
		terminateProcessGroup(execCmd)
		select {
		case waitErr = <-waitDone:
		case <-time.After(GracePeriod):
			killProcessGroup(execCmd)
			waitErr = <-waitDone
		}
	}

	if err := p.Wait(); err != nil {
		cmdexecLog.Printf("stream pump error for %q: %v", cmd.Name, err)
	}

	result := Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()}
	if runCtx.Err() == context.DeadlineExceeded {
		return result, &grafterr.TimeoutError{Op: cmd.Name, ElapsedMS: opts.Timeout.Milliseconds()}
	}

	exitCode := 0
	if waitErr != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if ok := asExitError(waitErr, &exitErr); ok {
			exitCode = exitErr.ExitCode()
		}
	}
	result.ExitCode = exitCode
	if exitCode != 0 {
		return result, &grafterr.GitError{
			Op:         cmd.Name,
			Argv:       []string{"sh", "-c", cmd.Run},
			ExitCode:   exitCode,
			StderrTail: stringutil.LastLines(result.Stderr, stderrTailLines),
			Err:        waitErr,
		}
	}
	return result, nil
}

func buildEnv(overrides map[string]string) []string {
	base := os.Environ()
	if len(overrides) == 0 {
		return base
	}
	env := make([]string, 0, len(base)+len(overrides))
	env = append(env, base...)
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

// pumpLines streams r line-by-line, stripping any ANSI escape sequences a
// migration/verify/user command's own terminal-colored output might carry:
// captured text ends up embedded in error messages and migration.marker
// style checks downstream, which escape codes would otherwise corrupt.
func pumpLines(r io.Reader, stream Stream, onLine LineFunc, capture *safeBuffer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := stringutil.StripANSI(scanner.Text())
		capture.WriteLine(line)
		if onLine != nil {
			onLine(stream, line)
		}
	}
	return scanner.Err()
}

// terminateProcessGroup sends SIGTERM to cmd's process group. If the
// process was not placed in its own group (e.g. on a platform without
// Setpgid support), it falls back to signalling the process directly.
func terminateProcessGroup(cmd *exec.Cmd) {
	pgid := -cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}
}

func killProcessGroup(cmd *exec.Cmd) {
	pgid := -cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

// safeBuffer accumulates streamed lines for the final captured-text result.
// Each instance is written from a single pump goroutine only.
type safeBuffer struct {
	lines []string
}

func (b *safeBuffer) WriteLine(line string) {
	b.lines = append(b.lines, line)
}

func (b *safeBuffer) String() string {
	out := ""
	for i, l := range b.lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
