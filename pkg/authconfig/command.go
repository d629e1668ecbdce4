package authconfig

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// Command is one external tool invocation.
type Command struct {
	// Path is the binary to run.
	Path string

	// Args are passed verbatim.
	Args []string

	// Stdin is fed to the process when non-empty.
	Stdin string
}

// String renders the command line with secrets redacted.
func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(RedactArgs(c.Args), " "))
}

// CommandResult holds the captured output of a successful command.
type CommandResult struct {
	Stdout string
	Stderr string
}

// Runner executes external commands. Run returns a command-category error
// wrapping a *CommandError on non-zero exit or start failure.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*CommandResult, error)
}

// ExecRunner runs commands as local subprocesses.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, cmd Command) (*CommandResult, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}

	log.Debugf(ctx)("Running %s", cmd)
	err := c.Run()
	if err == nil {
		return &CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}

	cerr := &CommandError{
		Command:  cmd.Path,
		Args:     RedactArgs(cmd.Args),
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cerr.ExitCode = exitErr.ExitCode()
	}
	return nil, ErrCommand(cerr)
}

// RedactArgs masks the values of password arguments.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	redactNext := false
	for i, a := range args {
		switch {
		case redactNext:
			out[i] = "********"
			redactNext = false
		case strings.HasPrefix(a, "--password="):
			out[i] = "--password=********"
		case a == "--password" || a == "-w":
			out[i] = a
			redactNext = true
		default:
			out[i] = a
		}
	}
	return out
}

// LogCommandError logs err with the captured output of the failing command
// when there is one, and marks err as logged.
func LogCommandError(ctx context.Context, err error) {
	var acErr *Error
	if errors.As(err, &acErr) {
		acErr.logged = true
	}

	logger := log.GetLogger(ctx)
	if cerr, ok := AsCommandError(err); ok {
		logger.WithFields(map[string]interface{}{
			"command":   strings.TrimSpace(cerr.Command + " " + strings.Join(cerr.Args, " ")),
			"exit_code": cerr.ExitCode,
			"stdout":    cerr.Stdout,
			"stderr":    cerr.Stderr,
		}).Error(err.Error())
		return
	}
	logger.Error(err.Error())
}
