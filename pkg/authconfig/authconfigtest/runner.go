// Package authconfigtest provides test doubles for the authconfig package.
package authconfigtest

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
)

// Handler simulates one command. A nil result with a nil error counts as
// success with empty output.
type Handler func(cmd authconfig.Command) (*authconfig.CommandResult, error)

// Runner records every command it is asked to run and dispatches to
// handlers keyed by the command's base name.
type Runner struct {
	mu       sync.Mutex
	Commands []authconfig.Command
	Handlers map[string]Handler
}

// NewRunner creates a Runner with no handlers.
func NewRunner() *Runner {
	return &Runner{Handlers: make(map[string]Handler)}
}

// On installs a handler for the command with the given base name.
func (r *Runner) On(name string, h Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Handlers[name] = h
	return r
}

// Fail makes the named command exit with code and the given output.
func (r *Runner) Fail(name string, code int, stdout, stderr string) *Runner {
	return r.On(name, func(cmd authconfig.Command) (*authconfig.CommandResult, error) {
		return nil, authconfig.ErrCommand(&authconfig.CommandError{
			Command:  cmd.Path,
			Args:     authconfig.RedactArgs(cmd.Args),
			ExitCode: code,
			Stdout:   stdout,
			Stderr:   stderr,
		})
	})
}

// Run implements authconfig.Runner.
func (r *Runner) Run(ctx context.Context, cmd authconfig.Command) (*authconfig.CommandResult, error) {
	r.mu.Lock()
	r.Commands = append(r.Commands, cmd)
	h := r.Handlers[filepath.Base(cmd.Path)]
	r.mu.Unlock()

	if h == nil {
		return &authconfig.CommandResult{}, nil
	}
	res, err := h(cmd)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &authconfig.CommandResult{}
	}
	return res, nil
}

// Names returns the base names of the recorded commands in order.
func (r *Runner) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		names[i] = filepath.Base(c.Path)
	}
	return names
}

// Find returns the first recorded command with the given base name.
func (r *Runner) Find(name string) (authconfig.Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Commands {
		if filepath.Base(c.Path) == name {
			return c, true
		}
	}
	return authconfig.Command{}, false
}
