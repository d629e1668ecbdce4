package authconfig

import (
	"context"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// Manager drives the configure/unconfigure lifecycle of a provider.
type Manager struct {
	registry *Registry
	safeDir  SafeDir
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithRegistry sets the provider registry.
func WithRegistry(r *Registry) ManagerOption {
	return func(m *Manager) {
		m.registry = r
	}
}

// WithSafeDir sets the directory artifacts must be written under.
func WithSafeDir(dir SafeDir) ManagerOption {
	return func(m *Manager) {
		m.safeDir = dir
	}
}

// NewManager creates a new Manager with the given options.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: DefaultRegistry,
		safeDir:  DefaultSafeDir,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// SafeDir returns the directory artifacts must be written under.
func (m *Manager) SafeDir() SafeDir {
	return m.safeDir
}

// Provider creates a fresh provider by name.
func (m *Manager) Provider(name ProviderName) (Provider, error) {
	return m.registry.New(name)
}

// ValidateOptions checks that the output path is set and resolves under
// the safe directory. It has no side effects.
func (m *Manager) ValidateOptions(opts Options) error {
	if !opts.Has(OptOutput) {
		return ErrValidation("output option is required").WithOperation("validate")
	}
	if _, err := m.safeDir.Check(opts.String(OptOutput)); err != nil {
		return err
	}
	return nil
}

// RunConfigure validates opts, handles an existing configuration and
// delegates to the provider. The provider receives a copy of opts with the
// output path normalized. Providers implementing OptionsValidator are
// validated before a forced unconfigure.
func (m *Manager) RunConfigure(ctx context.Context, p Provider, opts Options) error {
	ctx = log.WithFields(ctx, map[string]interface{}{"provider": string(p.Name())})

	if err := m.ValidateOptions(opts); err != nil {
		LogCommandError(ctx, err)
		return err
	}
	output, _ := m.safeDir.Check(opts.String(OptOutput))

	bound := opts.WithDefaults(p.OptionalOptions())
	bound[OptOutput] = output

	if v, ok := p.(OptionsValidator); ok {
		if err := v.Validate(bound); err != nil {
			LogCommandError(ctx, err)
			return err
		}
	}

	if p.Configured() && bound.Bool(OptForce) {
		log.Warnf(ctx)("%s already configured, unconfiguring first", p.Name())
		if err := m.Unconfigure(ctx, p); err != nil {
			return err
		}
	}

	if p.Configured() {
		err := ErrAlreadyConfigured(p.Name()).WithOperation("configure")
		LogCommandError(ctx, err)
		return err
	}

	if !InProvisioningContext() {
		err := ErrNotInContext(string(p.Name()) + " configuration").
			WithProvider(p.Name()).
			WithOperation("configure")
		LogCommandError(ctx, err)
		return err
	}

	log.Infof(ctx)("Configuring %s", p.Name())
	return p.Configure(ctx, bound)
}

// Configured reports whether the provider's sentinel file exists.
func (m *Manager) Configured(p Provider) bool {
	return p.Configured()
}

// Unconfigure runs the provider's leave sequence. It returns immediately
// when the provider is not configured.
func (m *Manager) Unconfigure(ctx context.Context, p Provider) error {
	if !p.Configured() {
		log.Debugf(ctx)("%s not configured, nothing to unconfigure", p.Name())
		return nil
	}
	if err := p.Unconfigure(ctx); err != nil {
		LogCommandError(ctx, err)
		return err
	}
	return nil
}
