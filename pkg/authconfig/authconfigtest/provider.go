package authconfigtest

import (
	"context"
	"os"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
)

// Provider is a minimal provider whose configure and unconfigure steps
// create and remove its sentinel file.
type Provider struct {
	authconfig.Base

	// Files are the declared persistent files.
	Files []string

	// KeepSentinel leaves the sentinel in place on unconfigure.
	KeepSentinel bool

	// UnconfigureErr is returned by Unconfigure when set.
	UnconfigureErr error

	// ValidateErr is returned by Validate when set.
	ValidateErr error

	ConfigureCalls   int
	UnconfigureCalls int
	LastOptions      authconfig.Options
}

// NewProvider creates a Provider using sentinel as its configured marker.
func NewProvider(sentinel string, files ...string) *Provider {
	p := &Provider{Base: authconfig.NewBase(), Files: files}
	p.Sentinel = sentinel
	return p
}

func (p *Provider) Name() authconfig.ProviderName { return "fake" }

func (p *Provider) Capabilities() []authconfig.Capability {
	return []authconfig.Capability{authconfig.CapabilityConfigure, authconfig.CapabilityUnconfigure}
}

func (p *Provider) Auth() authconfig.AuthInfo {
	return authconfig.AuthInfo{Type: "fake", Configuration: "internal"}
}

func (p *Provider) RequiredOptions() []authconfig.OptionDescriptor {
	return authconfig.BaseRequiredOptions()
}

func (p *Provider) OptionalOptions() []authconfig.OptionDescriptor {
	return authconfig.BaseOptionalOptions()
}

func (p *Provider) PersistentFiles() []string { return p.Files }

func (p *Provider) Realm() string { return p.BaseRealm() }

func (p *Provider) Domain() string { return p.BaseDomain() }

// Validate returns ValidateErr.
func (p *Provider) Validate(opts authconfig.Options) error {
	return p.ValidateErr
}

// Configure writes the sentinel and saves a config map to the output path.
func (p *Provider) Configure(ctx context.Context, opts authconfig.Options) error {
	p.ConfigureCalls++
	p.LastOptions = opts
	p.Opts = opts
	if err := os.WriteFile(p.Sentinel, []byte("[sssd]\n"), 0600); err != nil {
		return err
	}
	files := p.Files
	if len(files) == 0 {
		files = []string{p.Sentinel}
	}
	cm, err := authconfig.GenerateConfigMap(p.Auth().Type, p.Auth().Configuration, p.Realm(), files)
	if err != nil {
		return err
	}
	if err := cm.Capture(); err != nil {
		return err
	}
	return authconfig.SaveConfigMap(cm, opts.String(authconfig.OptOutput))
}

// Unconfigure removes the sentinel unless KeepSentinel is set.
func (p *Provider) Unconfigure(ctx context.Context) error {
	if !p.Configured() {
		return nil
	}
	p.UnconfigureCalls++
	if p.UnconfigureErr != nil {
		return p.UnconfigureErr
	}
	if p.KeepSentinel {
		return nil
	}
	return os.Remove(p.Sentinel)
}
