package authconfig

import (
	"context"
	"os"
	"strings"
	"time"
)

// Provider joins the host to one authentication backend and declares the
// artifact metadata for the result. A Provider value serves a single
// invocation; derived realm and domain are cached on it.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// Capabilities returns the features supported by this provider.
	Capabilities() []Capability

	// Auth returns the auth type and configuration mode recorded in the config map.
	Auth() AuthInfo

	// RequiredOptions returns the base required options merged with the provider's own.
	RequiredOptions() []OptionDescriptor

	// OptionalOptions returns the base optional options merged with the provider's own.
	OptionalOptions() []OptionDescriptor

	// PersistentFiles returns the ordered paths that carry the configured state.
	PersistentFiles() []string

	// Configured reports whether the sentinel file exists.
	Configured() bool

	// Configure runs the provider's enrollment sequence and writes the config
	// map to opts[OptOutput].
	Configure(ctx context.Context, opts Options) error

	// Unconfigure leaves the backend. It does nothing when not configured.
	Unconfigure(ctx context.Context) error

	// Realm returns the uppercase Kerberos realm for this invocation.
	Realm() string

	// Domain returns the DNS domain for this invocation.
	Domain() string
}

// Verifier is implemented by providers that contribute post-configuration checks.
type Verifier interface {
	Checks(opts Options) []Check
}

// OptionsValidator is implemented by providers that check their own options.
// Validate must not touch the host.
type OptionsValidator interface {
	Validate(opts Options) error
}

// ProviderFactory creates a fresh provider for one invocation.
type ProviderFactory interface {
	Create() Provider
}

// ProviderFactoryFunc adapts a function to ProviderFactory.
type ProviderFactoryFunc func() Provider

// Create implements ProviderFactory.
func (f ProviderFactoryFunc) Create() Provider {
	return f()
}

// Base carries the state and behavior every provider shares: the bound
// options, the sentinel path and the run timestamp. Providers embed it.
type Base struct {
	// Opts are the options of the current invocation.
	Opts Options

	// Sentinel is the file whose existence means "configured".
	Sentinel string

	// Timestamp is fixed at construction and used for backup suffixes.
	Timestamp string
}

// NewBase returns a Base using the default sentinel.
func NewBase() Base {
	return Base{
		Opts:      Options{},
		Sentinel:  SSSDConfig,
		Timestamp: time.Now().Format(TimestampFormat),
	}
}

// Configured reports whether the sentinel file exists.
func (b *Base) Configured() bool {
	_, err := os.Stat(b.Sentinel)
	return err == nil
}

// HasCapability checks if caps contains c.
func HasCapability(caps []Capability, c Capability) bool {
	for _, have := range caps {
		if have == c {
			return true
		}
	}
	return false
}

// BaseDomain returns the DNS domain of the host option.
func (b *Base) BaseDomain() string {
	return DomainFromHost(b.Opts.String(OptHost))
}

// BaseRealm returns the uppercase base domain.
func (b *Base) BaseRealm() string {
	return strings.ToUpper(b.BaseDomain())
}

// DomainFromHost strips the first label from a fully qualified host name.
// It returns "" for a single-label host.
func DomainFromHost(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	idx := strings.Index(host, ".")
	if idx < 0 || idx == len(host)-1 {
		return ""
	}
	return host[idx+1:]
}
