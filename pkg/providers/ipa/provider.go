// Package ipa provides the FreeIPA identity-domain provider implementation.
package ipa

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/hostconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// External tools driven by the provider.
const (
	InstallCommand   = "/usr/sbin/ipa-client-install"
	GetKeytabCommand = "/usr/sbin/ipa-getkeytab"
	KinitCommand     = "/usr/bin/kinit"
)

// Provider-specific option names.
const (
	OptServer    = "ipaserver"
	OptPassword  = "ipapassword"
	OptPrincipal = "ipaprincipal"
	OptDomain    = "ipadomain"
	OptRealm     = "iparealm"
)

// Host files touched outside the shared authconfig paths.
const (
	HostnameFile      = "/etc/hostname"
	NetworkConfigFile = "/etc/sysconfig/network"
)

// ServiceClass is the Kerberos service of the HTTP principal.
const ServiceClass = "HTTP"

var persistentFiles = []string{
	authconfig.HTTPKeytab,
	"/etc/ipa/ca.crt",
	"/etc/ipa/default.conf",
	"/etc/ipa/nssdb/cert8.db",
	"/etc/ipa/nssdb/key3.db",
	"/etc/ipa/nssdb/pwdfile.txt",
	"/etc/ipa/nssdb/secmod.db",
	authconfig.KerberosConfigFile,
	"/etc/krb5.keytab",
	"/etc/nsswitch.conf",
	"/etc/openldap/ldap.conf",
	"/etc/pam.d/fingerprint-auth-ac",
	authconfig.PAMConfig,
	"/etc/pam.d/password-auth-ac",
	"/etc/pam.d/postlogin-ac",
	"/etc/pam.d/smartcard-auth-ac",
	"/etc/pam.d/system-auth-ac",
	"/etc/pki/ca-trust/source/ipa.p11-kit",
	authconfig.SSSDConfig,
	"/etc/sysconfig/authconfig",
	NetworkConfigFile,
}

// Provider joins the host to a FreeIPA domain.
type Provider struct {
	authconfig.Base

	runner      authconfig.Runner
	root        string
	serviceUser string

	realm  string
	domain string
}

// ProviderOption configures the Provider.
type ProviderOption func(*Provider)

// WithRunner sets the command runner.
func WithRunner(r authconfig.Runner) ProviderOption {
	return func(p *Provider) {
		p.runner = r
	}
}

// WithRoot resolves every host path under root instead of /.
func WithRoot(root string) ProviderOption {
	return func(p *Provider) {
		p.root = root
	}
}

// WithServiceUser sets the account that owns the HTTP keytab.
func WithServiceUser(user string) ProviderOption {
	return func(p *Provider) {
		p.serviceUser = user
	}
}

// WithTimestamp fixes the timestamp used for backup suffixes.
func WithTimestamp(ts string) ProviderOption {
	return func(p *Provider) {
		p.Timestamp = ts
	}
}

// New creates a new IPA provider.
func New(opts ...ProviderOption) *Provider {
	p := &Provider{
		Base:        authconfig.NewBase(),
		runner:      authconfig.ExecRunner{},
		serviceUser: authconfig.ApacheUser,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Sentinel = p.path(authconfig.SSSDConfig)
	return p
}

// Name implements authconfig.Provider.
func (p *Provider) Name() authconfig.ProviderName {
	return authconfig.ProviderIPA
}

// Capabilities implements authconfig.Provider.
func (p *Provider) Capabilities() []authconfig.Capability {
	return []authconfig.Capability{
		authconfig.CapabilityConfigure,
		authconfig.CapabilityUnconfigure,
		authconfig.CapabilityVerify,
	}
}

// Auth implements authconfig.Provider.
func (p *Provider) Auth() authconfig.AuthInfo {
	return authconfig.AuthInfo{Type: "ipa", Configuration: "external"}
}

// RequiredOptions implements authconfig.Provider.
func (p *Provider) RequiredOptions() []authconfig.OptionDescriptor {
	return authconfig.MergeOptions(authconfig.BaseRequiredOptions(),
		authconfig.OptionDescriptor{Name: OptServer, Description: "IPA Server Fqdn", Required: true},
		authconfig.OptionDescriptor{Name: OptPassword, Description: "IPA Server Password", Required: true},
	)
}

// OptionalOptions implements authconfig.Provider.
func (p *Provider) OptionalOptions() []authconfig.OptionDescriptor {
	return authconfig.MergeOptions(authconfig.BaseOptionalOptions(),
		authconfig.OptionDescriptor{Name: OptPrincipal, Description: "IPA Server Principal", Default: "admin"},
		authconfig.OptionDescriptor{Name: OptDomain, Description: "Domain of IPA Server"},
		authconfig.OptionDescriptor{Name: OptRealm, Description: "Realm of IPA Server"},
	)
}

// PersistentFiles implements authconfig.Provider.
func (p *Provider) PersistentFiles() []string {
	files := make([]string, len(persistentFiles))
	copy(files, persistentFiles)
	return files
}

// Domain returns ipadomain, else the IPA server's DNS domain, else the
// host's. The first result is kept for the life of the provider.
func (p *Provider) Domain() string {
	if p.domain != "" {
		return p.domain
	}
	switch {
	case p.Opts.Has(OptDomain):
		p.domain = p.Opts.String(OptDomain)
	case p.Opts.Has(OptServer):
		p.domain = authconfig.DomainFromHost(p.Opts.String(OptServer))
	}
	if p.domain == "" {
		p.domain = p.BaseDomain()
	}
	return p.domain
}

// Realm returns iparealm, else the domain, uppercased. The first result is
// kept for the life of the provider.
func (p *Provider) Realm() string {
	if p.realm != "" {
		return p.realm
	}
	realm := p.Opts.String(OptRealm)
	if realm == "" {
		realm = p.Domain()
	}
	p.realm = strings.ToUpper(realm)
	return p.realm
}

// Configure implements authconfig.Provider. Any failure is logged with its
// command output and returned unchanged.
func (p *Provider) Configure(ctx context.Context, opts authconfig.Options) error {
	p.Opts = opts.WithDefaults(p.OptionalOptions())
	ctx = log.WithFields(ctx, map[string]interface{}{"provider": string(p.Name())})

	if err := p.configure(ctx); err != nil {
		authconfig.LogCommandError(ctx, err)
		return err
	}
	return nil
}

func (p *Provider) configure(ctx context.Context) error {
	s, err := decodeSettings(p.Opts)
	if err != nil {
		return err
	}

	if p.Configured() && s.Force {
		if err := p.Unconfigure(ctx); err != nil {
			return err
		}
	}
	if p.Configured() {
		return authconfig.ErrAlreadyConfigured(p.Name()).WithOperation("configure")
	}

	service := p.servicePrincipal(s.Host)
	if !authconfig.InProvisioningContext() {
		log.Debugf(ctx)("Kerberos Principal: %s", service.Name())
		return authconfig.ErrNotInContext(InstallCommand).WithProvider(p.Name())
	}

	hostname := hostconfig.Hostname{Path: p.path(HostnameFile), Runner: p.runner}
	if err := hostname.Set(ctx, s.Host); err != nil {
		return err
	}

	if err := p.install(ctx, s); err != nil {
		return err
	}

	if err := p.configureHTTPService(ctx, s, service); err != nil {
		return err
	}

	if err := (hostconfig.PAM{Path: p.path(authconfig.PAMConfig)}).Install(ctx); err != nil {
		return err
	}
	if err := (hostconfig.SSSD{Path: p.path(authconfig.SSSDConfig)}).Configure(ctx, p.Domain()); err != nil {
		return err
	}
	if err := (hostconfig.Network{Path: p.path(NetworkConfigFile)}).Configure(ctx, s.Host); err != nil {
		return err
	}

	krb5 := hostconfig.Kerberos{Path: p.path(authconfig.KerberosConfigFile)}
	if err := krb5.EnableDNSLookups(ctx, p.Timestamp); err != nil {
		return err
	}

	return p.saveConfigMap(ctx, s.Output)
}

func (p *Provider) install(ctx context.Context, s *Settings) error {
	log.Infof(ctx)("Joining IPA domain %s (realm %s) via %s", p.Domain(), p.Realm(), s.Server)
	_, err := p.runner.Run(ctx, authconfig.Command{
		Path: InstallCommand,
		Args: []string{
			"-N", "--force-join", "--fixed-primary", "--unattended",
			"--realm=" + p.Realm(),
			"--domain=" + p.Domain(),
			"--server=" + s.Server,
			"--principal=" + s.Principal,
			"--password=" + s.Password,
		},
	})
	return err
}

func (p *Provider) configureHTTPService(ctx context.Context, s *Settings, service authconfig.Principal) error {
	log.Infof(ctx)("Configuring IPA HTTP Service")

	if _, err := p.runner.Run(ctx, authconfig.Command{
		Path:  KinitCommand,
		Args:  []string{s.Principal},
		Stdin: s.Password,
	}); err != nil {
		return err
	}

	if err := service.Register(ctx, p.runner); err != nil {
		return err
	}

	keytabPath := p.path(authconfig.HTTPKeytab)
	log.Debugf(ctx)("- Fetching %s", keytabPath)
	if _, err := p.runner.Run(ctx, authconfig.Command{
		Path: GetKeytabCommand,
		Args: []string{"-s", s.Server, "-k", keytabPath, "-p", service.Name()},
	}); err != nil {
		return err
	}

	return hostconfig.Keytab{Path: keytabPath, Owner: p.serviceUser}.Secure(ctx)
}

func (p *Provider) saveConfigMap(ctx context.Context, output string) error {
	auth := p.Auth()
	cm, err := authconfig.GenerateConfigMap(auth.Type, auth.Configuration, p.Realm(), p.PersistentFiles())
	if err != nil {
		return err
	}
	if err := cm.CaptureRoot(p.root); err != nil {
		return err
	}

	log.Infof(ctx)("Saving config map to %s", output)
	return authconfig.SaveConfigMap(cm, output)
}

// Validate implements authconfig.OptionsValidator.
func (p *Provider) Validate(opts authconfig.Options) error {
	_, err := decodeSettings(opts.WithDefaults(p.OptionalOptions()))
	return err
}

// Unconfigure implements authconfig.Provider.
func (p *Provider) Unconfigure(ctx context.Context) error {
	if !p.Configured() {
		return nil
	}
	log.Infof(ctx)("Unconfiguring IPA client")
	_, err := p.runner.Run(ctx, authconfig.Command{
		Path: InstallCommand,
		Args: []string{"--uninstall", "--unattended"},
	})
	return err
}

// Checks implements authconfig.Verifier.
func (p *Provider) Checks(opts authconfig.Options) []authconfig.Check {
	p.Opts = opts.WithDefaults(p.OptionalOptions())
	keytabPath := p.path(authconfig.HTTPKeytab)

	return []authconfig.Check{
		authconfig.SentinelCheck{Path: p.Sentinel},
		authconfig.KeytabPrincipalCheck{Path: keytabPath, Principal: p.servicePrincipal(p.Opts.String(authconfig.OptHost))},
		authconfig.FileModeCheck{Path: keytabPath, Mode: 0600},
		authconfig.KerberosDNSCheck{Path: p.path(authconfig.KerberosConfigFile)},
		authconfig.ConfigMapCheck{Path: p.Opts.String(authconfig.OptOutput), Files: p.PersistentFiles()},
	}
}

func (p *Provider) servicePrincipal(host string) authconfig.Principal {
	return authconfig.Principal{Hostname: host, Realm: p.Realm(), Service: ServiceClass}
}

func (p *Provider) path(abs string) string {
	if p.root == "" {
		return abs
	}
	return filepath.Join(p.root, abs)
}

func init() {
	authconfig.Register(authconfig.ProviderIPA, authconfig.ProviderFactoryFunc(func() authconfig.Provider {
		return New()
	}))
}
