package ipa

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig/authconfigtest"
)

const installedKrb5Conf = `[libdefaults]
  default_realm = EXAMPLE.COM
  dns_lookup_realm = false
  dns_lookup_kdc = false
  rdns = false
`

const installedSSSDConf = `[domain/example.com]
id_provider = ipa
ipa_server = ipa.example.com

[sssd]
services = nss, sudo, pam, ssh
domains = example.com
`

type fixture struct {
	root    string
	safeDir string
	runner  *authconfigtest.Runner
	user    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0755))
	safeDir := filepath.Join(root, "tmp")
	require.NoError(t, os.MkdirAll(safeDir, 0755))

	me, err := user.Current()
	require.NoError(t, err)

	f := &fixture{root: root, safeDir: safeDir, runner: authconfigtest.NewRunner(), user: me.Username}
	f.runner.On("ipa-client-install", f.fakeInstall)
	f.runner.On("ipa-getkeytab", f.fakeGetKeytab)
	return f
}

func (f *fixture) fakeInstall(cmd authconfig.Command) (*authconfig.CommandResult, error) {
	if len(cmd.Args) > 0 && cmd.Args[0] == "--uninstall" {
		return nil, os.Remove(filepath.Join(f.root, authconfig.SSSDConfig))
	}
	files := map[string]string{
		authconfig.SSSDConfig:         installedSSSDConf,
		authconfig.KerberosConfigFile: installedKrb5Conf,
		"/etc/ipa/ca.crt":             "-----BEGIN CERTIFICATE-----\n",
		"/etc/ipa/default.conf":       "[global]\nrealm = EXAMPLE.COM\n",
	}
	for path, content := range files {
		full := filepath.Join(f.root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return nil, err
		}
	}
	return &authconfig.CommandResult{Stdout: "Client configuration complete.\n"}, nil
}

func (f *fixture) fakeGetKeytab(cmd authconfig.Command) (*authconfig.CommandResult, error) {
	var path, principal string
	for i := 0; i+1 < len(cmd.Args); i++ {
		switch cmd.Args[i] {
		case "-k":
			path = cmd.Args[i+1]
		case "-p":
			principal = cmd.Args[i+1]
		}
	}
	name, realm, _ := strings.Cut(principal, "@")
	return nil, authconfigtest.WriteKeytab(path, name, realm)
}

func (f *fixture) provider() *Provider {
	return New(
		WithRunner(f.runner),
		WithRoot(f.root),
		WithServiceUser(f.user),
		WithTimestamp("20261015_101500"),
	)
}

func (f *fixture) manager() *authconfig.Manager {
	return authconfig.NewManager(authconfig.WithSafeDir(authconfig.SafeDir(f.safeDir)))
}

func (f *fixture) options() authconfig.Options {
	return authconfig.Options{
		authconfig.OptHost:   "web.example.com",
		authconfig.OptOutput: filepath.Join(f.safeDir, "map.json"),
		OptServer:            "ipa.example.com",
		OptPassword:          "s3cret",
	}
}

func (f *fixture) file(path string) string {
	return filepath.Join(f.root, path)
}

func TestConfigure_FreshContainer(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "/auth")
	f := newFixture(t)
	p := f.provider()

	require.NoError(t, f.manager().RunConfigure(context.Background(), p, f.options()))

	assert.Equal(t, []string{"hostname", "ipa-client-install", "kinit", "ipa", "ipa-getkeytab"}, f.runner.Names())

	install, _ := f.runner.Find("ipa-client-install")
	assert.Equal(t, []string{
		"-N", "--force-join", "--fixed-primary", "--unattended",
		"--realm=EXAMPLE.COM",
		"--domain=example.com",
		"--server=ipa.example.com",
		"--principal=admin",
		"--password=s3cret",
	}, install.Args)

	kinit, _ := f.runner.Find("kinit")
	assert.Equal(t, []string{"admin"}, kinit.Args)
	assert.Equal(t, "s3cret", kinit.Stdin)

	register, _ := f.runner.Find("ipa")
	assert.Equal(t, "HTTP/web.example.com@EXAMPLE.COM", register.Args[len(register.Args)-1])

	getKeytab, _ := f.runner.Find("ipa-getkeytab")
	assert.Equal(t, []string{"-s", "ipa.example.com", "-k", f.file(authconfig.HTTPKeytab), "-p", "HTTP/web.example.com@EXAMPLE.COM"}, getKeytab.Args)

	assert.True(t, p.Configured())

	info, err := os.Stat(f.file(authconfig.HTTPKeytab))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	hostname, err := os.ReadFile(f.file(HostnameFile))
	require.NoError(t, err)
	assert.Equal(t, "web.example.com\n", string(hostname))

	assert.FileExists(t, f.file(authconfig.KerberosConfigFile)+".20261015_101500.bkp")
	krb5, err := os.ReadFile(f.file(authconfig.KerberosConfigFile))
	require.NoError(t, err)
	assert.Contains(t, string(krb5), "dns_lookup_kdc = true")
	assert.Contains(t, string(krb5), "dns_lookup_realm = true")

	sssd, err := os.ReadFile(f.file(authconfig.SSSDConfig))
	require.NoError(t, err)
	assert.Contains(t, string(sssd), "[ifp]")

	cm, err := authconfig.LoadConfigMap(filepath.Join(f.safeDir, "map.json"))
	require.NoError(t, err)
	assert.Equal(t, "ipa", cm.AuthType)
	assert.Equal(t, "external", cm.AuthConfigurationMode)
	assert.Equal(t, "EXAMPLE.COM", cm.Realm)
	require.Len(t, cm.PersistentFiles, 21)
	assert.Equal(t, p.PersistentFiles(), cm.Paths())

	kt, err := cm.File("http.keytab")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), kt.Mode)
	_, err = cm.File("cert8.db")
	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryNotFound))

	report := authconfig.RunChecks(context.Background(), p.Name(), p.Checks(f.options()))
	assert.True(t, report.OK())
	assert.Equal(t, 5, report.Passed)
}

func TestConfigure_AlreadyConfigured(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "/auth")
	f := newFixture(t)
	require.NoError(t, f.manager().RunConfigure(context.Background(), f.provider(), f.options()))
	output := filepath.Join(f.safeDir, "map.json")
	before, err := os.ReadFile(output)
	require.NoError(t, err)

	f.runner.Commands = nil
	err = f.manager().RunConfigure(context.Background(), f.provider(), f.options())

	require.Error(t, err)
	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryAlreadyConfigured))
	assert.Empty(t, f.runner.Commands)
	after, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestConfigure_ForceReconfigures(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "/auth")
	f := newFixture(t)
	require.NoError(t, f.manager().RunConfigure(context.Background(), f.provider(), f.options()))
	first, err := authconfig.LoadConfigMap(filepath.Join(f.safeDir, "map.json"))
	require.NoError(t, err)

	f.runner.Commands = nil
	opts := f.options()
	opts[authconfig.OptForce] = true
	require.NoError(t, f.manager().RunConfigure(context.Background(), f.provider(), opts))

	require.NotEmpty(t, f.runner.Commands)
	assert.Equal(t, []string{"--uninstall", "--unattended"}, f.runner.Commands[0].Args)
	assert.Equal(t, "hostname", f.runner.Names()[1])

	second, err := authconfig.LoadConfigMap(filepath.Join(f.safeDir, "map.json"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestConfigure_ForceWithInvalidHostKeepsEnrollment(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "/auth")
	f := newFixture(t)
	require.NoError(t, f.manager().RunConfigure(context.Background(), f.provider(), f.options()))

	for _, tc := range []struct {
		key, value string
	}{
		{authconfig.OptHost, "not a valid host!"},
		{OptServer, "ipa server"},
	} {
		t.Run(tc.key, func(t *testing.T) {
			f.runner.Commands = nil
			opts := f.options()
			opts[authconfig.OptForce] = true
			opts[tc.key] = tc.value

			err := f.manager().RunConfigure(context.Background(), f.provider(), opts)

			require.Error(t, err)
			assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryValidation))
			assert.Empty(t, f.runner.Commands)
			assert.FileExists(t, f.file(authconfig.SSSDConfig))
		})
	}
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	p := f.provider()

	assert.NoError(t, p.Validate(f.options()))

	opts := f.options()
	delete(opts, OptPassword)
	assert.True(t, authconfig.IsCategory(p.Validate(opts), authconfig.ErrCategoryValidation))
}

func TestConfigure_OutsideProvisioningContext(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "")
	f := newFixture(t)

	err := f.manager().RunConfigure(context.Background(), f.provider(), f.options())

	require.Error(t, err)
	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryNotInContext))
	assert.Empty(t, f.runner.Commands)
	assert.NoFileExists(t, f.file(authconfig.HTTPKeytab))
	assert.NoFileExists(t, f.file(authconfig.SSSDConfig))
}

func TestConfigure_ProviderChecksContextItself(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "")
	f := newFixture(t)

	err := f.provider().Configure(context.Background(), f.options())

	require.Error(t, err)
	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryNotInContext))
	assert.Contains(t, err.Error(), InstallCommand)
	assert.Empty(t, f.runner.Commands)
	assert.NoFileExists(t, f.file(HostnameFile))
}

func TestConfigure_InstallFailureStopsSequence(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "/auth")
	f := newFixture(t)
	f.runner.Fail("ipa-client-install", 1, "joining realm", "Failed to verify that ipa.example.com is an IPA Server")

	err := f.manager().RunConfigure(context.Background(), f.provider(), f.options())

	require.Error(t, err)
	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryCommand))
	cerr, ok := authconfig.AsCommandError(err)
	require.True(t, ok)
	assert.Equal(t, 1, cerr.ExitCode)
	assert.Equal(t, "joining realm", cerr.Stdout)
	assert.Contains(t, cerr.Stderr, "Failed to verify")
	assert.Contains(t, cerr.Args, "--password=********")

	assert.Equal(t, []string{"hostname", "ipa-client-install"}, f.runner.Names())
	assert.NoFileExists(t, filepath.Join(f.safeDir, "map.json"))
}

func TestConfigure_KeytabFetchFailure(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "/auth")
	f := newFixture(t)
	f.runner.Fail("ipa-getkeytab", 9, "", "Failed to parse result: Insufficient access rights")

	err := f.manager().RunConfigure(context.Background(), f.provider(), f.options())

	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryCommand))
	assert.NoFileExists(t, f.file(authconfig.PAMConfig))
	assert.NoFileExists(t, filepath.Join(f.safeDir, "map.json"))
}

func TestConfigure_InvalidOptions(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "/auth")
	f := newFixture(t)
	opts := f.options()
	delete(opts, OptServer)

	err := f.provider().Configure(context.Background(), opts)

	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryValidation))
	assert.Empty(t, f.runner.Commands)
}

func TestExportAfterConfigure(t *testing.T) {
	t.Setenv(authconfig.ContextMarkerEnv, "/auth")
	f := newFixture(t)
	require.NoError(t, f.manager().RunConfigure(context.Background(), f.provider(), f.options()))
	captured, err := os.ReadFile(f.file(authconfig.KerberosConfigFile))
	require.NoError(t, err)

	dest := filepath.Join(f.safeDir, "out", "krb5.conf")
	err = authconfig.NewExporter(authconfig.SafeDir(f.safeDir)).Export(context.Background(), authconfig.Options{
		authconfig.OptInput:  filepath.Join(f.safeDir, "map.json"),
		authconfig.OptFile:   "krb5.conf",
		authconfig.OptOutput: dest,
	})
	require.NoError(t, err)

	exported, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, captured, exported)
}

func TestUnconfigure(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.provider().Unconfigure(context.Background()))
		assert.Empty(t, f.runner.Commands)
	})

	t.Run("configured", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(f.file(authconfig.SSSDConfig)), 0755))
		require.NoError(t, os.WriteFile(f.file(authconfig.SSSDConfig), []byte(installedSSSDConf), 0600))

		require.NoError(t, f.provider().Unconfigure(context.Background()))

		require.Len(t, f.runner.Commands, 1)
		assert.Equal(t, InstallCommand, f.runner.Commands[0].Path)
		assert.Equal(t, []string{"--uninstall", "--unattended"}, f.runner.Commands[0].Args)
		assert.NoFileExists(t, f.file(authconfig.SSSDConfig))
	})

	t.Run("uninstall fails", func(t *testing.T) {
		f := newFixture(t)
		f.runner.Fail("ipa-client-install", 1, "", "Unconfigured automount client failed")
		require.NoError(t, os.MkdirAll(filepath.Dir(f.file(authconfig.SSSDConfig)), 0755))
		require.NoError(t, os.WriteFile(f.file(authconfig.SSSDConfig), []byte(installedSSSDConf), 0600))

		err := f.manager().Unconfigure(context.Background(), f.provider())

		assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryCommand))
		assert.FileExists(t, f.file(authconfig.SSSDConfig))
	})
}

func TestRealmAndDomain(t *testing.T) {
	tests := []struct {
		name       string
		opts       authconfig.Options
		wantDomain string
		wantRealm  string
	}{
		{
			name:       "from server",
			opts:       authconfig.Options{authconfig.OptHost: "web.apps.example.org", OptServer: "ipa.idm.example.com"},
			wantDomain: "idm.example.com",
			wantRealm:  "IDM.EXAMPLE.COM",
		},
		{
			name:       "explicit domain",
			opts:       authconfig.Options{authconfig.OptHost: "web.example.org", OptServer: "ipa.example.com", OptDomain: "corp.example.net"},
			wantDomain: "corp.example.net",
			wantRealm:  "CORP.EXAMPLE.NET",
		},
		{
			name:       "explicit realm is uppercased",
			opts:       authconfig.Options{authconfig.OptHost: "web.example.org", OptServer: "ipa.example.com", OptRealm: "Corp.Realm"},
			wantDomain: "example.com",
			wantRealm:  "CORP.REALM",
		},
		{
			name:       "falls back to host",
			opts:       authconfig.Options{authconfig.OptHost: "web.example.org", OptServer: "ipa"},
			wantDomain: "example.org",
			wantRealm:  "EXAMPLE.ORG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.Opts = tt.opts
			assert.Equal(t, tt.wantDomain, p.Domain())
			assert.Equal(t, tt.wantRealm, p.Realm())
		})
	}
}

func TestRealm_CachedPerInstance(t *testing.T) {
	p := New()
	p.Opts = authconfig.Options{authconfig.OptHost: "web.example.com", OptServer: "ipa.example.com"}
	require.Equal(t, "EXAMPLE.COM", p.Realm())

	p.Opts = authconfig.Options{authconfig.OptHost: "web.other.com", OptServer: "ipa.other.com"}
	assert.Equal(t, "EXAMPLE.COM", p.Realm())
	assert.Equal(t, "example.com", p.Domain())

	fresh := New()
	fresh.Opts = p.Opts
	assert.Equal(t, "OTHER.COM", fresh.Realm())
}

func TestOptionDescriptors(t *testing.T) {
	p := New()

	var required []string
	for _, d := range p.RequiredOptions() {
		required = append(required, d.Name)
	}
	assert.Equal(t, []string{authconfig.OptHost, authconfig.OptOutput, OptServer, OptPassword}, required)

	optional := p.OptionalOptions()
	require.Len(t, optional, 5)
	assert.Equal(t, authconfig.OptForce, optional[0].Name)
	assert.Equal(t, OptPrincipal, optional[2].Name)
	assert.Equal(t, "admin", optional[2].Default)
}

func TestPersistentFiles(t *testing.T) {
	files := New().PersistentFiles()

	require.Len(t, files, 21)
	assert.Equal(t, "/etc/http.keytab", files[0])
	assert.Equal(t, "/etc/krb5.conf", files[7])
	assert.Equal(t, "/etc/sssd/sssd.conf", files[18])
	assert.Equal(t, "/etc/sysconfig/network", files[20])

	files[0] = "mutated"
	assert.Equal(t, "/etc/http.keytab", New().PersistentFiles()[0])
}

func TestRegistered(t *testing.T) {
	p, err := authconfig.NewProvider(authconfig.ProviderIPA)
	require.NoError(t, err)
	assert.Equal(t, authconfig.ProviderIPA, p.Name())
	assert.Equal(t, authconfig.SSSDConfig, p.(*Provider).Sentinel)
}
