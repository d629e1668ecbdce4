package hostconfig

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig/authconfigtest"
)

const krb5Conf = `[libdefaults]
  default_realm = EXAMPLE.COM
  dns_lookup_realm = false
  dns_lookup_kdc = false
  # dns_lookup_kdc = false
  rdns = false

[realms]
  EXAMPLE.COM = {
    kdc = ipa.example.com:88
  }
`

func TestEnableDNSLookupDirectives(t *testing.T) {
	got := string(EnableDNSLookupDirectives([]byte(krb5Conf)))

	assert.Contains(t, got, "  dns_lookup_realm = true\n")
	assert.Contains(t, got, "  dns_lookup_kdc = true\n")
	assert.Contains(t, got, "  # dns_lookup_kdc = false\n")
	assert.Contains(t, got, "  rdns = false\n")
	assert.Equal(t, len(krb5Conf)-2*len("false")+2*len("true"), len(got))
}

func TestEnableDNSLookupDirectives_NeverInserts(t *testing.T) {
	doc := "[libdefaults]\n  default_realm = EXAMPLE.COM\n"

	assert.Equal(t, doc, string(EnableDNSLookupDirectives([]byte(doc))))
}

func TestKerberos_EnableDNSLookups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "krb5.conf")
	require.NoError(t, os.WriteFile(path, []byte(krb5Conf), 0644))
	k := Kerberos{Path: path}

	require.NoError(t, k.EnableDNSLookups(context.Background(), "20261015_101500"))

	backup, err := os.ReadFile(filepath.Join(filepath.Dir(path), "krb5.conf.20261015_101500.bkp"))
	require.NoError(t, err)
	assert.Equal(t, krb5Conf, string(backup))

	updated, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(EnableDNSLookupDirectives([]byte(krb5Conf))), string(updated))
}

func TestKerberos_EnableDNSLookupsKeepsExistingBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "krb5.conf")
	require.NoError(t, os.WriteFile(path, []byte(krb5Conf), 0644))
	k := Kerberos{Path: path}
	ts := "20261015_101500"
	require.NoError(t, os.WriteFile(k.BackupPath(ts), []byte("earlier backup\n"), 0644))

	require.NoError(t, k.EnableDNSLookups(context.Background(), ts))
	require.NoError(t, k.EnableDNSLookups(context.Background(), ts))

	first, err := os.ReadFile(k.BackupPath(ts))
	require.NoError(t, err)
	assert.Equal(t, "earlier backup\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "krb5.conf."+ts+".1.bkp"))
	require.NoError(t, err)
	assert.Equal(t, krb5Conf, string(second))

	third, err := os.ReadFile(filepath.Join(dir, "krb5.conf."+ts+".2.bkp"))
	require.NoError(t, err)
	assert.Equal(t, string(EnableDNSLookupDirectives([]byte(krb5Conf))), string(third))
}

func TestKerberos_MissingFile(t *testing.T) {
	k := Kerberos{Path: filepath.Join(t.TempDir(), "krb5.conf")}

	err := k.EnableDNSLookups(context.Background(), "x")
	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryConfigWrite))
}

func TestPAM_Install(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pam.d", "httpd-auth")

	require.NoError(t, PAM{Path: path}.Install(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, PAMStack, string(data))
}

const sssdConf = `[domain/example.com]
id_provider = ipa
ipa_server = ipa.example.com

[sssd]
services = nss, sudo, pam, ssh
domains = example.com
`

func TestSSSD_Configure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sssd.conf")
	require.NoError(t, os.WriteFile(path, []byte(sssdConf), 0600))

	require.NoError(t, SSSD{Path: path}.Configure(context.Background(), "example.com"))

	cfg, err := ini.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ipa", cfg.Section("domain/example.com").Key("id_provider").String())
	assert.Equal(t, "mail, givenname, sn, displayname, domainname",
		cfg.Section("domain/example.com").Key("ldap_user_extra_attrs").String())
	assert.Equal(t, "nss, sudo, pam, ssh, ifp", cfg.Section("sssd").Key("services").String())
	assert.Equal(t, "apache, root", cfg.Section("ifp").Key("allowed_uids").String())
	assert.Equal(t, "+mail, +givenname, +sn, +displayname, +domainname",
		cfg.Section("ifp").Key("user_attributes").String())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSSSD_MissingFile(t *testing.T) {
	err := SSSD{Path: filepath.Join(t.TempDir(), "sssd.conf")}.Configure(context.Background(), "example.com")
	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryConfigWrite))
}

func TestAddListValues(t *testing.T) {
	assert.Equal(t, "pam, ifp", addListValues("", "pam", "ifp"))
	assert.Equal(t, "nss, pam, ifp", addListValues("nss,pam", "pam", "ifp"))
}

func TestNetwork_Configure(t *testing.T) {
	dir := t.TempDir()

	t.Run("replaces", func(t *testing.T) {
		path := filepath.Join(dir, "network-replace")
		require.NoError(t, os.WriteFile(path, []byte("NETWORKING=yes\nHOSTNAME=old.example.com\n"), 0644))

		require.NoError(t, Network{Path: path}.Configure(context.Background(), "web.example.com"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "NETWORKING=yes\nHOSTNAME=web.example.com\n", string(data))
	})

	t.Run("appends", func(t *testing.T) {
		path := filepath.Join(dir, "network-append")
		require.NoError(t, os.WriteFile(path, []byte("NETWORKING=yes"), 0644))

		require.NoError(t, Network{Path: path}.Configure(context.Background(), "web.example.com"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "NETWORKING=yes\nHOSTNAME=web.example.com\n", string(data))
	})

	t.Run("creates", func(t *testing.T) {
		path := filepath.Join(dir, "sysconfig", "network")

		require.NoError(t, Network{Path: path}.Configure(context.Background(), "web.example.com"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "HOSTNAME=web.example.com\n", string(data))
	})
}

func TestHostname_Set(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostname")
	runner := authconfigtest.NewRunner()

	require.NoError(t, Hostname{Path: path, Runner: runner}.Set(context.Background(), "web.example.com"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "web.example.com\n", string(data))
	require.Len(t, runner.Commands, 1)
	assert.Equal(t, HostnameCommand, runner.Commands[0].Path)
	assert.Equal(t, []string{"web.example.com"}, runner.Commands[0].Args)
}

func TestHostname_CommandFailure(t *testing.T) {
	runner := authconfigtest.NewRunner().Fail("hostname", 1, "", "hostname: you must be root")

	err := Hostname{Path: filepath.Join(t.TempDir(), "hostname"), Runner: runner}.
		Set(context.Background(), "web.example.com")

	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryCommand))
}

func TestKeytab_Secure(t *testing.T) {
	me, err := user.Current()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "http.keytab")
	require.NoError(t, os.WriteFile(path, []byte("kt"), 0644))

	require.NoError(t, Keytab{Path: path, Owner: me.Username}.Secure(context.Background()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestKeytab_UnknownOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "http.keytab")
	require.NoError(t, os.WriteFile(path, []byte("kt"), 0644))

	err := Keytab{Path: path, Owner: "no-such-user-httpd-authconfig"}.Secure(context.Background())
	assert.True(t, authconfig.IsCategory(err, authconfig.ErrCategoryConfigWrite))
}
