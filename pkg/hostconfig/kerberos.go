// Package hostconfig applies the host file changes that wire a joined host
// into the HTTP server's authentication: Kerberos, PAM, SSSD, hostname and
// network settings, and keytab ownership.
package hostconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	copier "github.com/otiai10/copy"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// BackupSuffix ends every backup file name.
const BackupSuffix = ".bkp"

var dnsLookupDirectives = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^([ \t]*dns_lookup_kdc[ \t]*=[ \t]*)([^\r\n]*)`),
	regexp.MustCompile(`(?m)^([ \t]*dns_lookup_realm[ \t]*=[ \t]*)([^\r\n]*)`),
}

// Kerberos edits a krb5.conf file in place.
type Kerberos struct {
	Path string
}

// BackupPath returns the sibling path the file is copied to before an edit.
func (k Kerberos) BackupPath(timestamp string) string {
	return fmt.Sprintf("%s.%s%s", k.Path, timestamp, BackupSuffix)
}

// nextBackupPath returns BackupPath, or <path>.<timestamp>.<n>.bkp with the
// lowest free n when that already exists. Existing backups are never
// overwritten.
func (k Kerberos) nextBackupPath(timestamp string) (string, error) {
	backup := k.BackupPath(timestamp)
	for n := 1; ; n++ {
		_, err := os.Lstat(backup)
		if errors.Is(err, fs.ErrNotExist) {
			return backup, nil
		}
		if err != nil {
			return "", err
		}
		backup = fmt.Sprintf("%s.%s.%d%s", k.Path, timestamp, n, BackupSuffix)
	}
}

// EnableDNSLookups backs up the file and sets every existing, uncommented
// dns_lookup_kdc and dns_lookup_realm directive to true. Missing directives
// are not added and all other bytes are kept.
func (k Kerberos) EnableDNSLookups(ctx context.Context, timestamp string) error {
	log.Infof(ctx)("Configuring Kerberos DNS Lookups")

	info, err := os.Stat(k.Path)
	if err != nil {
		return authconfig.ErrConfigWrite(k.Path, err).WithOperation("krb5_dns_lookup")
	}

	backup, err := k.nextBackupPath(timestamp)
	if err != nil {
		return authconfig.ErrConfigWrite(k.Path, err).WithOperation("krb5_dns_lookup")
	}
	log.Debugf(ctx)("- Backing up %s to %s", k.Path, backup)
	if err := copier.Copy(k.Path, backup); err != nil {
		return authconfig.ErrConfigWrite(backup, err).WithOperation("krb5_dns_lookup")
	}

	data, err := os.ReadFile(k.Path)
	if err != nil {
		return authconfig.ErrConfigWrite(k.Path, err).WithOperation("krb5_dns_lookup")
	}

	updated := EnableDNSLookupDirectives(data)

	log.Debugf(ctx)("- Updating %s", k.Path)
	if err := os.WriteFile(k.Path, updated, info.Mode().Perm()); err != nil {
		return authconfig.ErrConfigWrite(k.Path, err).WithOperation("krb5_dns_lookup")
	}
	return nil
}

// EnableDNSLookupDirectives rewrites the DNS lookup directive values in a
// krb5.conf document.
func EnableDNSLookupDirectives(data []byte) []byte {
	for _, re := range dnsLookupDirectives {
		data = re.ReplaceAll(data, []byte("${1}true"))
	}
	return data
}
