package hostconfig

import (
	"bytes"
	"context"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// SSSD edits sssd.conf to expose user attributes to the HTTP server over
// the InfoPipe responder.
type SSSD struct {
	Path string

	// AllowedUIDs may query InfoPipe. Defaults to apache and root.
	AllowedUIDs []string
}

// Configure adds the ifp and pam services, extra LDAP user attributes on
// the domain section and the [ifp] settings. The file must exist.
func (s SSSD) Configure(ctx context.Context, domain string) error {
	log.Infof(ctx)("Configuring SSSD Service")

	info, err := os.Stat(s.Path)
	if err != nil {
		return authconfig.ErrConfigWrite(s.Path, err).WithOperation("sssd")
	}

	cfg, err := ini.Load(s.Path)
	if err != nil {
		return authconfig.ErrConfigWrite(s.Path, err).WithOperation("sssd")
	}

	attrs := authconfig.LDAPAttributeNames()

	domainSection := s.domainSection(cfg, domain)
	log.Debugf(ctx)("- Updating [%s]", domainSection.Name())
	domainSection.Key("ldap_user_extra_attrs").SetValue(strings.Join(attrs, ", "))

	services := cfg.Section("sssd").Key("services")
	services.SetValue(addListValues(services.String(), "pam", "ifp"))

	uids := s.AllowedUIDs
	if len(uids) == 0 {
		uids = []string{authconfig.ApacheUser, "root"}
	}
	ifp := cfg.Section("ifp")
	ifp.Key("allowed_uids").SetValue(strings.Join(uids, ", "))
	userAttrs := make([]string, len(attrs))
	for i, a := range attrs {
		userAttrs[i] = "+" + a
	}
	ifp.Key("user_attributes").SetValue(strings.Join(userAttrs, ", "))

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return authconfig.ErrConfigWrite(s.Path, err).WithOperation("sssd")
	}
	log.Debugf(ctx)("- Updating %s", s.Path)
	if err := os.WriteFile(s.Path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return authconfig.ErrConfigWrite(s.Path, err).WithOperation("sssd")
	}
	return nil
}

// domainSection returns [domain/<domain>] if present, else the first
// domain section, else a new [domain/<domain>].
func (s SSSD) domainSection(cfg *ini.File, domain string) *ini.Section {
	if sec, err := cfg.GetSection("domain/" + domain); err == nil {
		return sec
	}
	for _, sec := range cfg.Sections() {
		if strings.HasPrefix(sec.Name(), "domain/") {
			return sec
		}
	}
	return cfg.Section("domain/" + domain)
}

// addListValues appends values missing from a comma separated list.
func addListValues(list string, values ...string) string {
	var items []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		items = append(items, item)
	}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			items = append(items, v)
		}
	}
	return strings.Join(items, ", ")
}
