package authconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/keytab"
)

// Severity indicates the severity level of a check.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityCritical:
		return 3
	}
	return 2
}

// CheckStatus indicates the result of a check.
type CheckStatus string

const (
	CheckStatusPassed  CheckStatus = "passed"
	CheckStatusFailed  CheckStatus = "failed"
	CheckStatusSkipped CheckStatus = "skipped"
)

// Check inspects one aspect of a configured host.
type Check interface {
	// ID returns the unique identifier for this check.
	ID() string

	// Name returns a human-readable name.
	Name() string

	// Run performs the check.
	Run(ctx context.Context) CheckResult
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Status      CheckStatus            `json:"status"`
	Severity    Severity               `json:"severity"`
	Evidence    map[string]interface{} `json:"evidence,omitempty"`
	Remediation string                 `json:"remediation,omitempty"`
	Duration    time.Duration          `json:"duration"`
}

// Report contains the results of a verification run.
type Report struct {
	Provider   ProviderName  `json:"provider"`
	Checks     []CheckResult `json:"checks"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	VerifiedAt time.Time     `json:"verified_at"`
}

// OK reports whether no check of error severity or above failed.
func (r *Report) OK() bool {
	for _, c := range r.Checks {
		if c.Status == CheckStatusFailed && c.Severity.rank() >= SeverityError.rank() {
			return false
		}
	}
	return true
}

// FailedChecks returns the failed results.
func (r *Report) FailedChecks() []CheckResult {
	var failed []CheckResult
	for _, c := range r.Checks {
		if c.Status == CheckStatusFailed {
			failed = append(failed, c)
		}
	}
	return failed
}

// RunChecks executes checks in order and returns a report.
func RunChecks(ctx context.Context, provider ProviderName, checks []Check) *Report {
	report := &Report{
		Provider:   provider,
		Checks:     make([]CheckResult, 0, len(checks)),
		VerifiedAt: time.Now(),
	}

	for _, c := range checks {
		start := time.Now()
		res := c.Run(ctx)
		res.ID, res.Name = c.ID(), c.Name()
		res.Duration = time.Since(start)
		report.Checks = append(report.Checks, res)

		switch res.Status {
		case CheckStatusPassed:
			report.Passed++
		case CheckStatusFailed:
			report.Failed++
		case CheckStatusSkipped:
			report.Skipped++
		}
	}

	return report
}

func newResult(sev Severity) CheckResult {
	return CheckResult{Severity: sev, Evidence: make(map[string]interface{})}
}

func (r CheckResult) fail(remediation string, err error) CheckResult {
	r.Status = CheckStatusFailed
	r.Remediation = remediation
	if err != nil {
		r.Evidence["error"] = err.Error()
	}
	return r
}

// SentinelCheck passes when the sentinel file exists.
type SentinelCheck struct {
	Path string
}

func (c SentinelCheck) ID() string   { return "sentinel_present" }
func (c SentinelCheck) Name() string { return "Configured sentinel present" }

func (c SentinelCheck) Run(ctx context.Context) CheckResult {
	res := newResult(SeverityCritical)
	res.Evidence["path"] = c.Path
	if _, err := os.Stat(c.Path); err != nil {
		return res.fail("Run the configure command for this provider", err)
	}
	res.Status = CheckStatusPassed
	return res
}

// FileModeCheck passes when the file's permission bits equal Mode.
type FileModeCheck struct {
	Path string
	Mode os.FileMode
}

func (c FileModeCheck) ID() string   { return "file_mode" }
func (c FileModeCheck) Name() string { return fmt.Sprintf("%s permissions", c.Path) }

func (c FileModeCheck) Run(ctx context.Context) CheckResult {
	res := newResult(SeverityError)
	res.Evidence["path"] = c.Path
	res.Evidence["expected"] = fmt.Sprintf("%#o", c.Mode)
	info, err := os.Stat(c.Path)
	if err != nil {
		return res.fail("File is missing", err)
	}
	res.Evidence["actual"] = fmt.Sprintf("%#o", info.Mode().Perm())
	if info.Mode().Perm() != c.Mode {
		return res.fail(fmt.Sprintf("chmod %#o %s", c.Mode, c.Path), nil)
	}
	res.Status = CheckStatusPassed
	return res
}

// KeytabPrincipalCheck passes when the keytab holds a key for Principal.
type KeytabPrincipalCheck struct {
	Path      string
	Principal Principal
}

func (c KeytabPrincipalCheck) ID() string   { return "keytab_principal" }
func (c KeytabPrincipalCheck) Name() string { return "Service keytab principal" }

func (c KeytabPrincipalCheck) Run(ctx context.Context) CheckResult {
	res := newResult(SeverityCritical)
	res.Evidence["path"] = c.Path
	res.Evidence["principal"] = c.Principal.Name()

	kt, err := LoadKeytab(c.Path)
	if err != nil {
		return res.fail("Fetch the keytab again with ipa-getkeytab", err)
	}

	want := c.Principal.Service + "/" + c.Principal.Hostname
	var found []string
	for _, e := range kt.Entries {
		name := strings.Join(e.Principal.Components, "/")
		found = append(found, name+"@"+e.Principal.Realm)
		if name == want && e.Principal.Realm == c.Principal.Realm {
			res.Status = CheckStatusPassed
			return res
		}
	}
	res.Evidence["found"] = found
	return res.fail("Register the service principal and fetch its keytab", nil)
}

// LoadKeytab reads and parses a keytab file.
func LoadKeytab(path string) (*keytab.Keytab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keytab file: %w", err)
	}

	kt := keytab.New()
	if err := kt.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("parse keytab: %w", err)
	}

	return kt, nil
}

// KerberosDNSCheck passes when krb5.conf enables DNS lookups for both KDC
// and realm.
type KerberosDNSCheck struct {
	Path string
}

func (c KerberosDNSCheck) ID() string   { return "krb5_dns_lookup" }
func (c KerberosDNSCheck) Name() string { return "Kerberos DNS lookups" }

func (c KerberosDNSCheck) Run(ctx context.Context) CheckResult {
	res := newResult(SeverityWarning)
	res.Evidence["path"] = c.Path

	cfg, err := LoadKerberosConfig(c.Path)
	if err != nil {
		return res.fail("Check the syntax of krb5.conf", err)
	}
	res.Evidence["dns_lookup_kdc"] = cfg.LibDefaults.DNSLookupKDC
	res.Evidence["dns_lookup_realm"] = cfg.LibDefaults.DNSLookupRealm
	if !cfg.LibDefaults.DNSLookupKDC || !cfg.LibDefaults.DNSLookupRealm {
		return res.fail("Set dns_lookup_kdc and dns_lookup_realm to true in [libdefaults]", nil)
	}
	res.Status = CheckStatusPassed
	return res
}

// LoadKerberosConfig parses a Kerberos configuration file. Directives the
// parser does not support are ignored.
func LoadKerberosConfig(path string) (*krb5config.Config, error) {
	cfg, err := krb5config.Load(path)
	var unsupported krb5config.UnsupportedDirective
	if errors.As(err, &unsupported) && cfg != nil {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse krb5.conf: %w", err)
	}
	return cfg, nil
}

// ConfigMapCheck passes when the artifact loads and lists every expected
// persistent file.
type ConfigMapCheck struct {
	Path  string
	Files []string
}

func (c ConfigMapCheck) ID() string   { return "config_map" }
func (c ConfigMapCheck) Name() string { return "Config map artifact" }

func (c ConfigMapCheck) Run(ctx context.Context) CheckResult {
	res := newResult(SeverityError)
	res.Evidence["path"] = c.Path
	if c.Path == "" {
		res.Status = CheckStatusSkipped
		res.Remediation = "Pass --output to verify the config map"
		return res
	}

	cm, err := LoadConfigMap(c.Path)
	if err != nil {
		return res.fail("Re-run configure with --force to regenerate the config map", err)
	}

	have := make(map[string]bool, len(cm.PersistentFiles))
	for _, f := range cm.PersistentFiles {
		have[f.Path] = true
	}
	var missing []string
	for _, p := range c.Files {
		if !have[p] {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		res.Evidence["missing"] = missing
		return res.fail("Re-run configure with --force to regenerate the config map", nil)
	}
	res.Evidence["realm"] = cm.Realm
	res.Status = CheckStatusPassed
	return res
}
