package authconfig

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Base option names shared by every provider.
const (
	OptHost   = "host"
	OptOutput = "output"
	OptForce  = "force"
	OptDebug  = "debug"
	OptInput  = "input"
	OptFile   = "file"
)

// OptionDescriptor documents one provider setting. Descriptors drive flag
// generation and required-option checks; they are not runtime types.
type OptionDescriptor struct {
	Name        string
	Description string
	Short       string
	Default     interface{}
	Required    bool
}

// IsBool reports whether the option is a boolean switch.
func (d OptionDescriptor) IsBool() bool {
	_, ok := d.Default.(bool)
	return ok
}

// BaseRequiredOptions returns the options every configure run needs.
func BaseRequiredOptions() []OptionDescriptor {
	return []OptionDescriptor{
		{Name: OptHost, Description: "Application Domain", Short: "h", Required: true},
		{Name: OptOutput, Description: "Configuration map file to create", Short: "o", Required: true},
	}
}

// BaseOptionalOptions returns the switches every configure run accepts.
func BaseOptionalOptions() []OptionDescriptor {
	return []OptionDescriptor{
		{Name: OptForce, Description: "Force configuration if configured already", Short: "f", Default: false},
		{Name: OptDebug, Description: "Enable debugging", Short: "d", Default: false},
	}
}

// MergeOptions returns the union of base and extra. Entries of base are
// never replaced; extra entries whose names are new are appended in order.
func MergeOptions(base []OptionDescriptor, extra ...OptionDescriptor) []OptionDescriptor {
	merged := make([]OptionDescriptor, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, d := range base {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		merged = append(merged, d)
	}
	for _, d := range extra {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		merged = append(merged, d)
	}
	return merged
}

// Options is the flat settings bag for one invocation.
type Options map[string]interface{}

// Has reports whether key is set to a non-empty value.
func (o Options) Has(key string) bool {
	v, ok := o[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// String returns the option as a string, or "" if unset.
func (o Options) String(key string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the option as a boolean, accepting "true"/"yes"/"1" strings.
func (o Options) Bool(key string) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(v) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}

// WithDefaults returns a copy of o with descriptor defaults filled in for
// unset keys.
func (o Options) WithDefaults(descriptors []OptionDescriptor) Options {
	out := make(Options, len(o)+len(descriptors))
	for k, v := range o {
		out[k] = v
	}
	for _, d := range descriptors {
		if d.Default == nil {
			continue
		}
		if _, ok := out[d.Name]; !ok {
			out[d.Name] = d.Default
		}
	}
	return out
}

// CheckRequired reports the first required option missing from opts.
func CheckRequired(opts Options, descriptors []OptionDescriptor) error {
	var missing []string
	for _, d := range descriptors {
		if d.Required && !opts.Has(d.Name) {
			missing = append(missing, d.Name)
		}
	}
	if len(missing) > 0 {
		return ErrValidation(fmt.Sprintf("missing required options: %s", strings.Join(missing, ", "))).
			WithDetail("missing", missing)
	}
	return nil
}

// SafeDir is the only directory artifacts and exports may be written under.
type SafeDir string

// DefaultSafeDir is the restricted temporary directory.
const DefaultSafeDir SafeDir = "/tmp"

// Check normalizes path and verifies it lives strictly under the safe
// directory. It returns the cleaned path. A safe directory of / or a
// relative one rejects every path.
func (d SafeDir) Check(path string) (string, error) {
	if path == "" {
		return "", ErrValidation("output path is empty")
	}
	root := filepath.Clean(string(d))
	if !filepath.IsAbs(root) || root == string(filepath.Separator) {
		return "", ErrValidation(fmt.Sprintf("safe directory %q must be an absolute path below /", string(d)))
	}
	cleaned := filepath.Clean(path)
	if !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		return "", ErrValidation(fmt.Sprintf("output file must live under %s/", root)).
			WithDetail("path", path).
			WithDetail("cleaned", cleaned)
	}
	return cleaned, nil
}
