package authconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ConfigMap is the record of a successful configuration run. Once saved it
// is never modified; a forced reconfigure writes a new one.
type ConfigMap struct {
	// ID uniquely identifies this run.
	ID string `json:"id" validate:"required"`

	// AuthType is the provider's auth type, e.g. "ipa".
	AuthType string `json:"auth_type" validate:"required"`

	// AuthConfigurationMode is the provider's configuration mode, e.g. "external".
	AuthConfigurationMode string `json:"auth_configuration_mode" validate:"required"`

	// Realm is the uppercase Kerberos realm.
	Realm string `json:"realm" validate:"required"`

	// GeneratedAt is the UTC generation time, truncated to seconds.
	GeneratedAt time.Time `json:"generated_at" validate:"required"`

	// PersistentFiles are kept in declaration order.
	PersistentFiles []PersistentFile `json:"persistent_files" validate:"required,min=1,dive"`
}

// PersistentFile is one file carried forward into the runtime image.
type PersistentFile struct {
	// Name is the logical name used by export, the path's base name.
	Name string `json:"name" validate:"required"`

	// Path is the absolute path on the configured host.
	Path string `json:"path" validate:"required"`

	// Mode holds the permission bits at capture time.
	Mode fs.FileMode `json:"mode,omitempty"`

	// Present is false when the file did not exist at capture time.
	Present bool `json:"present"`

	// Content is the captured file content.
	Content []byte `json:"content,omitempty"`
}

// GenerateConfigMap builds an in-memory config map. It performs no I/O.
func GenerateConfigMap(authType, mode, realm string, paths []string) (*ConfigMap, error) {
	switch {
	case authType == "":
		return nil, ErrValidation("auth type is required").WithOperation("generate")
	case mode == "":
		return nil, ErrValidation("auth configuration mode is required").WithOperation("generate")
	case realm == "":
		return nil, ErrValidation("realm is required").WithOperation("generate")
	case len(paths) == 0:
		return nil, ErrValidation("at least one persistent file is required").WithOperation("generate")
	}

	cm := &ConfigMap{
		ID:                    uuid.New().String(),
		AuthType:              authType,
		AuthConfigurationMode: mode,
		Realm:                 realm,
		GeneratedAt:           time.Now().UTC().Truncate(time.Second),
		PersistentFiles:       make([]PersistentFile, 0, len(paths)),
	}

	names := make(map[string]string, len(paths))
	for _, p := range paths {
		if p == "" {
			return nil, ErrValidation("empty persistent file path").WithOperation("generate")
		}
		name := filepath.Base(p)
		if prev, dup := names[name]; dup {
			return nil, ErrValidation(fmt.Sprintf("persistent files %s and %s share the name %s", prev, p, name)).
				WithOperation("generate")
		}
		names[name] = p
		cm.PersistentFiles = append(cm.PersistentFiles, PersistentFile{Name: name, Path: p})
	}

	return cm, nil
}

// Paths returns the persistent file paths in order.
func (cm *ConfigMap) Paths() []string {
	paths := make([]string, len(cm.PersistentFiles))
	for i, f := range cm.PersistentFiles {
		paths[i] = f.Path
	}
	return paths
}

// Capture reads the current content of every persistent file. Files that
// do not exist are recorded as not present.
func (cm *ConfigMap) Capture() error {
	return cm.CaptureRoot("")
}

// CaptureRoot is Capture with every path resolved under root.
func (cm *ConfigMap) CaptureRoot(root string) error {
	for i := range cm.PersistentFiles {
		f := &cm.PersistentFiles[i]
		src := filepath.Join(root, f.Path)

		info, err := os.Stat(src)
		if errors.Is(err, fs.ErrNotExist) {
			f.Present, f.Mode, f.Content = false, 0, nil
			continue
		}
		if err != nil {
			return ErrConfigWrite(src, err).WithOperation("capture")
		}

		data, err := os.ReadFile(src)
		if err != nil {
			return ErrConfigWrite(src, err).WithOperation("capture")
		}
		f.Present = true
		f.Mode = info.Mode().Perm()
		f.Content = data
	}
	return nil
}

// File looks up a captured persistent file by logical name or full path.
func (cm *ConfigMap) File(name string) (*PersistentFile, error) {
	for i := range cm.PersistentFiles {
		f := &cm.PersistentFiles[i]
		if f.Name != name && f.Path != name {
			continue
		}
		if !f.Present {
			return nil, ErrNotFound("persistent file", name).
				WithDetail("reason", "not present at capture time")
		}
		return f, nil
	}
	return nil, ErrNotFound("persistent file", name)
}

// ExportFile writes the captured content of the named file to dest. dest
// must pass safeDir's check before anything is written.
func (cm *ConfigMap) ExportFile(name, dest string, safeDir SafeDir) error {
	cleaned, err := safeDir.Check(dest)
	if err != nil {
		return err
	}

	f, err := cm.File(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cleaned), 0755); err != nil {
		return ErrConfigWrite(cleaned, err).WithOperation("export")
	}

	mode := f.Mode
	if mode == 0 {
		mode = 0644
	}
	if err := os.WriteFile(cleaned, f.Content, mode); err != nil {
		return ErrConfigWrite(cleaned, err).WithOperation("export")
	}
	return nil
}
