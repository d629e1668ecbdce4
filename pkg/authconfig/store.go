package authconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

var validate = validator.New()

// SaveConfigMap writes cm to path, replacing any existing file. A ".json"
// path gets a JSON document, anything else YAML. The caller must have
// checked path against the safe directory.
func SaveConfigMap(cm *ConfigMap, path string) error {
	if err := validate.Struct(cm); err != nil {
		return ErrValidation("config map is incomplete").WithCause(err).WithOperation("save")
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(cm, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(cm)
	}
	if err != nil {
		return ErrInternal("failed to marshal config map").WithCause(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return ErrConfigWrite(path, err).WithOperation("save")
	}

	// Write atomically using temp file
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return ErrConfigWrite(path, err).WithOperation("save")
	}

	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile) // Clean up temp file
		return ErrConfigWrite(path, err).WithOperation("save")
	}

	return nil
}

// LoadConfigMap reads a config map written by SaveConfigMap. Both YAML and
// JSON documents are accepted.
func LoadConfigMap(path string) (*ConfigMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrArtifactLoad(path, err)
	}

	cm := new(ConfigMap)
	if err := yaml.Unmarshal(data, cm); err != nil {
		return nil, ErrArtifactLoad(path, fmt.Errorf("invalid config map format: %w", err))
	}

	if err := validate.Struct(cm); err != nil {
		return nil, ErrArtifactLoad(path, fmt.Errorf("invalid config map: %w", err))
	}

	return cm, nil
}
