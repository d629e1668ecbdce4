package authconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// ExportRequiredOptions returns the options the export tool needs.
func ExportRequiredOptions() []OptionDescriptor {
	return []OptionDescriptor{
		{Name: OptInput, Description: "Input config map file", Short: "i", Required: true},
		{Name: OptFile, Description: "Config map file to export", Short: "l", Required: true},
		{Name: OptOutput, Description: "The output file being exported", Short: "o", Required: true},
	}
}

// Exporter extracts one persistent file from a saved config map.
type Exporter struct {
	safeDir SafeDir
}

// NewExporter creates an Exporter that writes only under safeDir.
func NewExporter(safeDir SafeDir) *Exporter {
	return &Exporter{safeDir: safeDir}
}

// Export loads opts[OptInput] and writes the captured content of
// opts[OptFile] to opts[OptOutput]. A half-written output is left as is
// on failure.
func (e *Exporter) Export(ctx context.Context, opts Options) error {
	ctx = log.WithFields(ctx, map[string]interface{}{
		"input": opts.String(OptInput),
		"file":  opts.String(OptFile),
	})

	err := e.export(ctx, opts)
	if err != nil {
		LogCommandError(ctx, err)
	}
	return err
}

func (e *Exporter) export(ctx context.Context, opts Options) error {
	if err := e.validateOptions(opts); err != nil {
		return err
	}

	cm, err := LoadConfigMap(opts.String(OptInput))
	if err != nil {
		return err
	}

	if err := cm.ExportFile(opts.String(OptFile), opts.String(OptOutput), e.safeDir); err != nil {
		return err
	}

	log.Infof(ctx)("Exported %s to %s", opts.String(OptFile), opts.String(OptOutput))
	return nil
}

func (e *Exporter) validateOptions(opts Options) error {
	if err := CheckRequired(opts, ExportRequiredOptions()); err != nil {
		return err
	}
	input := opts.String(OptInput)
	if _, err := os.Stat(input); errors.Is(err, fs.ErrNotExist) {
		return ErrValidation(fmt.Sprintf("input configuration map %s does not exist", input)).
			WithOperation("export")
	}
	return nil
}
