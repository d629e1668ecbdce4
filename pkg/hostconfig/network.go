package hostconfig

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// HostnameCommand sets the kernel host name.
const HostnameCommand = "/usr/bin/hostname"

var hostnameLine = regexp.MustCompile(`(?m)^HOSTNAME=[^\r\n]*`)

// Network records the host name in the sysconfig network file.
type Network struct {
	Path string
}

// Configure sets HOSTNAME= in the file, replacing existing assignments or
// appending one. A missing file is created.
func (n Network) Configure(ctx context.Context, host string) error {
	log.Infof(ctx)("Configuring Network")

	mode := fs.FileMode(0644)
	data, err := os.ReadFile(n.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	case err != nil:
		return authconfig.ErrConfigWrite(n.Path, err).WithOperation("network")
	default:
		if info, err := os.Stat(n.Path); err == nil {
			mode = info.Mode().Perm()
		}
	}

	line := []byte("HOSTNAME=" + host)
	if hostnameLine.Match(data) {
		data = hostnameLine.ReplaceAllLiteral(data, line)
	} else {
		if len(data) > 0 && data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		data = append(data, line...)
		data = append(data, '\n')
	}

	log.Debugf(ctx)("- Updating %s", n.Path)
	if err := os.MkdirAll(filepath.Dir(n.Path), 0755); err != nil {
		return authconfig.ErrConfigWrite(n.Path, err).WithOperation("network")
	}
	if err := os.WriteFile(n.Path, data, mode); err != nil {
		return authconfig.ErrConfigWrite(n.Path, err).WithOperation("network")
	}
	return nil
}

// Hostname updates the host's name record and the running host name.
type Hostname struct {
	// Path is the host name file, usually /etc/hostname.
	Path string

	Runner authconfig.Runner
}

// Set writes host to the host name file and runs the hostname command.
func (h Hostname) Set(ctx context.Context, host string) error {
	log.Infof(ctx)("Updating hostname to %s", host)

	if err := os.WriteFile(h.Path, []byte(host+"\n"), 0644); err != nil {
		return authconfig.ErrConfigWrite(h.Path, err).WithOperation("hostname")
	}

	_, err := h.Runner.Run(ctx, authconfig.Command{Path: HostnameCommand, Args: []string{host}})
	return err
}
