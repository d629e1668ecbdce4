package hostconfig

import (
	"context"
	"os"
	"path/filepath"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// PAMStack is the PAM service used by the HTTP server's auth modules.
const PAMStack = `auth    required pam_sss.so
account required pam_sss.so
`

// PAM installs the HTTP server's PAM service file.
type PAM struct {
	Path string
}

// Install writes the service file, replacing any existing one.
func (p PAM) Install(ctx context.Context) error {
	log.Infof(ctx)("Configuring PAM")
	log.Debugf(ctx)("- Creating %s", p.Path)

	if err := os.MkdirAll(filepath.Dir(p.Path), 0755); err != nil {
		return authconfig.ErrConfigWrite(p.Path, err).WithOperation("pam")
	}
	if err := os.WriteFile(p.Path, []byte(PAMStack), 0644); err != nil {
		return authconfig.ErrConfigWrite(p.Path, err).WithOperation("pam")
	}
	return nil
}
