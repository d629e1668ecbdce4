package hostconfig

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// Keytab restricts a keytab file to its service account.
type Keytab struct {
	Path  string
	Owner string
}

// Secure changes the file's owner to Owner, leaving the group, and sets
// mode 0600.
func (k Keytab) Secure(ctx context.Context) error {
	log.Debugf(ctx)("- Securing %s for %s", k.Path, k.Owner)

	u, err := user.Lookup(k.Owner)
	if err != nil {
		return authconfig.ErrConfigWrite(k.Path, err).WithOperation("keytab")
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return authconfig.ErrConfigWrite(k.Path, fmt.Errorf("uid %q of %s: %w", u.Uid, k.Owner, err)).
			WithOperation("keytab")
	}

	if err := os.Chown(k.Path, uid, -1); err != nil {
		return authconfig.ErrConfigWrite(k.Path, err).WithOperation("keytab")
	}
	if err := os.Chmod(k.Path, 0600); err != nil {
		return authconfig.ErrConfigWrite(k.Path, err).WithOperation("keytab")
	}
	return nil
}
