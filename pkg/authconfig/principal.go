package authconfig

import (
	"context"
	"fmt"
)

// IPACommand is the identity server's admin CLI.
const IPACommand = "/usr/bin/ipa"

// Principal is a service identity registered with the identity backend.
type Principal struct {
	Hostname string
	Realm    string
	Service  string
}

// Name returns the Kerberos principal name, service/host@REALM.
func (p Principal) Name() string {
	return fmt.Sprintf("%s/%s@%s", p.Service, p.Hostname, p.Realm)
}

// Register adds the service principal to the identity backend. The caller
// must already hold a ticket for an admin principal.
func (p Principal) Register(ctx context.Context, runner Runner) error {
	_, err := runner.Run(ctx, Command{
		Path: IPACommand,
		Args: []string{"-e", "skip_version_check=1", "service-add", "--force", p.Name()},
	})
	return err
}
