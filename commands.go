package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/config"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// cli holds state shared by all subcommands of one root command.
type cli struct {
	registry *authconfig.Registry
	safeDir  authconfig.SafeDir
	cfgFile  string
}

// newRootCmd builds the command tree. Every provider in registry gets its
// own configure subcommand. Artifacts and exports are only written under
// safeDir, which no flag, variable or config file can change.
func newRootCmd(registry *authconfig.Registry, safeDir authconfig.SafeDir) *cobra.Command {
	c := &cli{registry: registry, safeDir: safeDir}

	root := &cobra.Command{
		Use:   "httpd-authconfig",
		Short: "Enroll an httpd container into an identity domain",
		Long: `httpd-authconfig joins an application container to an external identity
domain, configures SSSD, PAM and Kerberos for the HTTP service and captures
the resulting host files into a config map that can be replayed elsewhere.

Use "httpd-authconfig [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (YAML)")

	for _, info := range registry.Describe() {
		root.AddCommand(c.newConfigureCmd(info))
	}
	root.AddCommand(c.newUnconfigureCmd())
	root.AddCommand(c.newExportCmd())
	root.AddCommand(c.newVerifyCmd())
	root.AddCommand(c.newProvidersCmd())
	root.AddCommand(newVersionCmd())

	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

// setup resolves settings for cmd and configures logging.
func (c *cli) setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	if err := log.Setup(cmd.ErrOrStderr(), settings.Log.Level, settings.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) manager() *authconfig.Manager {
	return authconfig.NewManager(
		authconfig.WithRegistry(c.registry),
		authconfig.WithSafeDir(c.safeDir),
	)
}

func (c *cli) providerNames() []string {
	names := c.registry.List()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

// addOptionFlags defines one flag per descriptor. Booleans become switches.
// The help flag loses its -h shorthand, which belongs to --host.
func addOptionFlags(cmd *cobra.Command, descriptors ...[]authconfig.OptionDescriptor) {
	fs := cmd.Flags()
	fs.Bool("help", false, "help for "+cmd.Name())

	for _, group := range descriptors {
		for _, d := range group {
			if fs.Lookup(d.Name) != nil {
				continue
			}
			addOptionFlag(fs, d)
		}
	}
}

func addOptionFlag(fs *pflag.FlagSet, d authconfig.OptionDescriptor) {
	usage := d.Description
	if d.Required {
		usage += " (required)"
	}
	short := d.Short
	if fs.ShorthandLookup(short) != nil {
		short = ""
	}

	if d.IsBool() {
		fs.BoolP(d.Name, short, d.Default.(bool), usage)
		return
	}
	def := ""
	if d.Default != nil {
		def = fmt.Sprint(d.Default)
	}
	fs.StringP(d.Name, short, def, usage)
}

func (c *cli) newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List available providers and their options",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-10s %-10s %s\n", "NAME", "AUTH", "MODE", "CAPABILITIES")
			for _, p := range c.registry.Describe() {
				caps := make([]string, len(p.Capabilities))
				for i, cp := range p.Capabilities {
					caps[i] = string(cp)
				}
				fmt.Fprintf(out, "%-10s %-10s %-10s %s\n", p.Name, p.Auth.Type, p.Auth.Configuration, strings.Join(caps, ", "))
				for _, d := range authconfig.MergeOptions(p.RequiredOptions, p.OptionalOptions...) {
					req := ""
					if d.Required {
						req = " (required)"
					}
					fmt.Fprintf(out, "  --%-16s %s%s\n", d.Name, d.Description, req)
				}
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "httpd-authconfig %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}
