package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
	"github.com/anirudhbiyani/httpd-authconfig/pkg/log"
)

// newConfigureCmd builds "<provider>", which joins the host and writes the
// config map. Flags come from the provider's option descriptors.
func (c *cli) newConfigureCmd(info authconfig.ProviderInfo) *cobra.Command {
	name := info.Name
	cmd := &cobra.Command{
		Use:   string(name),
		Short: fmt.Sprintf("Configure %s authentication (%s)", name, info.Auth.Configuration),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.setup(cmd)
			if err != nil {
				return err
			}
			mgr := c.manager()

			p, err := mgr.Provider(name)
			if err != nil {
				return err
			}
			opts := cfg.Options(p.RequiredOptions(), p.OptionalOptions())
			if err := authconfig.CheckRequired(opts, p.RequiredOptions()); err != nil {
				return err
			}

			ctx := log.WithFields(cmd.Context(), map[string]interface{}{"command": cmd.Name()})
			if err := mgr.RunConfigure(ctx, p, opts); err != nil {
				return err
			}

			output, _ := mgr.SafeDir().Check(opts.String(authconfig.OptOutput))
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration map saved to %s\n", output)
			return nil
		},
	}
	addOptionFlags(cmd, info.RequiredOptions, info.OptionalOptions)
	return cmd
}

func (c *cli) newUnconfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "unconfigure <provider>",
		Short:     "Leave the identity domain joined by a provider",
		Args:      cobra.ExactArgs(1),
		ValidArgs: c.providerNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.setup(cmd); err != nil {
				return err
			}
			mgr := c.manager()

			p, err := mgr.Provider(authconfig.ProviderName(args[0]))
			if err != nil {
				return err
			}
			if !authconfig.HasCapability(p.Capabilities(), authconfig.CapabilityUnconfigure) {
				return authconfig.ErrValidation(fmt.Sprintf("provider %s does not support unconfigure", p.Name())).
					WithProvider(p.Name())
			}

			if !mgr.Configured(p) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not configured\n", p.Name())
				return nil
			}
			if err := mgr.Unconfigure(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s unconfigured\n", p.Name())
			return nil
		},
	}
}
