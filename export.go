package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
)

func (c *cli) newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one file from a config map",
		Example: `  httpd-authconfig export -i /tmp/ipa.yaml -l sssd.conf -o /tmp/sssd.conf
  httpd-authconfig export -i /tmp/ipa.yaml -l /etc/krb5.conf -o /tmp/krb5.conf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.setup(cmd)
			if err != nil {
				return err
			}

			opts := cfg.Options(authconfig.ExportRequiredOptions())
			exporter := authconfig.NewExporter(c.safeDir)
			if err := exporter.Export(cmd.Context(), opts); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n",
				opts.String(authconfig.OptFile), opts.String(authconfig.OptOutput))
			return nil
		},
	}
	addOptionFlags(cmd, authconfig.ExportRequiredOptions())
	return cmd
}
