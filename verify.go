package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
)

var errVerifyFailed = errors.New("verification failed")

func verifyOptions() []authconfig.OptionDescriptor {
	return []authconfig.OptionDescriptor{
		{Name: authconfig.OptHost, Description: "Application Domain", Short: "h", Required: true},
		{Name: authconfig.OptOutput, Description: "Configuration map file to check", Short: "o"},
		{Name: authconfig.OptDebug, Description: "Enable debugging", Short: "d", Default: false},
	}
}

func (c *cli) newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "verify <provider>",
		Short:     "Check the host configuration left by a provider",
		Args:      cobra.ExactArgs(1),
		ValidArgs: c.providerNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.setup(cmd)
			if err != nil {
				return err
			}

			p, err := c.manager().Provider(authconfig.ProviderName(args[0]))
			if err != nil {
				return err
			}
			v, ok := p.(authconfig.Verifier)
			if !ok || !authconfig.HasCapability(p.Capabilities(), authconfig.CapabilityVerify) {
				return authconfig.ErrValidation(fmt.Sprintf("provider %s does not support verify", p.Name())).
					WithProvider(p.Name())
			}

			opts := cfg.Options(verifyOptions())
			if err := authconfig.CheckRequired(opts, verifyOptions()); err != nil {
				return err
			}

			report := authconfig.RunChecks(cmd.Context(), p.Name(), v.Checks(opts))
			printReport(cmd.OutOrStdout(), report)
			if !report.OK() {
				return errVerifyFailed
			}
			return nil
		},
	}
	addOptionFlags(cmd, verifyOptions())
	return cmd
}

func printReport(out io.Writer, report *authconfig.Report) {
	fmt.Fprintln(out, "=== Verification Report ===")
	fmt.Fprintf(out, "Provider: %s\n", report.Provider)
	fmt.Fprintf(out, "OK: %t\n", report.OK())
	fmt.Fprintf(out, "Checks: %d passed, %d failed, %d skipped\n", report.Passed, report.Failed, report.Skipped)

	for _, check := range report.Checks {
		status := "✓"
		switch check.Status {
		case authconfig.CheckStatusFailed:
			status = "✗"
		case authconfig.CheckStatusSkipped:
			status = "○"
		}

		fmt.Fprintf(out, "\n%s %s [%s]\n", status, check.Name, check.Severity)
		if check.Status == authconfig.CheckStatusFailed && check.Remediation != "" {
			fmt.Fprintf(out, "  Remediation: %s\n", check.Remediation)
		}
	}
}
