// Package main is the entry point for the httpd-authconfig CLI.
//
// The CLI enrolls an httpd application container into an external identity
// domain, captures the resulting host configuration into a config map and
// exports individual files back out of it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"

	// Import providers to register them
	_ "github.com/anirudhbiyani/httpd-authconfig/pkg/providers/ipa"
)

const (
	exitError           = 1
	exitValidationError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(authconfig.DefaultRegistry, authconfig.DefaultSafeDir)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !authconfig.Logged(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return exitCode(err)
	}
	return 0
}

// exitCode maps validation failures, including failed verification, to 2.
func exitCode(err error) int {
	if authconfig.IsCategory(err, authconfig.ErrCategoryValidation) || errors.Is(err, errVerifyFailed) {
		return exitValidationError
	}
	return exitError
}
