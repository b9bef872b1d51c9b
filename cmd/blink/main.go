package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blink-inc/blink/internal/interfaces/cli/aaguid"
	"github.com/blink-inc/blink/internal/interfaces/cli/lookup"
	"github.com/blink-inc/blink/internal/interfaces/cli/migrate"
	"github.com/blink-inc/blink/internal/interfaces/cli/server"
	"github.com/blink-inc/blink/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "blink",
		Short:        "Blink - passkey and session token service",
		Long:         `Blink authenticates identities with WebAuthn passkeys or passwords and issues signed session tokens.`,
		Version:      version.String(),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		aaguid.NewCommand(),
		lookup.NewCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
