package aaguid

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blink-inc/blink/internal/infrastructure/cache"
	"github.com/blink-inc/blink/internal/interfaces/cli"
)

func NewCommand() *cobra.Command {
	var flags cli.Flags

	cmd := &cobra.Command{
		Use:   "aaguid",
		Short: "Manage the authenticator model table",
	}
	flags.Bind(cmd)

	cmd.AddCommand(newLoadCommand(&flags))
	return cmd
}

func newLoadCommand(flags *cli.Flags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load an AAGUID table into Redis",
		Long: `Load a JSON object mapping AAGUIDs to {"name", "icon_light", "icon_dark"}
into the metadata Redis database. Existing entries are overwritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := cli.Bootstrap(flags)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open AAGUID table: %w", err)
			}
			defer f.Close()

			client, err := cache.NewRedisClient(cmd.Context(), cfg.Redis, cfg.Redis.MetadataDB)
			if err != nil {
				return err
			}
			defer client.Close()

			catalog, err := cache.NewAuthenticatorCatalog(client, log)
			if err != nil {
				return err
			}

			n, err := catalog.Load(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d authenticator models\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the AAGUID JSON table")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
