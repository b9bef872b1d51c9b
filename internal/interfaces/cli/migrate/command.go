package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blink-inc/blink/internal/infrastructure/database"
	"github.com/blink-inc/blink/internal/interfaces/cli"
)

func NewCommand() *cobra.Command {
	var flags cli.Flags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := cli.Bootstrap(&flags)
			if err != nil {
				return err
			}

			gdb, err := database.Open(&cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(gdb) }()

			if err := database.Migrate(gdb); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Infow("database schema is up to date", "driver", cfg.Database.Driver)
			return nil
		},
	}
	flags.Bind(cmd)

	return cmd
}
