package lookup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/infrastructure/database"
	"github.com/blink-inc/blink/internal/infrastructure/repository"
	"github.com/blink-inc/blink/internal/interfaces/cli"
)

func NewCommand() *cobra.Command {
	var (
		flags      cli.Flags
		kind       string
		externalID string
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Find the identity behind a credential",
		Long: `Resolve a credential to the identity that owns it.

  --kind google    the Google account id
  --kind password  the login email
  --kind passkey   the base64url credential id`,
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

			resolver := identity.NewResolver(
				repository.NewIdentityRepository(gdb, log),
				repository.NewPasskeyCredentialRepository(gdb, log),
			)
			return Run(cmd.Context(), resolver, kind, externalID, cmd.OutOrStdout())
		},
	}
	flags.Bind(cmd)
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Credential kind: google, password or passkey")
	cmd.Flags().StringVar(&externalID, "id", "", "External credential identifier")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

// Run resolves externalID under the named credential kind and prints the owner.
func Run(ctx context.Context, resolver *identity.Resolver, kind, externalID string, out io.Writer) error {
	k, err := identity.ParseCredentialKind(kind)
	if err != nil {
		return err
	}

	found, err := resolver.FindIdentity(ctx, k, externalID)
	if err != nil {
		return fmt.Errorf("failed to resolve %s credential: %w", k, err)
	}
	if found == nil {
		return fmt.Errorf("no identity owns this %s credential", k)
	}

	fmt.Fprintf(out, "subject:  %s\nusername: %s\nemail:    %s\nscopes:   %s\n",
		found.Subject(), found.Username(), found.Email(), strings.Join(found.Scopes(), " "))
	return nil
}
