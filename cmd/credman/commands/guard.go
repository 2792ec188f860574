package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/config"
)

func NewGuardCommand(cfg *config.Config) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Fail unless the store is secure",
		Long: `Exit non-zero unless the store file exists owner-only and is covered
by .gitignore. Intended for shell profiles and CI steps that should
refuse to proceed against an insecure store.

Examples:
  credman guard && ./deploy.sh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			if err := store.RequireSecure(); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Store is secure")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing on success")
	return cmd
}
