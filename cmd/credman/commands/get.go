package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/config"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <KEY>",
		Short: "Print a single stored value",
		Long: `Retrieve one value from the store, decrypting it if it lives in the
container. The raw value goes to stdout and nothing else, so the
command is safe to use in scripts.

Examples:
  export BOTCHAN_API_KEY=$(credman get BOTCHAN_API_KEY)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			// Reads refuse to serve from an insecure store.
			if err := store.RequireSecure(); err != nil {
				return err
			}

			value, err := store.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(value))
			for i := range value {
				value[i] = 0
			}
			return nil
		},
	}
	return cmd
}
