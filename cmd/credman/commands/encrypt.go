package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/classify"
	"github.com/openclaw/credman/internal/config"
	credmanerrors "github.com/openclaw/credman/internal/errors"
)

func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	var (
		allCritical bool
		decrypt     bool
		list        bool
	)

	cmd := &cobra.Command{
		Use:   "encrypt [KEY...]",
		Short: "Move values into or out of the encrypted container",
		Long: `Move stored values between plaintext and the encrypted container. The
store file keeps a GPG:<KEY> reference for every encrypted value, so
the key stays visible while the value does not.

Examples:
  # Encrypt specific keys
  credman encrypt MOLTEN_PRIVATE_KEY FARCASTER_MNEMONIC

  # Encrypt every critical-tier key still in plaintext
  credman encrypt --all-critical

  # Bring a value back to plaintext
  credman encrypt --decrypt MOLTEN_PRIVATE_KEY

  # Show which keys are encrypted
  credman encrypt --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				entries, err := store.List()
				if err != nil {
					return err
				}
				for _, e := range entries {
					state := "plaintext"
					if e.Encrypted {
						state = "encrypted"
					}
					fmt.Fprintf(out, "%s\t%s\n", e.Key, state)
				}
				return nil
			}

			keys := args
			if allCritical {
				entries, err := store.List()
				if err != nil {
					return err
				}
				for _, e := range entries {
					if !e.Encrypted && classify.TierForKey(e.Key) == classify.TierCritical {
						keys = append(keys, e.Key)
					}
				}
			}
			if len(keys) == 0 {
				return credmanerrors.UserError{
					Message:    "No keys to process",
					Suggestion: "Name keys on the command line or pass --all-critical",
				}
			}

			for _, key := range keys {
				if decrypt {
					if err := store.MoveToPlaintext(key); err != nil {
						return err
					}
					fmt.Fprintf(out, "Decrypted %s\n", key)
					continue
				}
				if err := store.MoveToEncrypted(key); err != nil {
					return err
				}
				fmt.Fprintf(out, "Encrypted %s\n", key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&allCritical, "all-critical", false, "Encrypt every plaintext critical-tier key")
	cmd.Flags().BoolVar(&decrypt, "decrypt", false, "Move values back to plaintext instead")
	cmd.Flags().BoolVar(&list, "list", false, "List keys and their storage state")
	return cmd
}
