package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/config"
	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/source"
)

func NewDeepScanCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deepscan <file>...",
		Short: "Search file bodies for credential material",
		Long: `Scan file contents line by line for private keys, bearer tokens, and
mnemonic phrases regardless of file format. Matches report the path,
line number, and pattern name only.

Examples:
  credman deepscan ~/notes.txt
  credman deepscan ~/Documents/*.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			total := 0
			var failures []error
			for _, path := range args {
				matches, err := source.DeepScan(path)
				if err != nil {
					failures = append(failures, err)
					continue
				}
				for _, m := range matches {
					fmt.Fprintf(out, "%s:%d: %s\n", m.Path, m.Line, m.Pattern)
				}
				total += len(matches)
			}

			fmt.Fprintf(out, "%d match(es) in %d file(s)\n", total, len(args)-len(failures))
			for _, err := range failures {
				fmt.Fprintf(out, "  skipped: %v\n", err)
			}
			if total == 0 && len(failures) == len(args) {
				return credmanerrors.UserError{
					Message:    "No files could be read",
					Suggestion: "Check the paths and their permissions",
				}
			}
			return nil
		},
	}
	return cmd
}
