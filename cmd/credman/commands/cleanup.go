package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/backup"
	"github.com/openclaw/credman/internal/config"
	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/scan"
)

func NewCleanupCommand(cfg *config.Config) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cleanup [paths...]",
		Short: "Archive leftover credential files",
		Long: `Move credential files that are no longer needed into a dated,
owner-only backup directory inside the store. Nothing is deleted;
the archive keeps the originals recoverable.

Examples:
  # Archive specific files
  credman cleanup ~/old-project/.env ~/.env.backup

  # Find and archive everything the scanner flags
  credman cleanup --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				report, err := scan.Run(scan.Options{
					Roots:    cfg.ScanRoots(),
					Patterns: cfg.ScanPatterns(),
					Logger:   cfg.Logger,
				})
				if err != nil {
					return err
				}
				for _, f := range report.Findings {
					// Never archive the store's own files.
					if f.Path == store.EnvPath() || f.Path == store.ContainerPath() {
						continue
					}
					paths = append(paths, f.Path)
				}
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to clean up")
				return nil
			}

			out := cmd.OutOrStdout()
			if !yes {
				for _, p := range paths {
					fmt.Fprintf(out, "would archive %s\n", p)
				}
				if !confirm(cfg, fmt.Sprintf("Archive %d file(s)?", len(paths))) {
					return credmanerrors.UserError{
						Message:    "Cleanup cancelled",
						Suggestion: "Pass --yes to skip the confirmation",
					}
				}
			}

			archiver := backup.NewArchiver(store.Dir(), cfg.Logger)
			moved, errs := archiver.Move(paths)
			fmt.Fprintf(out, "Archived %d file(s) into %s\n", len(moved), archiver.Dir())
			for _, err := range errs {
				fmt.Fprintf(out, "  not archived: %v\n", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Archive without confirmation")
	return cmd
}
