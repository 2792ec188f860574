package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/config"
	"github.com/openclaw/credman/internal/scan"
)

func NewScanCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Find credential-bearing files",
		Long: `Walk the configured roots (or the given paths) looking for files that
contain credential-looking keys. Only key names, paths, and file modes
are reported; values never leave the scanner.

Examples:
  # Scan the configured roots
  credman scan

  # Scan specific directories
  credman scan ~/projects ~/.config

  # Machine-readable output
  credman scan --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			roots := args
			if len(roots) == 0 {
				roots = cfg.ScanRoots()
			}

			report, err := scan.Run(scan.Options{
				Roots:    roots,
				Patterns: cfg.ScanPatterns(),
				Logger:   cfg.Logger,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				out, err := json.MarshalIndent(report.Findings, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output findings as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report scan.Report) {
	out := cmd.OutOrStdout()
	if len(report.Findings) == 0 {
		fmt.Fprintf(out, "No credential files found (%d scanned)\n", report.Scanned)
		return
	}

	for _, f := range report.Findings {
		fmt.Fprintf(out, "%s (%d key(s))\n", f.Path, len(f.Keys))
		if f.Loose {
			fmt.Fprintf(out, "  ! mode %o is readable by others\n", f.Mode)
		}
		if f.IsSymlink {
			fmt.Fprintf(out, "  ! symlink -> %s\n", f.Target)
		}
		for _, k := range f.Keys {
			marker := ""
			if k.Weak {
				marker = " (weak value)"
			}
			fmt.Fprintf(out, "  %s [%s]%s\n", k.Name, k.Tier, marker)
		}
	}
	fmt.Fprintf(out, "\n%d file(s) with credentials out of %d scanned\n",
		len(report.Findings), report.Scanned)
	for _, err := range report.Errors {
		fmt.Fprintf(out, "  skipped: %v\n", err)
	}
}
