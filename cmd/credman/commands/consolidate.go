package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/backup"
	"github.com/openclaw/credman/internal/classify"
	"github.com/openclaw/credman/internal/config"
	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/normalize"
	"github.com/openclaw/credman/internal/rotation"
	"github.com/openclaw/credman/internal/scan"
	"github.com/openclaw/credman/internal/source"
	"github.com/openclaw/credman/internal/vault"
)

func NewConsolidateCommand(cfg *config.Config) *cobra.Command {
	var (
		policyName string
		service    string
		dryRun     bool
		archive    bool
	)

	cmd := &cobra.Command{
		Use:   "consolidate [paths...]",
		Short: "Fold discovered credentials into the store",
		Long: `Scan for credential files, normalize their keys to canonical names,
and merge everything into the store under owner-only permissions.
Critical keys left in plaintext are flagged for a follow-up
'credman encrypt'; merging never encrypts on its own.

Examples:
  # Consolidate from the configured scan roots
  credman consolidate

  # Consolidate specific files, overwriting stored values on conflict
  credman consolidate ~/old/.env --policy overwrite

  # See what would change without writing
  credman consolidate --dry-run

  # Archive the source files after a successful merge
  credman consolidate --archive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := parsePolicy(policyName)
			if err != nil {
				return err
			}
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
			if len(report.Findings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to consolidate")
				return nil
			}

			table, err := loadServices(cfg)
			if err != nil {
				return err
			}

			// Only credential-looking entries move; a DEBUG flag in the
			// same file stays where it is.
			var entries []source.Entry
			var sources []string
			for _, f := range report.Findings {
				parsed, err := source.Parse(f.Path, source.FormatAuto)
				if err != nil {
					report.Errors = append(report.Errors, err)
					continue
				}
				for _, e := range parsed {
					if classify.Classify(e.OriginalKey, e.Value).IsCredential {
						entries = append(entries, e)
					}
				}
				sources = append(sources, f.Path)
			}

			result := normalize.New(table).Batch(entries)

			if service != "" {
				prefix := strings.ToUpper(service) + "_"
				kept := result.Entries[:0]
				for _, e := range result.Entries {
					if strings.HasPrefix(e.CanonicalKey, prefix) {
						kept = append(kept, e)
					}
				}
				result.Entries = kept
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, e := range result.Entries {
					fmt.Fprintf(out, "would merge %s (from %s)\n", e.CanonicalKey, e.Provenance.Path)
				}
				for _, c := range result.Conflicts {
					fmt.Fprintf(out, "conflict on %s: %s vs %s\n", c.Key, c.Existing.Path, c.Incoming.Path)
				}
				return nil
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			merge := make([]vault.MergeEntry, 0, len(result.Entries))
			for _, e := range result.Entries {
				merge = append(merge, vault.MergeEntry{Key: e.CanonicalKey, Value: e.Value})
			}
			var ask func(key string) bool
			if policy == vault.PolicyAsk {
				ask = func(key string) bool {
					return confirm(cfg, fmt.Sprintf("Overwrite stored value for %s?", key))
				}
			}
			res, err := store.Merge(merge, policy, ask)
			if err != nil {
				return err
			}

			if err := store.EnsureGitignore(); err != nil {
				return err
			}
			if err := store.WriteExample(); err != nil {
				return err
			}

			// Start tracking rotation for everything now in the store.
			stored, err := store.List()
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(stored))
			for _, e := range stored {
				keys = append(keys, e.Key)
			}
			tracker := rotation.NewTracker(store.MetaPath(), cfg.Logger)
			if _, err := tracker.Init(keys); err != nil {
				return err
			}

			fmt.Fprintf(out, "Merged %d source entr(ies) from %d file(s): %d added, %d updated, %d skipped\n",
				len(entries), len(sources), len(res.Added), len(res.Updated), len(res.Skipped))
			for _, c := range result.Conflicts {
				fmt.Fprintf(out, "  name conflict: %v\n", c)
			}
			for _, key := range res.Conflicts {
				fmt.Fprintf(out, "  value conflict on %s\n", key)
			}
			for _, key := range res.Rejected {
				fmt.Fprintf(out, "  rejected %s: not a canonical name\n", key)
			}
			if len(res.NeedsEncryption) > 0 {
				fmt.Fprintf(out, "Critical keys still in plaintext: %v\n", res.NeedsEncryption)
				fmt.Fprintf(out, "Run 'credman encrypt --all-critical' to move them into the container\n")
			}
			for _, err := range report.Errors {
				fmt.Fprintf(out, "  skipped: %v\n", err)
			}

			if archive {
				moved, errs := backup.NewArchiver(store.Dir(), cfg.Logger).Move(sources)
				fmt.Fprintf(out, "Archived %d source file(s)\n", len(moved))
				for _, err := range errs {
					fmt.Fprintf(out, "  not archived: %v\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policyName, "policy", "keep", "Conflict policy: keep, overwrite, or ask")
	cmd.Flags().StringVar(&service, "service", "", "Only merge keys belonging to this service")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().BoolVar(&archive, "archive", false, "Move source files into a dated backup after merging")
	return cmd
}

func parsePolicy(name string) (vault.MergePolicy, error) {
	switch name {
	case "keep", "":
		return vault.PolicyKeepExisting, nil
	case "overwrite":
		return vault.PolicyOverwrite, nil
	case "ask":
		return vault.PolicyAsk, nil
	default:
		return 0, credmanerrors.ConfigError{
			Field:      "policy",
			Value:      name,
			Message:    "unknown merge policy",
			Suggestion: "Use one of: keep, overwrite, ask",
		}
	}
}
