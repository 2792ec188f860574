package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/config"
	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/permissions"
	"github.com/openclaw/credman/internal/rotation"
)

func NewValidateCommand(cfg *config.Config) *cobra.Command {
	var (
		fix   bool
		check string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check store integrity and permissions",
		Long: `Verify the store directory: owner-only modes, .gitignore coverage, a
parseable store file, and well-formed rotation metadata. With --fix,
loose modes are tightened and missing .gitignore entries added;
everything else is reported for manual attention.

Examples:
  credman validate
  credman validate --fix
  credman validate --check permissions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch check {
			case "all", "permissions", "gitignore", "format":
			default:
				return credmanerrors.ConfigError{
					Field:      "check",
					Value:      check,
					Message:    "unknown check",
					Suggestion: "Use one of: all, permissions, gitignore, format",
				}
			}
			if err := cfg.Load(); err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			checker := permissions.NewChecker(cfg.Logger)
			problems := 0

			report := func(format string, args ...interface{}) {
				problems++
				fmt.Fprintf(out, "  ✗ "+format+"\n", args...)
			}

			// File modes. Missing optional files are fine.
			if check == "all" || check == "permissions" {
				if issue := checker.CheckDir(store.Dir()); issue != nil && !issue.Missing {
					if fix {
						if err := checker.Fix(issue); err != nil {
							return err
						}
					} else {
						report("%s", issue)
					}
				}
				for _, path := range []string{store.EnvPath(), store.ContainerPath(), store.MetaPath()} {
					issue := checker.CheckFile(path)
					if issue == nil || issue.Missing {
						continue
					}
					if fix {
						if err := checker.Fix(issue); err != nil {
							return err
						}
						continue
					}
					report("%s", issue)
				}
			}

			// Gitignore coverage.
			if check == "all" || check == "gitignore" {
				if missing := checker.CheckGitignore(store.Dir()); len(missing) > 0 {
					if fix {
						if err := checker.FixGitignore(store.Dir(), missing); err != nil {
							return err
						}
					} else {
						report(".gitignore missing entries: %s", strings.Join(missing, ", "))
					}
				}
			}

			if check == "all" || check == "format" {
				// The store must parse, and references need a container.
				entries, err := store.List()
				if err != nil {
					report("store file: %v", err)
				} else {
					refs := 0
					for _, e := range entries {
						if e.Encrypted {
							refs++
						}
					}
					if refs > 0 {
						if _, err := os.Stat(store.ContainerPath()); os.IsNotExist(err) {
							report("%d encrypted reference(s) but no container file", refs)
						}
					}
				}

				// Rotation metadata must conform to its schema.
				if data, err := os.ReadFile(store.MetaPath()); err == nil {
					if err := rotation.ValidateMeta(data); err != nil {
						report("%v", err)
					}
				}
			}

			if problems == 0 {
				fmt.Fprintln(out, "Store is valid")
				return nil
			}
			return credmanerrors.UserError{
				Message:    fmt.Sprintf("%d problem(s) found", problems),
				Suggestion: "Run 'credman validate --fix' to repair what can be repaired",
				Err:        credmanerrors.ErrInsecurePermissions,
			}
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Repair loose modes and missing .gitignore entries")
	cmd.Flags().StringVar(&check, "check", "all", "Which checks to run: all, permissions, gitignore, format")
	return cmd
}
