package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/config"
	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/services"
)

func NewServicesCommand(cfg *config.Config) *cobra.Command {
	var add []string

	cmd := &cobra.Command{
		Use:   "services [service]",
		Short: "Show or extend the service name table",
		Long: `Show the service mappings used to turn discovered field names into
canonical keys. New mappings are saved to the services file and merged
with the built-ins on every run.

Examples:
  # List known services
  credman services

  # Show one service's field mappings
  credman services farcaster

  # Register a field mapping for a new service
  credman services --add "vercel:token=VERCEL_TOKEN"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			table, err := loadServices(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(add) > 0 {
				for _, spec := range add {
					service, mapping, err := parseMappingSpec(spec)
					if err != nil {
						return err
					}
					table.Register(service, mapping)
					fmt.Fprintf(out, "registered %s (%d field(s))\n", service, len(mapping))
				}
				return table.SaveFile(cfg.ServicesFile())
			}

			if len(args) == 1 {
				fields, ok := table.Fields(args[0])
				if !ok {
					return credmanerrors.UserError{
						Message:    fmt.Sprintf("Unknown service '%s'", args[0]),
						Suggestion: "Run 'credman services' to list known services",
					}
				}
				for _, f := range fields {
					fmt.Fprintf(out, "%s -> %s\n", f[0], f[1])
				}
				return nil
			}

			for _, name := range table.Names() {
				fields, _ := table.Fields(name)
				fmt.Fprintf(out, "%s (%d field(s))\n", name, len(fields))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&add, "add", nil,
		`Add a mapping as "service:field=CANONICAL[,field=CANONICAL...]"`)
	return cmd
}

// parseMappingSpec parses "service:field=CANONICAL,field=CANONICAL".
func parseMappingSpec(spec string) (string, services.Mapping, error) {
	service, rest, ok := strings.Cut(spec, ":")
	service = strings.TrimSpace(service)
	if !ok || service == "" || rest == "" {
		return "", nil, credmanerrors.ConfigError{
			Field:      "add",
			Value:      spec,
			Message:    "expected service:field=CANONICAL",
			Suggestion: `Example: --add "vercel:token=VERCEL_TOKEN"`,
		}
	}

	mapping := services.Mapping{}
	for _, pair := range strings.Split(rest, ",") {
		field, canonical, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		canonical = strings.TrimSpace(canonical)
		if !ok || field == "" || canonical == "" {
			return "", nil, credmanerrors.ConfigError{
				Field:      "add",
				Value:      pair,
				Message:    "expected field=CANONICAL",
				Suggestion: `Example: --add "vercel:token=VERCEL_TOKEN,team_id=VERCEL_TEAM_ID"`,
			}
		}
		mapping[field] = canonical
	}
	return service, mapping, nil
}
