package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/credman/internal/classify"
	"github.com/openclaw/credman/internal/config"
	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/rotation"
)

func NewRotationCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotation",
		Short: "Track credential age and rotation deadlines",
	}

	cmd.AddCommand(
		newRotationInitCommand(cfg),
		newRotationStatusCommand(cfg),
		newRotationRecordCommand(cfg),
		newRotationReclassifyCommand(cfg),
	)
	return cmd
}

func newRotationInitCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Start tracking every stored key",
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, keys, err := rotationSetup(cfg)
			if err != nil {
				return err
			}
			added, err := tracker.Init(keys)
			if err != nil {
				return err
			}
			if len(added) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All stored keys already tracked")
				return nil
			}
			for _, key := range added {
				fmt.Fprintf(cmd.OutOrStdout(), "tracking %s\n", key)
			}
			return nil
		},
	}
}

func newRotationStatusCommand(cfg *config.Config) *cobra.Command {
	var dueOnly bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report where every key stands in its rotation cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, keys, err := rotationSetup(cfg)
			if err != nil {
				return err
			}
			statuses, orphaned, err := tracker.Status(keys)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			due := 0
			for _, st := range statuses {
				if st.State == rotation.StateDue || st.State == rotation.StateUpcoming {
					due++
				}
				if dueOnly && st.State != rotation.StateDue {
					continue
				}
				switch st.State {
				case rotation.StateUntracked:
					fmt.Fprintf(out, "%-40s untracked (run 'credman rotation init')\n", st.Key)
				case rotation.StateDue:
					fmt.Fprintf(out, "%-40s DUE (%s, %d days old, interval %d)\n",
						st.Key, st.Risk, st.AgeDays, st.RotationDays)
				case rotation.StateUpcoming:
					fmt.Fprintf(out, "%-40s due in %d day(s) (%s)\n", st.Key, st.DaysLeft, st.Risk)
				default:
					fmt.Fprintf(out, "%-40s ok (%d day(s) left)\n", st.Key, st.DaysLeft)
				}
			}
			for _, key := range orphaned {
				fmt.Fprintf(out, "%-40s tracked but no longer stored\n", key)
			}
			if due > 0 {
				fmt.Fprintf(out, "\n%d key(s) need attention\n", due)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dueOnly, "due", false, "Show only keys past their interval")
	return cmd
}

func newRotationRecordCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "record <KEY>",
		Short: "Mark a key as rotated now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, _, err := rotationSetup(cfg)
			if err != nil {
				return err
			}
			if err := tracker.RecordRotation(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rotation of %s recorded\n", args[0])
			return nil
		},
	}
}

func newRotationReclassifyCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reclassify [KEY TIER]",
		Short: "Recompute risk tiers from key names, or pin one key's tier",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, _, err := rotationSetup(cfg)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				if len(args) != 2 {
					return credmanerrors.UserError{
						Message:    "Manual reclassification needs a key and a tier",
						Suggestion: "Usage: credman rotation reclassify MOLTEN_API_KEY critical",
					}
				}
				tier, err := parseTier(args[1])
				if err != nil {
					return err
				}
				if err := tracker.SetTier(args[0], tier); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], tier)
				return nil
			}
			changed, err := tracker.Reclassify()
			if err != nil {
				return err
			}
			if len(changed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tiers changed")
				return nil
			}
			for _, key := range changed {
				fmt.Fprintf(cmd.OutOrStdout(), "reclassified %s\n", key)
			}
			return nil
		},
	}
}

func parseTier(name string) (classify.Tier, error) {
	switch name {
	case "critical":
		return classify.TierCritical, nil
	case "standard":
		return classify.TierStandard, nil
	case "low":
		return classify.TierLow, nil
	default:
		return "", credmanerrors.ConfigError{
			Field:      "tier",
			Value:      name,
			Message:    "unknown risk tier",
			Suggestion: "Use one of: critical, standard, low",
		}
	}
}

// rotationSetup loads config, opens the store, and returns the tracker
// together with the currently stored keys.
func rotationSetup(cfg *config.Config) (*rotation.Tracker, []string, error) {
	if err := cfg.Load(); err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	entries, err := store.List()
	if err != nil {
		return nil, nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return rotation.NewTracker(store.MetaPath(), cfg.Logger), keys, nil
}
