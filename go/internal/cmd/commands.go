package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mcdev12/nexora/go/internal/nav"
	"github.com/mcdev12/nexora/go/internal/progress"
)

// withServices runs fn against the configured profile and flushes pending
// events before returning.
func withServices(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, s *Services) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	services, err := setupServices(ctx, cfg, clockwork.NewRealClock())
	if err != nil {
		return err
	}
	defer services.Close()
	services.Start(ctx)
	return fn(ctx, services)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newProgressCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show today's focus progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, flags, func(ctx context.Context, s *Services) error {
				view := s.Progress.View(ctx)
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), view)
				}
				printProgress(cmd.OutOrStdout(), view)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full view as JSON")
	return cmd
}

func printProgress(out io.Writer, v progress.View) {
	fmt.Fprintf(out, "Today      %s of %s (%.0f%%)\n", v.TodayFormatted, v.DailyGoalFormatted, v.DailyProgress)
	fmt.Fprintf(out, "Weekly     %.0f%% of %s\n", v.WeeklyProgress, v.WeeklyGoalFormatted)
	fmt.Fprintf(out, "Level      %d (%.0f%% to next)\n", v.Level, v.LevelProgress)
	fmt.Fprintf(out, "Points     %d (%d earned)\n", v.TotalPoints, v.TotalEarned)
	fmt.Fprintf(out, "Streak     %d days (best %d)\n", v.CurrentStreak, v.BestStreak)
	fmt.Fprintf(out, "Average    %s per session\n", progress.FormatMinutes(v.AverageSession))
}

func newRewardsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "List and redeem rewards",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the reward catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, flags, func(ctx context.Context, s *Services) error {
				view, err := s.Rewards.Catalog(ctx, category)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%d points available\n", view.Points)
				for _, r := range view.Available {
					fmt.Fprintf(out, "  %3d  %-28s %5d pts  %s\n", r.ID, r.Name, r.Cost, r.Category)
				}
				if len(view.Redeemed) > 0 {
					fmt.Fprintln(out, "Redeemed:")
					for _, r := range view.Redeemed {
						fmt.Fprintf(out, "  %3d  %s\n", r.ID, r.Name)
					}
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&category, "category", "all", "themes, features, customization, premium or all")

	redeem := &cobra.Command{
		Use:   "redeem <id>",
		Short: "Spend points on a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid reward id %q", args[0])
			}
			return withServices(cmd, flags, func(ctx context.Context, s *Services) error {
				res, err := s.Rewards.Redeem(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d points left)\n", res.Message, res.RemainingPoints)
				return nil
			})
		},
	}

	cmd.AddCommand(list, redeem)
	return cmd
}

func newRoutesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Inspect screen routes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, r := range nav.Routes() {
				access := "private"
				if r.Public {
					access = "public"
				}
				fmt.Fprintf(out, "%-22s %-16s %s\n", r.Path, r.Name, access)
			}
			return nil
		},
	})

	var from string
	resolve := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show which screen a path renders for the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, flags, func(ctx context.Context, s *Services) error {
				res := nav.Resolve(args[0], s.Guard.Authenticated(ctx), from)
				out := cmd.OutOrStdout()
				if res.Redirect {
					fmt.Fprintf(out, "redirect to %s (%s)\n", res.Route.Path, res.Route.Name)
				} else {
					fmt.Fprintf(out, "render %s (%s)\n", res.Route.Path, res.Route.Name)
				}
				if res.From != "" {
					fmt.Fprintf(out, "return to %s after login\n", res.From)
				}
				return nil
			})
		},
	}
	resolve.Flags().StringVar(&from, "from", "", "path the user came from")
	cmd.AddCommand(resolve)

	return cmd
}
