package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rhuss/outings/pkg/api"
)

func newPrefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change user preferences",
	}
	cmd.AddCommand(newPrefsGetCommand(), newPrefsSetCommand(), newUsersCommand())
	return cmd
}

func newPrefsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [user]",
		Short: "Print a user's preferences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := client().Preferences(cmd.Context(), targetUser(args))
			if err != nil {
				return err
			}
			return printJSON(cmd, prefs)
		},
	}
}

func newPrefsSetCommand() *cobra.Command {
	var (
		location             string
		interests            string
		budgetMin, budgetMax float64
	)
	cmd := &cobra.Command{
		Use:   "set [user]",
		Short: "Update a user's preferences; unset flags are left untouched",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u api.PreferencesUpdate
			flags := cmd.Flags()
			if flags.Changed("location") {
				u.Location = &location
			}
			if flags.Changed("interests") {
				u.Interests = splitList(interests)
			}
			if flags.Changed("budget-min") {
				u.BudgetMin = &budgetMin
			}
			if flags.Changed("budget-max") {
				u.BudgetMax = &budgetMax
			}
			if u.Empty() {
				return fmt.Errorf("nothing to update; set at least one of --location, --interests, --budget-min, --budget-max")
			}

			prefs, err := client().UpdatePreferences(cmd.Context(), targetUser(args), u)
			if err != nil {
				return err
			}
			return printJSON(cmd, prefs)
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "home location")
	cmd.Flags().StringVar(&interests, "interests", "", "comma-separated interests")
	cmd.Flags().Float64Var(&budgetMin, "budget-min", 0, "minimum budget")
	cmd.Flags().Float64Var(&budgetMax, "budget-max", 0, "maximum budget")
	return cmd
}

func newUsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users with stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := client().Users(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
}

// targetUser prefers the positional argument, then --user, then the
// default user.
func targetUser(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if userID != "" {
		return userID
	}
	return api.DefaultUserID
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
