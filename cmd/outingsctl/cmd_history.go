package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved chats",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved chats",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := client().ListHistory(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUPDATED\tMESSAGES\tTITLE")
				for _, it := range items {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.ID, it.UpdatedAt.Local().Format("2006-01-02 15:04"), it.MessageCount, it.Title)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print a saved chat",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				entry, err := client().GetHistory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n\n", entry.Title)
				for _, m := range entry.Messages {
					fmt.Fprintf(out, "%s: %s\n\n", m.Role, m.Content)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a saved chat",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := client().DeleteHistory(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
