package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSessionsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions and the length of their logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			ids, err := store.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tENTRIES")
			for _, id := range ids {
				events, err := at.Log(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\n", id, len(events))
			}
			return tw.Flush()
		},
	}
}
