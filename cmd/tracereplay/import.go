package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agenttrace/core"
)

func newImportCommand(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import <session-id>",
		Short: "Convert persisted chat history rows into replay log entries",
		Long: `Reads a JSON array of chat rows ({"role", "author", "content",
"metadata_json"}) and appends the derived replay entries to the session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			var rows []core.HistoryMessage
			if err := json.Unmarshal(data, &rows); err != nil {
				return fmt.Errorf("failed to decode history: %w", err)
			}

			at, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := at.ImportHistory(cmd.Context(), args[0], rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows as %d log entries into %s\n", len(rows), n, args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file holding the chat rows")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
