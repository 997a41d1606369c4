package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/replay"
)

func newReplayCommand(c *cli) *cobra.Command {
	var (
		upto   int
		format string
	)
	cmd := &cobra.Command{
		Use:   "replay <session-id>",
		Short: "Print the view state after the first N log entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := at.Log(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if upto < 0 {
				upto = len(events)
			}
			state, err := replay.Reconstruct(events, upto, c.cfg.Trace.config())
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), format, state)
		},
	}
	cmd.Flags().IntVar(&upto, "upto", -1, "number of log entries to apply (default all)")
	cmd.Flags().StringVarP(&format, "format", "o", "yaml", "output format: yaml or json")
	return cmd
}

func newLogCommand(c *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "log <session-id>",
		Short: "Print the canonical replay log of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := at.Log(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format == "text" {
				for _, ev := range events {
					fmt.Fprintln(cmd.OutOrStdout(), describe(ev))
				}
				return nil
			}
			return writeValue(cmd.OutOrStdout(), format, events)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text, yaml or json")
	return cmd
}

// writeValue encodes v as indented JSON or as YAML. YAML output goes through
// the JSON encoding so field names follow the json tags.
func writeValue(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "json":
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "yaml", "yml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// describe renders a log entry on one line.
func describe(ev core.ReplayEvent) string {
	switch ev.Type {
	case core.ReplayToolCall:
		if p, err := ev.ToolCall(); err == nil {
			return fmt.Sprintf("%4d %-13s %s %s", ev.Index, ev.Type, ev.Author, p.Name)
		}
	case core.ReplayToolResponse:
		if p, err := ev.ToolResponse(); err == nil {
			return fmt.Sprintf("%4d %-13s %s %s: %s", ev.Index, ev.Type, ev.Author, p.Name, truncate(p.Response, 60))
		}
	case core.ReplayAssistant:
		if ev.IsTurnComplete() {
			return fmt.Sprintf("%4d %-13s %s (turn complete) %s", ev.Index, ev.Type, ev.Author, truncate(ev.Text, 60))
		}
	}
	return fmt.Sprintf("%4d %-13s %s %s", ev.Index, ev.Type, ev.Author, truncate(ev.Text, 60))
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
