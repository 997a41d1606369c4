package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/replay"
)

func newPlayCommand(c *cli) *cobra.Command {
	var (
		from  int
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "play <session-id>",
		Short: "Step through a session's log with a delay between entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			at, store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := at.Log(ctx, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("delay") {
				delay = c.cfg.Delay
			}

			w := cmd.OutOrStdout()
			started := false
			p, err := at.Player(ctx, args[0], func(o *replay.PlayerOptions) {
				o.Delay = delay
				o.OnStep = func(cursor int, state core.SessionViewState) {
					if !started || cursor == 0 {
						return
					}
					fmt.Fprintf(w, "[%d/%d] %s | %d messages, %d blocks, %d agents\n",
						cursor, len(events), describe(events[cursor-1]), len(state.Messages), len(state.Blocks), len(state.Participants))
				}
			})
			if err != nil {
				return err
			}
			if err := p.Scrub(from); err != nil {
				return err
			}
			started = true
			if err := p.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				return err
			}
			fmt.Fprintf(w, "stopped at %d/%d\n", p.Cursor(), p.Len())
			return nil
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "log position to start playback from")
	cmd.Flags().DurationVar(&delay, "delay", replay.DefaultDelay, "pause between entries (overrides config)")
	return cmd
}
