package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agenttrace/core"
	"github.com/hupe1980/agenttrace/runner"
	"github.com/hupe1980/agenttrace/stream"
)

type ingestFlags struct {
	message     string
	sse         string
	ws          string
	metricsAddr string
	quiet       bool
}

func newIngestCommand(c *cli) *cobra.Command {
	var f ingestFlags
	cmd := &cobra.Command{
		Use:   "ingest [session-id]",
		Short: "Stream one turn from an SSE or WebSocket source into a session",
		Long: `Starts a turn with the given user message and correlates the events of
the source until the agent reports the turn complete. The canonical replay
log is appended to the session in the database. Without a session id a new
one is generated.

The SSE source is a file, "-" for stdin, or an http(s) URL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := runner.NewSessionID()
			if len(args) == 1 {
				sessionID = args[0]
			}
			return c.ingest(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), sessionID, f)
		},
	}
	cmd.Flags().StringVarP(&f.message, "message", "m", "", "user message that opens the turn")
	cmd.Flags().StringVar(&f.sse, "sse", "", "SSE source: file path, - for stdin, or URL")
	cmd.Flags().StringVar(&f.ws, "ws", "", "WebSocket URL to read events from")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while streaming")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "print only the final summary")
	_ = cmd.MarkFlagRequired("message")
	cmd.MarkFlagsMutuallyExclusive("sse", "ws")
	cmd.MarkFlagsOneRequired("sse", "ws")
	return cmd
}

func (c *cli) ingest(ctx context.Context, w io.Writer, stdin io.Reader, sessionID string, f ingestFlags) error {
	at, store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	if f.metricsAddr != "" {
		srv := &http.Server{Addr: f.metricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				c.logger.Sugar().Warnw("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	src, closeSrc, err := openSource(ctx, stdin, f)
	if err != nil {
		return err
	}
	defer closeSrc()

	_, deltasCh, errorsCh, err := at.Run(ctx, sessionID, f.message, src)
	if err != nil {
		return err
	}

	var (
		count   int
		turnErr error
	)
	for deltasCh != nil || errorsCh != nil {
		select {
		case d, ok := <-deltasCh:
			if !ok {
				deltasCh = nil
				continue
			}
			count++
			if !f.quiet {
				printDelta(w, d)
			}
		case err, ok := <-errorsCh:
			if !ok {
				errorsCh = nil
				continue
			}
			turnErr = err
		}
	}

	events, err := at.Log(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "session %s: %d deltas, %d log entries\n", sessionID, count, len(events))
	return turnErr
}

// openSource resolves the source flags. The returned func releases the
// source.
func openSource(ctx context.Context, stdin io.Reader, f ingestFlags) (stream.Source, func(), error) {
	switch {
	case f.ws != "":
		src, err := stream.DialWebSocket(ctx, f.ws, nil)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	case f.sse == "-":
		return stream.NewSSESource(stdin), func() {}, nil
	case strings.HasPrefix(f.sse, "http://"), strings.HasPrefix(f.sse, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.sse, nil)
		if err != nil {
			return nil, nil, err
		}
		src, err := stream.OpenSSE(ctx, http.DefaultClient, req)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	default:
		file, err := os.Open(f.sse)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open event stream: %w", err)
		}
		src := stream.NewSSESource(file)
		return src, func() { _ = src.Close() }, nil
	}
}

func printDelta(w io.Writer, d core.Delta) {
	switch d := d.(type) {
	case core.MessageDelta:
		fmt.Fprintf(w, "message  %-9s %s: %s\n", d.Message.Role, d.Message.Author, d.Message.Text)
	case core.ItemDelta:
		fmt.Fprintf(w, "item     %-9s %s %s [%s]\n", d.Item.ID, d.Item.Kind, d.Item.Label, d.Item.Status)
	case core.ParticipantDelta:
		fmt.Fprintf(w, "agent    %-9s %s\n", d.Participant.Name, d.Participant.Status)
	case core.EdgeDelta:
		fmt.Fprintf(w, "edge     %s→%s [%s]\n", d.Edge.From, d.Edge.To, d.Edge.Status)
	case core.BlockDelta:
		fmt.Fprintf(w, "block    %-9s %s [%s, %d pending]\n", d.TurnID, d.Title, d.Status, d.PendingCount)
	case core.SystemNotice:
		fmt.Fprintf(w, "notice   %s\n", d.Text)
	case core.DraftDelta:
		// Drafts are superseded by messages and narration.
	}
}
