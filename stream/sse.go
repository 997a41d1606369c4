package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hupe1980/agenttrace/core"
)

// SSESource reads server sent events. Each event's data lines form one JSON
// frame; comments and fields other than data are ignored.
type SSESource struct {
	r      *bufio.Reader
	closer io.Closer
}

// NewSSESource creates a source reading events from r. When r is an
// io.Closer, Close closes it.
func NewSSESource(r io.Reader) *SSESource {
	s := &SSESource{r: bufio.NewReaderSize(r, 64*1024)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenSSE issues req and returns a source reading the response body. The
// request is bound to ctx; cancelling ctx aborts a blocked Next.
func OpenSSE(ctx context.Context, client *http.Client, req *http.Request) (*SSESource, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("open event stream: unexpected status %s", resp.Status)
	}
	return NewSSESource(resp.Body), nil
}

// Next implements Source.
func (s *SSESource) Next(ctx context.Context) (core.TraceEvent, error) {
	var data bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := s.r.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		eof := errors.Is(err, io.EOF)

		line = bytes.TrimRight(line, "\r\n")
		switch {
		case len(line) == 0:
			if data.Len() > 0 {
				return Decode(data.Bytes())
			}
		case line[0] == ':':
		case bytes.HasPrefix(line, []byte("data:")):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(bytes.TrimPrefix(bytes.TrimPrefix(line, []byte("data:")), []byte(" ")))
		}

		if eof {
			if data.Len() > 0 {
				return Decode(data.Bytes())
			}
			return nil, io.EOF
		}
	}
}

// Close releases the underlying reader.
func (s *SSESource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// WriteSSE writes ev as one "data: {json}" event.
func WriteSSE(w io.Writer, ev core.TraceEvent) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	return nil
}
