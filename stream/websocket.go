package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/agenttrace/core"
)

// WebSocketSource reads one JSON frame per text message of a websocket
// connection. A normal close from the peer ends the stream.
type WebSocketSource struct {
	conn *websocket.Conn
}

// NewWebSocketSource wraps an established connection.
func NewWebSocketSource(conn *websocket.Conn) *WebSocketSource {
	return &WebSocketSource{conn: conn}
}

// DialWebSocket connects to url and returns a source reading from it.
func DialWebSocket(ctx context.Context, url string, header http.Header) (*WebSocketSource, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial trace websocket: %w", err)
	}
	return NewWebSocketSource(conn), nil
}

// Next implements Source. A deadline on ctx becomes the read deadline;
// cancellation without deadline is observed between messages only, so
// callers close the source to abort a blocked read.
func (s *WebSocketSource) Next(ctx context.Context) (core.TraceEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(dl)
	}
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Join(ctxErr, err)
		}
		return nil, err
	}
	return Decode(data)
}

// Close closes the connection.
func (s *WebSocketSource) Close() error {
	return s.conn.Close()
}
