package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/parlorgames/parlor/internal/message"
)

// Watch connects to the board's push surface and streams appended
// records until ctx is cancelled or the connection drops. The channel
// closes on exit; callers fall back to polling. A pushed record is a
// staleness signal, not a delivery: consuming it directly would bypass
// the poll loop's ordering, so callers poll on receipt instead.
func (c *Client) Watch(ctx context.Context) (<-chan message.Record, error) {
	wsURL := c.baseURL + "/messages/watch"
	if strings.HasPrefix(wsURL, "https://") {
		wsURL = "wss" + strings.TrimPrefix(wsURL, "https")
	} else {
		wsURL = "ws" + strings.TrimPrefix(wsURL, "http")
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial watch: %v", ErrTransport, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	out := make(chan message.Record)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var rec message.Record
			if err := conn.ReadJSON(&rec); err != nil {
				return
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	return out, nil
}
