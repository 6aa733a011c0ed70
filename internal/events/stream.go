package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// StreamOptions configures a websocket event stream.
type StreamOptions struct {
	// OriginPatterns lists extra allowed origin hosts; same-origin is always allowed.
	OriginPatterns []string
	Codec          Codec
	// Initial is called once the subscription is live and its events are
	// written first, e.g. a state snapshot. Events published while it runs
	// are delivered after it.
	Initial func() ([]Event, error)
}

// Stream upgrades the request and writes every event published on topic
// until the client disconnects, the request context ends or the topic closes.
func Stream(w http.ResponseWriter, r *http.Request, hub *Hub, topic string, opts StreamOptions) error {
	codec := opts.Codec
	if codec == nil {
		codec = JSONCodec{}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: opts.OriginPatterns,
	})
	if err != nil {
		return fmt.Errorf("accept websocket: %w", err)
	}
	defer conn.CloseNow()

	evs, cancel := hub.Subscribe(topic)
	defer cancel()

	// Clients only listen; CloseRead handles control frames and cancels ctx on close.
	ctx := conn.CloseRead(r.Context())

	if opts.Initial != nil {
		initial, err := opts.Initial()
		if err != nil {
			_ = conn.Close(websocket.StatusPolicyViolation, "stream unavailable")
			return fmt.Errorf("initial events: %w", err)
		}
		for _, ev := range initial {
			if err := write(ctx, conn, codec, ev); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-evs:
			if !ok {
				return conn.Close(websocket.StatusNormalClosure, "stream closed")
			}
			if err := write(ctx, conn, codec, ev); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, codec Codec, ev Event) error {
	data, err := codec.Encode(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, codec.MessageType(), data)
}
