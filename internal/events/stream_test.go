package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, hub *Hub, codec Codec, initial func() ([]Event, error)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = Stream(w, r, hub, "s-1", StreamOptions{Codec: codec, Initial: initial})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func waitForSubscriber(t *testing.T, hub *Hub) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers("s-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamWritesInitialThenPublishedJSON(t *testing.T) {
	hub := NewHub(0)
	srv := newStreamServer(t, hub, JSONCodec{}, func() ([]Event, error) {
		return []Event{{Type: TypeSessionCreated, SessionID: "s-1"}}, nil
	})
	conn := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	ev, err := JSONCodec{}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeSessionCreated, ev.Type)

	waitForSubscriber(t, hub)
	hub.Publish("s-1", Event{Type: TypeStepChanged, SessionID: "s-1", Data: map[string]any{"step": 2}})

	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	ev, err = JSONCodec{}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeStepChanged, ev.Type)
}

func TestStreamMsgPackUsesBinaryFrames(t *testing.T) {
	hub := NewHub(0)
	srv := newStreamServer(t, hub, MsgPackCodec{}, nil)
	conn := dial(t, srv)
	waitForSubscriber(t, hub)

	hub.Publish("s-1", Event{Type: TypeFileStaged, SessionID: "s-1"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, typ)
	ev, err := MsgPackCodec{}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeFileStaged, ev.Type)
}

func TestStreamClosesWhenTopicCloses(t *testing.T) {
	hub := NewHub(0)
	srv := newStreamServer(t, hub, JSONCodec{}, nil)
	conn := dial(t, srv)
	waitForSubscriber(t, hub)

	hub.CloseTopic("s-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestStreamDeliversEventsPublishedDuringSnapshot(t *testing.T) {
	hub := NewHub(0)
	srv := newStreamServer(t, hub, JSONCodec{}, func() ([]Event, error) {
		hub.Publish("s-1", Event{Type: TypeFileStaged, SessionID: "s-1"})
		return []Event{{Type: TypeSessionSnapshot, SessionID: "s-1"}}, nil
	})
	conn := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var types []string
	for i := 0; i < 2; i++ {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		ev, err := JSONCodec{}.Decode(data)
		require.NoError(t, err)
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{TypeSessionSnapshot, TypeFileStaged}, types)
}

func TestStreamClosesWhenSnapshotFails(t *testing.T) {
	hub := NewHub(0)
	srv := newStreamServer(t, hub, JSONCodec{}, func() ([]Event, error) {
		return nil, errors.New("gone")
	})
	conn := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}
