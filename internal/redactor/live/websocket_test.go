package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, hub *Hub) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Handle(r.URL.Query().Get("doc"), w, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func TestHubSend(t *testing.T) {
	hub := NewHub()
	url := newServer(t, hub)

	a := dial(t, url+"?doc=a")
	b := dial(t, url+"?doc=a")
	other := dial(t, url+"?doc=b")
	require.Eventually(t, func() bool {
		return hub.Sessions("a") == 2 && hub.Sessions("b") == 1
	}, 5*time.Second, 10*time.Millisecond)

	hub.Send(Event{Type: EventSaved, DocumentID: "a", Revision: 3})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range []*websocket.Conn{a, b} {
		var event Event
		require.NoError(t, wsjson.Read(ctx, c, &event))
		assert.Equal(t, EventSaved, event.Type)
		assert.Equal(t, "a", event.DocumentID)
		assert.Equal(t, 3, event.Revision)
		assert.False(t, event.CreatedAt.IsZero())
	}

	readCtx, readCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer readCancel()
	var event Event
	assert.Error(t, wsjson.Read(readCtx, other, &event))
}

func TestHubSessionClosed(t *testing.T) {
	hub := NewHub()
	url := newServer(t, hub)

	c := dial(t, url+"?doc=a")
	require.Eventually(t, func() bool { return hub.Sessions("a") == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close(websocket.StatusNormalClosure, ""))
	assert.Eventually(t, func() bool { return hub.Sessions("a") == 0 }, 5*time.Second, 10*time.Millisecond)

	// без сессий отправка ничего не делает
	hub.Send(Event{Type: EventSaved, DocumentID: "a"})
}

func TestHubCloseDocument(t *testing.T) {
	hub := NewHub()
	url := newServer(t, hub)

	c := dial(t, url+"?doc=a")
	require.Eventually(t, func() bool { return hub.Sessions("a") == 1 }, 5*time.Second, 10*time.Millisecond)

	hub.CloseDocument("a", "document deleted")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := c.Read(ctx)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
	assert.Eventually(t, func() bool { return hub.Sessions("a") == 0 }, 5*time.Second, 10*time.Millisecond)
}
