package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmate/internal/domain"
	"rentmate/internal/events"
)

func newTestConn(keys ...string) *connection {
	return &connection{keys: keys, send: make(chan []byte, 8)}
}

func readFrame(t *testing.T, c *connection) WSEvent {
	t.Helper()
	select {
	case data := <-c.send:
		var ev WSEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
	return WSEvent{}
}

func TestHub_DeliverOncePerSocket(t *testing.T) {
	h := NewHub()
	mitra := newTestConn(BookerKey(domain.BookerMitra, 3), TalentKey(5))
	h.register(mitra)

	n := h.Deliver(&WSEvent{Type: "chat.message"}, BookerKey(domain.BookerMitra, 3), TalentKey(5))
	assert.Equal(t, 1, n)
	assert.Len(t, mitra.send, 1)
	assert.Equal(t, 1, h.OnlineCount())
	assert.True(t, h.IsOnline(TalentKey(5)))

	h.unregister(mitra)
	assert.False(t, h.IsOnline(TalentKey(5)))
	assert.Equal(t, 0, h.Deliver(&WSEvent{Type: "chat.message"}, TalentKey(5)))
}

func TestHub_RunRoutesChatEvents(t *testing.T) {
	h := NewHub()
	user := newTestConn(BookerKey(domain.BookerUser, 7))
	talent := newTestConn(TalentKey(5))
	stranger := newTestConn(BookerKey(domain.BookerUser, 8))
	h.register(user)
	h.register(talent)
	h.register(stranger)

	bus := events.NewBus()
	sub, cancel := bus.Subscribe()
	defer cancel()
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go h.Run(ctx, sub)

	bus.Publish(ctx, events.Event{Kind: events.BookingApproved, BookingID: 1, TalentID: 5, BookerID: 7, BookerType: domain.BookerUser})
	bus.Publish(ctx, events.Event{Kind: events.ChatMessage, SessionID: "chat_1", BookingID: 1, TalentID: 5, BookerID: 7, BookerType: domain.BookerUser})

	ev := readFrame(t, user)
	assert.Equal(t, "chat.message", ev.Type)
	assert.Equal(t, "chat_1", ev.SessionID)
	assert.Equal(t, "chat.message", readFrame(t, talent).Type)
	assert.Empty(t, stranger.send)
}

func TestOriginChecker(t *testing.T) {
	withOrigin := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/chat/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	check := originChecker([]string{"https://rentmate.id"})
	assert.True(t, check(withOrigin("https://rentmate.id")))
	assert.True(t, check(withOrigin("")))
	assert.False(t, check(withOrigin("https://evil.test")))
	assert.True(t, originChecker(nil)(withOrigin("https://evil.test")))
}
