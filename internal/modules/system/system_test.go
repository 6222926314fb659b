package system

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmate/internal/domain"
	"rentmate/internal/events"
)

type fakeBackend struct {
	offline bool
	err     error
}

func (f *fakeBackend) Offline() bool                { return f.offline }
func (f *fakeBackend) Health(context.Context) error { return f.err }

type fakeMitras map[int64]*domain.MitraAccount

func (f fakeMitras) GetByID(_ context.Context, id int64) (*domain.MitraAccount, error) {
	if m, ok := f[id]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func okPing(context.Context) error { return nil }

func TestStatus(t *testing.T) {
	bus := events.NewBus()
	ctx := context.Background()

	st, err := NewService(okPing, &fakeBackend{}, bus, fakeMitras{}).Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", st.Status)
	assert.False(t, st.OfflineMode)

	st, err = NewService(okPing, &fakeBackend{err: errors.New("dial tcp: refused"), offline: true}, bus, fakeMitras{}).Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "degraded", st.Status)
	assert.Equal(t, "offline", st.VerificationBackend)
	assert.True(t, st.OfflineMode)

	down := func(context.Context) error { return errors.New("db closed") }
	st, err = NewService(down, &fakeBackend{}, bus, fakeMitras{}).Status(ctx)
	assert.Error(t, err)
	assert.Equal(t, "down", st.Status)
}

func TestViewerVisible(t *testing.T) {
	user := Viewer{Actor: domain.Actor{ID: 7, Role: domain.RoleUser}}
	mitra := Viewer{Actor: domain.Actor{ID: 3, Role: domain.RoleMitra}, TalentID: 5}
	admin := Viewer{Actor: domain.Actor{ID: 1, Role: domain.RoleAdmin}}

	own := events.Event{Kind: events.ChatMessage, BookerID: 7, BookerType: domain.BookerUser, TalentID: 5}
	other := events.Event{Kind: events.BookingCreated, BookerID: 8, BookerType: domain.BookerUser, TalentID: 6}
	sameIDMitra := events.Event{Kind: events.BookingCreated, BookerID: 7, BookerType: domain.BookerMitra, TalentID: 6}

	assert.True(t, user.Visible(own))
	assert.False(t, user.Visible(other))
	assert.False(t, user.Visible(sameIDMitra))
	assert.True(t, mitra.Visible(own), "talent side of the booking")
	assert.False(t, mitra.Visible(other))
	assert.True(t, mitra.Visible(events.Event{Kind: events.MitraUpdated, MitraID: 3}))
	assert.True(t, admin.Visible(other))
	assert.True(t, user.Visible(events.Event{Kind: events.SettingsUpdated}))
}

func TestStream_DeliversVisibleEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bus := events.NewBus()
	svc := NewService(okPing, &fakeBackend{}, bus, fakeMitras{3: {ID: 3, TalentID: 5}})
	h := NewHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", int64(3))
		c.Set("role", "mitra")
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() (string, string) {
		var name, data string
		for lines.Scan() {
			line := lines.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && name != "":
				return name, data
			}
		}
		return "", ""
	}

	name, _ := next()
	require.Equal(t, "connected", name)

	bus.Publish(ctx, events.Event{Kind: events.BookingCreated, TalentID: 6, BookerID: 9, BookerType: domain.BookerUser})
	bus.Publish(ctx, events.Event{Kind: events.BookingPaymentConfirmed, BookingID: 42, TalentID: 5, BookerID: 9, BookerType: domain.BookerUser})

	name, data := next()
	assert.Equal(t, string(events.BookingPaymentConfirmed), name)
	var e events.Event
	require.NoError(t, json.Unmarshal([]byte(data), &e))
	assert.Equal(t, int64(42), e.BookingID)
}

func TestStream_EndsOnClose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(okPing, &fakeBackend{}, events.NewBus(), fakeMitras{})
	h := NewHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", int64(1))
		c.Set("role", "admin")
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: connected", lines.Text())

	h.Close()
	h.Close()

	for lines.Scan() {
	}
	require.NoError(t, lines.Err(), "stream should end cleanly after Close")
}
