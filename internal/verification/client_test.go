package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/", time.Second)
	c.loggerf = func(string, ...interface{}) {}
	return c
}

func TestClient_RegisterTalentSendsJSON(t *testing.T) {
	var got TalentApplication
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/register-talent", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.RegisterTalent(context.Background(), TalentApplication{MitraID: 1, TalentID: 2, Name: "Sari", Email: "sari@example.com", PricePerHour: 150000})
	require.NoError(t, err)
	assert.Equal(t, "Sari", got.Name)
	assert.Equal(t, int64(150000), got.PricePerHour)
	assert.False(t, c.Offline())
}

func TestClient_ErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"email already registered"}`))
	})

	err := c.SendApproval(context.Background(), "a@b.c", "A")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "email already registered", apiErr.Message)
	assert.False(t, c.Offline())
}

func TestClient_PendingTalents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pending-talents", r.URL.Path)
		_, _ = w.Write([]byte(`[{"email":"x@y.z","name":"X","pricePerHour":100000,"status":"pending"}]`))
	})

	got, err := c.PendingTalents(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x@y.z", got[0].Email)
}

func TestClient_TimeoutFlipsOffline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 50*time.Millisecond)
	c.loggerf = func(string, ...interface{}) {}

	err := c.Health(context.Background())
	assert.Error(t, err)
	assert.True(t, c.Offline())
}

func TestClient_OfflineRecovers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c.offline.Store(true)

	require.NoError(t, c.Health(context.Background()))
	assert.False(t, c.Offline())
}

func TestClient_NoBaseURL(t *testing.T) {
	c := NewClient("", time.Second)
	assert.True(t, c.Offline())
	assert.ErrorIs(t, c.Health(context.Background()), ErrOffline)
}
