package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlack_PostsWebhook(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewSlack(srv.URL).Notify(context.Background(), "booking #12 paid")
	require.NoError(t, err)
	assert.Equal(t, "booking #12 paid", got["text"])
	assert.Equal(t, "RentMate", got["username"])
}

func TestSlack_ReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, NewSlack(srv.URL).Notify(context.Background(), "x"))
}

func TestNew_WithoutWebhook(t *testing.T) {
	n := New("")
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.Notify(context.Background(), "ignored"))
}
