package procurement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarkAccountSufficient(t *testing.T) {
	var got accountCheckRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/purchase-orders/po-7/account-check", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	err := client.MarkAccountSufficient(context.Background(), "po-7")
	require.NoError(t, err)
	require.Equal(t, "sufficient", got.Status)
}

func TestMarkAccountSufficientReplayAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	err := client.MarkAccountSufficient(context.Background(), "po-3")
	require.NoError(t, err)
}

func TestMarkAccountSufficientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	err := client.MarkAccountSufficient(context.Background(), "po-3")
	require.Error(t, err)
}
