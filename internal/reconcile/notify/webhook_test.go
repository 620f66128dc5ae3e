package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier_PostsTextPayload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	err := notifier.Notify(context.Background(), AlertMessage{
		Kind:              "reconcile_sweep",
		At:                time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC),
		Detail:            "failed=2",
		RecommendedAction: "check credit ledger availability",
	})
	require.NoError(t, err)
	require.Equal(t, "text", got.MsgType)
	require.True(t, strings.Contains(got.Text.Content, "reconcile_sweep"))
	require.True(t, strings.Contains(got.Text.Content, "check credit ledger availability"))
}

func TestWebhookNotifier_NonOKStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	err := notifier.Notify(context.Background(), AlertMessage{Kind: "reconcile_sweep"})
	require.Error(t, err)
}

func TestWebhookNotifier_EmptyURLRejected(t *testing.T) {
	notifier := NewWebhookNotifier("")
	err := notifier.Notify(context.Background(), AlertMessage{Kind: "reconcile_sweep"})
	require.Error(t, err)
}
