package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/looncamp/booking/internal/notify"
	"github.com/looncamp/booking/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendPostsToGateway(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", observability.NopLogger())
	err := c.Send(context.Background(), notify.Message{TicketID: "LC-1", Audience: notify.AudienceGuest, Phone: "919876543210", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "919876543210", got.Phone)
	assert.Equal(t, "guest", got.Audience)
}

func TestClient_SendReportsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", observability.NopLogger())
	err := c.Send(context.Background(), notify.Message{TicketID: "LC-1", Audience: notify.AudienceOwner, Phone: "918669505727"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whatsapp gateway returned 429: quota exceeded")
}

func TestClient_SendWithoutGatewayOnlyLogs(t *testing.T) {
	c := NewClient("", "", observability.NopLogger())
	assert.NoError(t, c.Send(context.Background(), notify.Message{TicketID: "LC-1", Audience: notify.AudienceAdmin}))
}
