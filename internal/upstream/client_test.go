package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chord233/nft-smart-assistant/internal/config"
)

func newTestClient(baseURL string) *Client {
	return New(config.UpstreamConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		TimeoutSeconds: 5,
	})
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nft/1/0xabc/risk-report", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("accept"))
		assert.Equal(t, "42", r.URL.Query().Get("token_id"))

		w.Write([]byte(`{"risk_score":0.3}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	params := url.Values{}
	params.Set("token_id", "42")

	raw, err := client.Get(context.Background(), "nft/1/0xabc/risk-report", params)
	require.NoError(t, err)

	// The body must come back byte-for-byte
	assert.Equal(t, `{"risk_score":0.3}`, string(raw))
}

func TestClient_Get_TrailingSlashHandling(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(config.UpstreamConfig{
		BaseURL: server.URL + "/",
		APIKey:  "k",
	})

	_, err := client.Get(context.Background(), "/blockchains", nil)
	require.NoError(t, err)
	assert.Equal(t, "/blockchains", gotPath)
}

func TestClient_Get_StatusError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"nested error object", http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`, "invalid api key"},
		{"flat message", http.StatusNotFound, `{"message":"collection not found"}`, "collection not found"},
		{"plain text", http.StatusInternalServerError, `something broke`, "something broke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.Get(context.Background(), "nft/1/0xabc/risk-report", nil)
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.wantMessage, statusErr.Message)
		})
	}
}

func TestClient_Get_ConnectionError(t *testing.T) {
	// Closed server to force a transport error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)
	_, err := client.Get(context.Background(), "blockchains", nil)

	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr), "transport errors are not StatusErrors")
}

func TestClient_Get_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "blockchains", nil)
	assert.Error(t, err)
}

func TestStatusError_Error(t *testing.T) {
	withMsg := &StatusError{StatusCode: 401, Message: "invalid api key"}
	assert.Equal(t, "upstream returned HTTP 401: invalid api key", withMsg.Error())

	withoutMsg := &StatusError{StatusCode: 503}
	assert.Equal(t, "upstream returned HTTP 503", withoutMsg.Error())
}

func TestExtractMessage_Truncation(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}

	msg := extractMessage(long)
	assert.Len(t, msg, 200)
}
