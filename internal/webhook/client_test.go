package webhook_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/superprospect/prospector-backend/internal/errors"
	"github.com/superprospect/prospector-backend/internal/webhook"
)

func samplePayload() webhook.SendPayload {
	return webhook.SendPayload{
		To:         "alice@example.com",
		Subject:    "Quick question",
		Body:       "Hi Alice",
		ProspectID: 1,
		CampaignID: 10,
		SmtpConfig: webhook.SmtpCredentials{
			Host: "smtp.example.com", Port: 587, User: "u", Pass: "p",
			FromName: "Team", FromEmail: "from@example.com",
		},
		IdempotencyKey: "abc123",
	}
}

func TestSendEmailSuccess(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := webhook.NewClient(srv.URL, srv.URL, 5*time.Second)
	err := client.SendEmail(context.Background(), samplePayload())
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", received["to"])
	assert.Equal(t, "abc123", received["idempotency_key"])
	smtp, ok := received["smtp_config"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com", smtp["host"])
}

func TestSendEmailServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := webhook.NewClient(srv.URL, srv.URL, 5*time.Second)
	err := client.SendEmail(context.Background(), samplePayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Webhook error")
	assert.True(t, appErrors.IsRetryable(err))
}

func TestSendEmailClientErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := webhook.NewClient(srv.URL, srv.URL, 5*time.Second)
	err := client.SendEmail(context.Background(), samplePayload())
	require.Error(t, err)
	assert.False(t, appErrors.IsRetryable(err))
}

func TestSendEmailNetworkFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := webhook.NewClient(srv.URL, srv.URL, 2*time.Second)
	err := client.SendEmail(context.Background(), samplePayload())
	require.Error(t, err)
	assert.True(t, appErrors.IsRetryable(err))
}

func TestRequestGenerationHonorsContext(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel r.Context(); otherwise srv.Close()
		// deadlocks waiting for this handler.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := webhook.NewClient(srv.URL, srv.URL, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.RequestGeneration(ctx, webhook.GenerationPayload{
		JobID: "job-1", CampaignID: 10, ProspectIDs: []int{1, 2},
	})
	require.Error(t, err)
	<-started
}
