package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
)

func TestSendGridSend(t *testing.T) {
	var got mailSendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := NewSendGrid(logger.Nop(), SendGridConfig{APIKey: "key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	err = c.Send(context.Background(), Message{
		From:    "Notes team <support@notes.example.com>",
		To:      "alice@example.com",
		Subject: "Shrink complete",
		Body:    "done",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer key", auth)
	assert.Equal(t, "support@notes.example.com", got.From.Email)
	assert.Equal(t, "Notes team", got.From.Name)
	assert.Equal(t, "alice@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "Shrink complete", got.Subject)
	assert.Equal(t, []mailContent{{Type: "text/plain", Value: "done"}}, got.Content)
}

func TestSendGridReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewSendGrid(logger.Nop(), SendGridConfig{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	err = c.Send(context.Background(), Message{From: "a@example.com", To: "b@example.com", Subject: "s", Body: "b"})
	assert.ErrorContains(t, err, "401")

	err = c.Send(context.Background(), Message{From: "a@example.com", To: "not an address", Subject: "s"})
	assert.Error(t, err)
}

func TestNewSendGridRequiresKey(t *testing.T) {
	_, err := NewSendGrid(logger.Nop(), SendGridConfig{})
	assert.Error(t, err)
}
