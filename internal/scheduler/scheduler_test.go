package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
)

func TestTriggerSendsCronMarker(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
	}))
	defer srv.Close()

	s := New(logger.Nop(), srv.URL+"/", "s3cret")
	require.NoError(t, s.Trigger(context.Background(), "/shrink_all"))

	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/shrink_all", got.URL.Path)
	assert.Equal(t, "true", got.Header.Get(HeaderCron))
	assert.Equal(t, "s3cret", got.Header.Get("X-Task-Secret"))
}

func TestTriggerReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := New(logger.Nop(), srv.URL, "").Trigger(context.Background(), "/shrink_all")
	assert.ErrorContains(t, err, "403")
}

func TestEveryValidatesSpec(t *testing.T) {
	s := New(logger.Nop(), "http://localhost", "")
	assert.NoError(t, s.Every("0 0 3 * * *", "/shrink_all"))
	assert.Error(t, s.Every("not a spec", "/shrink_all"))
}
