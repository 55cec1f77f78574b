package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serverfarm/farmctl/models"
)

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer srv.Close()

	outcome := New().Get(context.Background(), srv.URL+"/health")
	require.True(t, outcome.OK)
	assert.Greater(t, outcome.Latency, time.Duration(0))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(outcome.Body, &payload))
	assert.Equal(t, "healthy", payload["status"])
}

func TestGetHTTPErrorCarriesStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	outcome := New().Get(context.Background(), srv.URL)
	assert.False(t, outcome.OK)
	assert.Equal(t, models.FailHTTP, outcome.Kind)
	assert.Equal(t, http.StatusInternalServerError, outcome.Status)
}

func TestGetRejectsNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	outcome := New().Get(context.Background(), srv.URL)
	assert.False(t, outcome.OK)
	assert.Equal(t, models.FailInvalid, outcome.Kind)
}

func TestGetClassifiesDeadlineAsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	outcome := New().Get(ctx, srv.URL)
	assert.False(t, outcome.OK)
	assert.Equal(t, models.FailTimeout, outcome.Kind)
}

func TestGetClassifiesRefusedAsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	outcome := New().Get(context.Background(), url)
	assert.False(t, outcome.OK)
	assert.Equal(t, models.FailConnection, outcome.Kind)
	assert.NotContains(t, outcome.Detail, url, "detail should not repeat the full URL")
}

func TestPostUsesPostMethod(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	outcome := New().Post(context.Background(), srv.URL+"/simulate-load?cpu_seconds=1")
	require.True(t, outcome.OK)
	assert.Equal(t, http.MethodPost, method)
}
