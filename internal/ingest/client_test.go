package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitSuccess(t *testing.T) {
	var gotBody map[string]string
	var gotCT string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 7}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	id, err := c.Submit(context.Background(), Payload{
		Title:       "Backend Engineer - Acme",
		OriginalURL: "https://acme.example/jobs/42",
		Company:     "Acme",
		Description: "Full job description...",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, map[string]string{
		"title":        "Backend Engineer - Acme",
		"original_url": "https://acme.example/jobs/42",
		"company":      "Acme",
		"description":  "Full job description...",
	}, gotBody)
}

func TestSubmitBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, func() (string, error) { return "sekrit", nil })
	_, err := c.Submit(context.Background(), Payload{Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekrit", gotAuth)
}

func TestSubmitHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	_, err := c.Submit(context.Background(), Payload{Company: "Acme"})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "Internal Server Error", se.StatusText)
}

func TestSubmitNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := New(srv.URL, time.Second, nil)
	_, err := c.Submit(context.Background(), Payload{Company: "Acme"})
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se), "transport failure must not look like an HTTP rejection")
}

func TestSubmitBadResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	_, err := c.Submit(context.Background(), Payload{Company: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
}
