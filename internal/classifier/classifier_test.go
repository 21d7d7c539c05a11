package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback(t *testing.T) {
	got, err := Fallback{}.Classify(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Category: "Other", Title: "Issue Report (Fallback)"}, got)
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "Pothole", NormalizeCategory("pothole"))
	assert.Equal(t, "Damaged Signage", NormalizeCategory(" damaged signage "))
	assert.Equal(t, "Other", NormalizeCategory("Volcano"))
	assert.Equal(t, "Other", NormalizeCategory(""))
}

func TestHTTPClassifier(t *testing.T) {
	var received classifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category":"graffiti","title":"Tagged wall on 5th"}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 2*time.Second)
	got, err := c.Classify(context.Background(), "paint on wall", []Image{{ContentType: "image/png", Data: []byte{1, 2, 3}}})
	require.NoError(t, err)
	assert.Equal(t, Result{Category: "Graffiti", Title: "Tagged wall on 5th"}, got)
	assert.Equal(t, "paint on wall", received.Description)
	require.Len(t, received.Images, 1)
	assert.Equal(t, []byte{1, 2, 3}, received.Images[0].Data)
}

func TestHTTPClassifierFailures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()
		_, err := NewHTTPClassifier(srv.URL, time.Second).Classify(context.Background(), "x", nil)
		assert.Error(t, err)
	})
	t.Run("empty title", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"category":"Pothole","title":"  "}`))
		}))
		defer srv.Close()
		_, err := NewHTTPClassifier(srv.URL, time.Second).Classify(context.Background(), "x", nil)
		assert.Error(t, err)
	})
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		_, err := NewHTTPClassifier(url, time.Second).Classify(context.Background(), "x", nil)
		assert.Error(t, err)
	})
	t.Run("expired context", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		_, err := NewHTTPClassifier("http://127.0.0.1:1", time.Second).Classify(ctx, "x", nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
