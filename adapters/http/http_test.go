package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballistics/pointdeck/adapters"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data/totallist.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"key":"A","idx":0}]`))
	})
	mux.HandleFunc("/data/broken.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/data/large.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newServer(t)
	src, err := NewSource(&Config{BaseURL: srv.URL + "/data/", Headers: map[string]string{"X-Token": "secret"}})
	require.NoError(t, err)
	defer src.Close()

	body, err := src.Fetch(context.Background(), "totallist.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"key":"A","idx":0}]`, string(body))
	assert.Equal(t, "http", src.Name())

	body, err = src.Fetch(context.Background(), srv.URL+"/data/totallist.json")
	require.NoError(t, err)
	assert.NotEmpty(t, body)
}

func TestFetchErrors(t *testing.T) {
	srv := newServer(t)
	src, err := NewSource(&Config{SourceID: "web", BaseURL: srv.URL + "/data", MaxBytes: 16})
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), "missing.json")
	assert.True(t, errors.Is(err, adapters.ErrNotFound))

	_, err = src.Fetch(context.Background(), "broken.json")
	var se *adapters.SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "web", se.SourceID)
	assert.Equal(t, "broken.json", se.Resource)
	assert.Contains(t, se.Message, "500")

	_, err = src.Fetch(context.Background(), "large.json")
	assert.ErrorContains(t, err, "exceeds 16 bytes")
}

func TestFetchHonoursContext(t *testing.T) {
	srv := newServer(t)
	src, err := NewSource(&Config{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx, "data/totallist.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFactory(t *testing.T) {
	f := &Factory{}
	assert.Error(t, f.ValidateConfig(adapters.SourceConfig{Type: "http"}))

	src, err := adapters.CreateSource(adapters.SourceConfig{
		SourceID: "site",
		Type:     "http",
		Config:   map[string]interface{}{"base": "http://example.test", "timeout": "5s"},
	})
	require.NoError(t, err)
	assert.Equal(t, "site", src.Name())
	assert.Equal(t, "http://example.test/references.json", src.(*Source).resolve("references.json"))
}

func TestNewSourceValidation(t *testing.T) {
	_, err := NewSource(nil)
	assert.Error(t, err)
	_, err = NewSource(&Config{})
	assert.Error(t, err)
}
