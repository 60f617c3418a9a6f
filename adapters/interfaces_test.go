package adapters

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	id string
}

func (m *memorySource) Fetch(ctx context.Context, name string) ([]byte, error) {
	return []byte(`[]`), nil
}

func (m *memorySource) Name() string { return m.id }

func (m *memorySource) Close() error { return nil }

type memoryFactory struct{}

func (memoryFactory) Create(config SourceConfig) (ResourceSource, error) {
	return &memorySource{id: config.SourceID}, nil
}

func (memoryFactory) ValidateConfig(config SourceConfig) error {
	if config.String("required") == "" {
		return fmt.Errorf("required is missing")
	}
	return nil
}

func TestSourceRegistry(t *testing.T) {
	r := NewSourceRegistry()
	require.NoError(t, r.RegisterSourceType("memory", memoryFactory{}))
	assert.Error(t, r.RegisterSourceType("memory", memoryFactory{}))
	assert.Equal(t, []string{"memory"}, r.GetAvailableTypes())

	src, err := r.CreateSource(SourceConfig{
		SourceID: "m1",
		Type:     "memory",
		Config:   map[string]interface{}{"required": "yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", src.Name())

	_, err = r.CreateSource(SourceConfig{Type: "memory"})
	assert.ErrorContains(t, err, "required is missing")

	_, err = r.CreateSource(SourceConfig{Type: "ftp"})
	assert.ErrorContains(t, err, "unknown source type")
}

func TestSourceConfigAccessors(t *testing.T) {
	c := SourceConfig{Config: map[string]interface{}{
		"base":      "http://example.test",
		"path":      true,
		"timeout":   "2s",
		"direct":    3 * time.Second,
		"max_int":   10,
		"max_float": float64(20),
	}}

	assert.Equal(t, "http://example.test", c.String("base"))
	assert.Equal(t, "", c.String("missing"))
	assert.True(t, c.Bool("path"))
	assert.Equal(t, 2*time.Second, c.Duration("timeout"))
	assert.Equal(t, 3*time.Second, c.Duration("direct"))
	assert.Equal(t, int64(10), c.Int64("max_int"))
	assert.Equal(t, int64(20), c.Int64("max_float"))
}

func TestSourceErrorUnwraps(t *testing.T) {
	err := NewSourceError("files", "fetch", "totallist.json", "missing", ErrNotFound)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "source files: fetch totallist.json: missing: resource not found", err.Error())

	var se *SourceError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &se))
	assert.Equal(t, "totallist.json", se.Resource)
}
