package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballistics/pointdeck/adapters"
)

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "totallist.json"), []byte(`[{"key":"A"}]`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "results"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results", "smith.json"), []byte(`{}`), 0o644))

	src, err := NewSource(&Config{Dir: dir}, nil)
	require.NoError(t, err)

	data, err := src.Fetch(context.Background(), "totallist.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"key":"A"}]`, string(data))

	data, err = src.Fetch(context.Background(), "results/smith.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	_, err = src.Fetch(context.Background(), "missing.json")
	assert.True(t, errors.Is(err, adapters.ErrNotFound))
}

func TestPathStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	src, err := NewSource(&Config{Dir: dir}, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "etc", "passwd"), src.Path("../../etc/passwd"))
}

func TestFetchSizeLimit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.json"), make([]byte, 32), 0o644))
	src, err := NewSource(&Config{Dir: dir, MaxBytes: 8}, nil)
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), "big.json")
	assert.ErrorContains(t, err, "exceeds 8 bytes")
}

func TestNewSourceValidation(t *testing.T) {
	_, err := NewSource(&Config{}, nil)
	assert.Error(t, err)

	_, err = NewSource(&Config{Dir: filepath.Join(t.TempDir(), "nope")}, nil)
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	src, err := NewSource(&Config{Dir: dir}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	names, err := src.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "trajectories.json"), []byte(`[]`), 0o644))

	select {
	case name := <-names:
		assert.Equal(t, "trajectories.json", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	for range names {
	}
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()
	src, err := adapters.CreateSource(adapters.SourceConfig{
		SourceID: "local",
		Type:     "file",
		Config:   map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	assert.Equal(t, "local", src.Name())
	_, ok := src.(adapters.Watcher)
	assert.True(t, ok)
}
