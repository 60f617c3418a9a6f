package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ballistics/pointdeck/adapters"
)

// Source reads resources from a directory and can watch it for changes.
type Source struct {
	config *Config
	logger *slog.Logger
}

// Config holds file source configuration.
type Config struct {
	SourceID string `json:"source_id" yaml:"source_id"`
	Dir      string `json:"dir" yaml:"dir"`
	MaxBytes int64  `json:"max_bytes" yaml:"max_bytes"`
}

// NewSource creates a file source rooted at config.Dir.
func NewSource(config *Config, logger *slog.Logger) (*Source, error) {
	if config == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	info, err := os.Stat(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("dir %s: %w", config.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", config.Dir)
	}
	if config.SourceID == "" {
		config.SourceID = "file"
	}
	if config.MaxBytes == 0 {
		config.MaxBytes = 64 * 1024 * 1024 // 64MB
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{config: config, logger: logger}, nil
}

// Name implements adapters.ResourceSource.
func (s *Source) Name() string {
	return s.config.SourceID
}

// Path returns the file backing a resource name. Names cannot escape the
// source directory.
func (s *Source) Path(name string) string {
	return filepath.Join(s.config.Dir, filepath.Clean("/"+filepath.FromSlash(name)))
}

// Fetch reads the named resource.
func (s *Source) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "no such file", adapters.ErrNotFound)
		}
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "open failed", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.config.MaxBytes+1))
	if err != nil {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "read failed", err)
	}
	if int64(len(data)) > s.config.MaxBytes {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name,
			fmt.Sprintf("file exceeds %d bytes", s.config.MaxBytes), nil)
	}
	return data, nil
}

// Watch reports the names of resources written or created in the source
// directory. The channel closes when ctx is done or the watcher fails.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(s.config.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.config.Dir, err)
	}

	names := make(chan string, 16)
	go func() {
		defer close(names)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				name, err := filepath.Rel(s.config.Dir, event.Name)
				if err != nil || strings.HasPrefix(name, "..") {
					continue
				}
				select {
				case names <- filepath.ToSlash(name):
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("file watcher error", "source", s.config.SourceID, "error", err)
			}
		}
	}()

	s.logger.Info("watching resources", "source", s.config.SourceID, "dir", s.config.Dir)
	return names, nil
}

// Close implements adapters.ResourceSource.
func (s *Source) Close() error {
	return nil
}

// Factory creates file sources.
type Factory struct{}

func (f *Factory) Create(config adapters.SourceConfig) (adapters.ResourceSource, error) {
	return NewSource(&Config{
		SourceID: config.SourceID,
		Dir:      config.String("dir"),
		MaxBytes: config.Int64("max_bytes"),
	}, nil)
}

func (f *Factory) ValidateConfig(config adapters.SourceConfig) error {
	if config.String("dir") == "" {
		return fmt.Errorf("dir is required")
	}
	return nil
}

func init() {
	adapters.RegisterSourceType("file", &Factory{})
}
