package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ballistics/pointdeck/adapters"
)

// Source fetches resources relative to a base URL.
type Source struct {
	config *Config
	client *http.Client
}

// Config holds HTTP source configuration.
type Config struct {
	SourceID string            `json:"source_id" yaml:"source_id"`
	BaseURL  string            `json:"base" yaml:"base"`
	Timeout  time.Duration     `json:"timeout" yaml:"timeout"`
	Headers  map[string]string `json:"headers" yaml:"headers"`
	MaxBytes int64             `json:"max_bytes" yaml:"max_bytes"`
}

// NewSource creates a new HTTP resource source.
func NewSource(config *Config) (*Source, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Source{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}
	if config.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if config.SourceID == "" {
		config.SourceID = "http"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxBytes == 0 {
		config.MaxBytes = 64 * 1024 * 1024 // 64MB
	}
	return nil
}

// Name implements adapters.ResourceSource.
func (s *Source) Name() string {
	return s.config.SourceID
}

// Fetch GETs the resource. Absolute URLs are fetched as given; anything else
// is resolved against the base URL.
func (s *Source) Fetch(ctx context.Context, name string) ([]byte, error) {
	target := s.resolve(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "building request", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, resp.Status, adapters.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "unexpected status "+resp.Status, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.config.MaxBytes+1))
	if err != nil {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "reading body", err)
	}
	if int64(len(body)) > s.config.MaxBytes {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name,
			fmt.Sprintf("body exceeds %d bytes", s.config.MaxBytes), nil)
	}
	return body, nil
}

func (s *Source) resolve(name string) string {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return strings.TrimRight(s.config.BaseURL, "/") + "/" + strings.TrimLeft(name, "/")
}

// Close implements adapters.ResourceSource.
func (s *Source) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Factory for HTTP sources.
type Factory struct{}

func (f *Factory) Create(config adapters.SourceConfig) (adapters.ResourceSource, error) {
	httpConfig := &Config{
		SourceID: config.SourceID,
		BaseURL:  config.String("base"),
		Timeout:  config.Duration("timeout"),
		MaxBytes: config.Int64("max_bytes"),
	}
	if headers, ok := config.Config["headers"].(map[string]string); ok {
		httpConfig.Headers = headers
	}
	return NewSource(httpConfig)
}

func (f *Factory) ValidateConfig(config adapters.SourceConfig) error {
	if config.String("base") == "" {
		return fmt.Errorf("base is required")
	}
	return nil
}

func init() {
	adapters.RegisterSourceType("http", &Factory{})
}
