package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ballistics/pointdeck/adapters"
)

// ObjectAPI is the subset of the S3 client used by Source.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source reads resources as objects under a bucket prefix.
type Source struct {
	config *Config
	logger *slog.Logger

	mu     sync.Mutex
	client ObjectAPI
}

// Config holds S3 source configuration.
type Config struct {
	SourceID       string        `json:"source_id" yaml:"source_id"`
	Region         string        `json:"region" yaml:"region"`
	Bucket         string        `json:"bucket" yaml:"bucket"`
	Prefix         string        `json:"prefix" yaml:"prefix"`
	Endpoint       string        `json:"endpoint" yaml:"endpoint"`
	ForcePathStyle bool          `json:"force_path_style" yaml:"force_path_style"`
	AccessKey      string        `json:"access_key" yaml:"access_key"`
	SecretKey      string        `json:"secret_key" yaml:"secret_key"`
	SessionToken   string        `json:"session_token" yaml:"session_token"`
	MaxObjectBytes int64         `json:"max_object_bytes" yaml:"max_object_bytes"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
}

// NewSource creates a new S3 source. The client is created on first use
// unless one is supplied with WithClient.
func NewSource(config *Config, logger *slog.Logger) (*Source, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{config: config, logger: logger}, nil
}

// WithClient replaces the S3 client.
func (s *Source) WithClient(client ObjectAPI) *Source {
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	return s
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}
	if config.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if config.SourceID == "" {
		config.SourceID = "s3"
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxObjectBytes == 0 {
		config.MaxObjectBytes = 64 * 1024 * 1024 // 64MB
	}
	return nil
}

func (s *Source) ensureClient(ctx context.Context) (ObjectAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s.config.Region),
	}
	if s.config.AccessKey != "" && s.config.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(
			s.config.AccessKey,
			s.config.SecretKey,
			s.config.SessionToken,
		)
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s.client = s3.NewFromConfig(cfg, func(options *s3.Options) {
		options.UsePathStyle = s.config.ForcePathStyle
		if s.config.Endpoint != "" {
			options.BaseEndpoint = aws.String(s.config.Endpoint)
		}
	})
	s.logger.Info("s3 source ready", "source", s.config.SourceID, "bucket", s.config.Bucket, "prefix", s.config.Prefix)
	return s.client, nil
}

// Key returns the object key of a resource.
func (s *Source) Key(name string) string {
	name = strings.TrimLeft(name, "/")
	if s.config.Prefix == "" {
		return name
	}
	return path.Join(s.config.Prefix, name)
}

// Name implements adapters.ResourceSource.
func (s *Source) Name() string {
	return s.config.SourceID
}

// Fetch downloads the object backing name.
func (s *Source) Fetch(ctx context.Context, name string) ([]byte, error) {
	client, err := s.ensureClient(ctx)
	if err != nil {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "client unavailable", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.Key(name)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "no such key", adapters.ErrNotFound)
		}
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "get object failed", err)
	}
	defer out.Body.Close()

	data, err := readAll(out.Body, s.config.MaxObjectBytes)
	if err != nil {
		return nil, adapters.NewSourceError(s.config.SourceID, "fetch", name, "read failed", err)
	}
	return data, nil
}

// Close implements adapters.ResourceSource.
func (s *Source) Close() error {
	return nil
}

func readAll(reader io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(reader)
	}
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("object exceeds max_object_bytes")
	}
	return data, nil
}

// Factory creates S3 sources from generic config.
type Factory struct{}

func (f *Factory) Create(config adapters.SourceConfig) (adapters.ResourceSource, error) {
	return NewSource(&Config{
		SourceID:       config.SourceID,
		Region:         config.String("region"),
		Bucket:         config.String("bucket"),
		Prefix:         config.String("prefix"),
		Endpoint:       config.String("endpoint"),
		ForcePathStyle: config.Bool("force_path_style"),
		AccessKey:      config.String("access_key"),
		SecretKey:      config.String("secret_key"),
		SessionToken:   config.String("session_token"),
		MaxObjectBytes: config.Int64("max_object_bytes"),
		Timeout:        config.Duration("timeout"),
	}, nil)
}

func (f *Factory) ValidateConfig(config adapters.SourceConfig) error {
	if config.String("bucket") == "" {
		return fmt.Errorf("bucket is required")
	}
	return nil
}

func init() {
	adapters.RegisterSourceType("s3", &Factory{})
}
