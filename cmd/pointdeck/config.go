package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ballistics/pointdeck"
	"github.com/ballistics/pointdeck/adapters"
	"github.com/ballistics/pointdeck/params"
	"github.com/ballistics/pointdeck/pipeline"
)

type runtimeConfig struct {
	Source       sourceConfig      `yaml:"source" json:"source"`
	Resources    resourcesConfig   `yaml:"resources" json:"resources"`
	Cache        cacheConfig       `yaml:"cache" json:"cache"`
	Registry     string            `yaml:"registry" json:"registry"`
	DisplayUnits map[string]string `yaml:"display_units" json:"display_units"`
	Filters      map[string]string `yaml:"filters" json:"filters"`
	Log          logConfig         `yaml:"log" json:"log"`
	Metrics      httpConfig        `yaml:"metrics" json:"metrics"`
}

type sourceConfig struct {
	Type      string                 `yaml:"type" json:"type"`
	Base      string                 `yaml:"base" json:"base"`
	Dir       string                 `yaml:"dir" json:"dir"`
	Bucket    string                 `yaml:"bucket" json:"bucket"`
	RedisAddr string                 `yaml:"redis_addr" json:"redis_addr"`
	Timeout   string                 `yaml:"timeout" json:"timeout"`
	Options   map[string]interface{} `yaml:"options" json:"options"`
}

type resourcesConfig struct {
	PlotData     string `yaml:"plotdata" json:"plotdata"`
	Trajectories string `yaml:"trajectories" json:"trajectories"`
	ResultsList  string `yaml:"resultslist" json:"resultslist"`
	References   string `yaml:"references" json:"references"`
}

type cacheConfig struct {
	FormatCapacity  *int `yaml:"format_capacity" json:"format_capacity"`
	CompareCapacity *int `yaml:"compare_capacity" json:"compare_capacity"`
}

type logConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type httpConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

func loadRuntimeConfig(path string) (*runtimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &runtimeConfig{}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config yaml: %w", err)
		}
	}
	return cfg, nil
}

// applyRuntimeConfig copies config file values into the global flags that
// were not set on the command line.
func applyRuntimeConfig(cfg *runtimeConfig, setFlags map[string]bool) error {
	if cfg == nil {
		return nil
	}

	if cfg.Source.Type != "" && !setFlags["source"] {
		*sourceType = cfg.Source.Type
	}
	if cfg.Source.Base != "" && !setFlags["base"] {
		*sourceBase = cfg.Source.Base
	}
	if cfg.Source.Dir != "" && !setFlags["dir"] {
		*sourceDir = cfg.Source.Dir
	}
	if cfg.Source.Bucket != "" && !setFlags["bucket"] {
		*sourceBucket = cfg.Source.Bucket
	}
	if cfg.Source.RedisAddr != "" && !setFlags["redis-addr"] {
		*redisAddr = cfg.Source.RedisAddr
	}
	if cfg.Source.Timeout != "" && !setFlags["timeout"] {
		*sourceTimeout = cfg.Source.Timeout
	}

	if cfg.Log.Level != "" && !setFlags["log-level"] {
		*logLevel = cfg.Log.Level
	}
	if cfg.Log.Format != "" && !setFlags["log-format"] {
		*logFormat = cfg.Log.Format
	}
	if cfg.Metrics.Addr != "" && !setFlags["metrics-addr"] {
		*metricsAddr = cfg.Metrics.Addr
	}

	if *sourceType != "" && !contains(adapters.GetAvailableSourceTypes(), *sourceType) {
		return fmt.Errorf("source.type: unknown source %q", *sourceType)
	}
	return nil
}

// sourceSettings merges the global source flags over the free-form options
// of the config file.
func sourceSettings(cfg *runtimeConfig) adapters.SourceConfig {
	options := map[string]interface{}{}
	if cfg != nil {
		for k, v := range cfg.Source.Options {
			options[k] = v
		}
	}
	set := func(key, value string) {
		if value != "" {
			options[key] = value
		}
	}
	set("base", *sourceBase)
	set("dir", *sourceDir)
	set("bucket", *sourceBucket)
	set("redis_addr", *redisAddr)
	set("timeout", *sourceTimeout)

	return adapters.SourceConfig{
		SourceID: *sourceType,
		Type:     *sourceType,
		Config:   options,
	}
}

func engineConfig(cfg *runtimeConfig, logger *slog.Logger) pointdeck.Config {
	ec := pointdeck.Config{Logger: logger}
	if cfg == nil {
		return ec
	}
	if cfg.Cache.FormatCapacity != nil {
		ec.FormatCapacity = *cfg.Cache.FormatCapacity
	}
	if cfg.Cache.CompareCapacity != nil {
		ec.CompareCapacity = *cfg.Cache.CompareCapacity
	}
	ec.DisplayUnits = cfg.DisplayUnits
	ec.Presets = cfg.Filters
	return ec
}

// reconcileRegistry merges the descriptor file named by the registry key.
func reconcileRegistry(cfg *runtimeConfig, registry *params.Registry) error {
	if cfg == nil || cfg.Registry == "" {
		return nil
	}
	f, err := os.Open(cfg.Registry)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	defer f.Close()

	observed, err := params.LoadDescriptors(f)
	if err != nil {
		return fmt.Errorf("registry %s: %w", cfg.Registry, err)
	}
	registry.Reconcile(observed)
	return nil
}

func resources(cfg *runtimeConfig) pipeline.Resources {
	if cfg == nil {
		return pipeline.DefaultResources()
	}
	return pipeline.Resources{
		PlotData:     cfg.Resources.PlotData,
		Trajectories: cfg.Resources.Trajectories,
		ResultsList:  cfg.Resources.ResultsList,
		References:   cfg.Resources.References,
	}
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("log format: unknown format %q", format)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
