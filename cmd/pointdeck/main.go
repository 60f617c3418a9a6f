package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	_ "github.com/ballistics/pointdeck/adapters/file"
	_ "github.com/ballistics/pointdeck/adapters/http"
	_ "github.com/ballistics/pointdeck/adapters/redis"
	_ "github.com/ballistics/pointdeck/adapters/s3"
)

// Command represents a sub-command of pointdeck
type Command struct {
	Name        string
	Description string
	FlagSet     *flag.FlagSet
	Run         func() error
}

var (
	configPath    = flag.String("config", "", "Path to a YAML or JSON config file")
	sourceType    = flag.String("source", "file", "Source type (file, http, s3, redis)")
	sourceBase    = flag.String("base", "", "Base URL for the http source")
	sourceDir     = flag.String("dir", ".", "Directory for the file source")
	sourceBucket  = flag.String("bucket", "", "Bucket for the s3 source")
	redisAddr     = flag.String("redis-addr", "", "Address for the redis source")
	sourceTimeout = flag.String("timeout", "", "Per-fetch timeout, e.g. 30s")
	logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat     = flag.String("log-format", "text", "Log format (text, json)")
	metricsAddr   = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")

	commands = make(map[string]*Command)

	// loaded is the parsed config file, nil when -config is not given.
	loaded *runtimeConfig

	stdout io.Writer = os.Stdout
)

func main() {
	defineCommands()

	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pointdeck [options] <command> [command options]")
		printCommands()
		flag.PrintDefaults()
		os.Exit(1)
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmdName)
		printCommands()
		os.Exit(1)
	}

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})
	if *configPath != "" {
		cfg, err := loadRuntimeConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := applyRuntimeConfig(cfg, setFlags); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		loaded = cfg
	}

	cmd.FlagSet.Parse(args[1:])

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printCommands() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\t%s\n", name, commands[name].Description)
	}
}
