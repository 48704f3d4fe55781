package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"mqjs"
	"mqjs/pkg/config"
	mqerrors "mqjs/pkg/errors"
)

// resolveConfig loads --config's file if given, then applies
// --memory-limit as an override, matching the precedence a CLI flag has
// over a config file.
func resolveConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if memoryLimit != 0 {
		cfg.MemoryBudget = memoryLimit
	}
	return cfg, nil
}

func newEngineFromFlags() (*mqjs.Engine, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	e := mqjs.NewWithConfig(cfg)
	if cfg.GCLogEnabled {
		e.SetGCTrace(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
	}
	return e, nil
}

func colorEnabled() bool {
	switch colorMode {
	case "on":
		return true
	case "off":
		return false
	default:
		return !color.NoColor
	}
}

func printDiagnostics(source string, errs []mqerrors.MqjsError) {
	if !colorEnabled() {
		mqerrors.DisplayErrors(source, errs)
		return
	}
	bold := color.New(color.FgRed, color.Bold)
	for _, err := range errs {
		bold.Fprintf(os.Stderr, "%s Error", err.Kind())
		fmt.Fprintf(os.Stderr, " at %d:%d: %s\n", err.Pos().Line, err.Pos().Column, err.Message())
	}
}

func printStats(e *mqjs.Engine) {
	if !showStats {
		return
	}
	stats := e.Stats()
	fmt.Fprintf(os.Stderr, "objects=%d arrays=%d closures=%d strings=%d bytes=%d collections=%d\n",
		stats.Objects, stats.Arrays, stats.Closures, stats.Strings, stats.Bytes, stats.Collections)
}
