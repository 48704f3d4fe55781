// Package config loads mqjs's TOML-configured runtime limits (spec
// §3.5, EXPANDED): the heap budget, call-stack depth, GC trace flag,
// and the set of native modules a host wants pre-registered. Grounded
// on the teacher corpus's use of BurntSushi/toml for its own
// configuration files.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	mqerrors "mqjs/pkg/errors"
)

// Config holds the tunables an embedder can set before creating an
// Engine (spec §3.5).
type Config struct {
	MemoryBudget  int64    `toml:"memory_budget"`
	StackLimit    int      `toml:"stack_limit"`
	GCLogEnabled  bool     `toml:"gc_log_enabled"`
	NativeModules []string `toml:"native_modules"`
}

// Default returns the configuration mqjs runs with when no file is
// supplied: an unbounded heap, the VM's built-in call-depth ceiling, GC
// tracing off, and NativeModules left empty. Registry.Install treats an
// empty list as "install every builtin category", so Default is the
// full catalog, not an opt-in empty set; an embedder that wants fewer
// builtins sets NativeModules to the specific names it needs.
func Default() Config {
	return Config{
		MemoryBudget: 0,
		StackLimit:   0,
		GCLogEnabled: false,
	}
}

// Load parses a TOML configuration file at path, starting from Default
// so an omitted key keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, &mqerrors.ConfigError{Msg: fmt.Sprintf("loading %s: %v", path, err), Cause: err}
	}
	return cfg, nil
}
