// Package config loads the two values spec.md §6 names as host
// configuration — the stack-depth limit and the verbosity gate — plus the
// optional remote-opcode endpoint, from an elfe.yaml file, in the same
// yaml-tag style as the teacher's funxy.yaml loader.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is elfe's host configuration (§6 "Configuration reaches the core
// as two values: the stack-depth limit, and a verbosity flag").
type Config struct {
	// DepthLimit bounds recursive rule application (§4.3). Zero means
	// "use evaluator.DefaultDepthLimit".
	DepthLimit int `yaml:"depth_limit,omitempty"`

	// Verbose gates diagnostic tracing in the CLI renderer.
	Verbose bool `yaml:"verbose,omitempty"`

	// OpcodeEndpoint, if set, is a gRPC target for internal/rpcopcode's
	// remote opcode registry; an empty string means "use the in-process
	// builtin.StaticRegistry only".
	OpcodeEndpoint string `yaml:"opcode_endpoint,omitempty"`
}

// Default returns the zero-value configuration's effective defaults.
func Default() Config {
	return Config{DepthLimit: 0, Verbose: false}
}

// Load reads and parses an elfe.yaml file at path. A missing file is not
// an error — it returns Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
