// Package config loads relmap configuration files.
//
// A configuration file is CUE checked against the embedded #Config schema:
//
//	driver: "sqlite"
//	dsn:    "hr.db"
//	format: "json"
//
// Unknown fields are rejected. Command-line flags override file values.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// Config is a decoded configuration file.
type Config struct {
	Driver  string `json:"driver"`
	DSN     string `json:"dsn"`
	Verbose bool   `json:"verbose"`
	Format  string `json:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Driver: "sqlite3", Format: "text"}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, path)
}

// Parse validates CUE source against #Config and decodes it. filename is
// used in error positions.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parsing config: %s", details(err))
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %s", details(err))
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func details(err error) string {
	return cueerrors.Details(err, nil)
}
