// Package config holds the runtime settings of the sidx binaries.
//
// Values are resolved in three layers: built-in defaults, then SIDX_*
// environment variables, then command-line flags.
package config

import (
	"flag"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Store backends.
const (
	StoreCSV    = "csv"
	StorePebble = "pebble"
)

// Config holds the complete runtime configuration.
type Config struct {
	// Degree is the B+ tree minimum degree. Zero means "read it from the
	// first token of the command stream".
	Degree     int
	Input      string // command stream file, "-" for stdin
	Store      StoreConfig
	Log        LogConfig
	Seed       int    // fake students to insert at startup
	Snapshot   string // write an index snapshot here on exit
	MetricsOut string // write Prometheus text metrics here on exit
}

// StoreConfig selects and locates the record store.
type StoreConfig struct {
	Kind string
	Path string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Input: "input.txt",
		Store: StoreConfig{Kind: StoreCSV, Path: "Student.csv"},
		Log:   LogConfig{Level: "warn", Format: "console"},
	}
}

// ApplyEnv overrides fields from environment variables looked up with lookup,
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SIDX_DEGREE"); ok {
		d, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "SIDX_DEGREE=%q", v)
		}
		c.Degree = d
	}
	if v, ok := lookup("SIDX_INPUT"); ok {
		c.Input = v
	}
	if v, ok := lookup("SIDX_STORE"); ok {
		c.Store.Kind = v
	}
	if v, ok := lookup("SIDX_STORE_PATH"); ok {
		c.Store.Path = v
	}
	if v, ok := lookup("SIDX_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("SIDX_LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	return nil
}

// RegisterFlags binds the configuration to fs, using the current values as
// flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Degree, "degree", c.Degree, "B+ tree minimum degree (0: read from the input stream)")
	fs.StringVar(&c.Input, "input", c.Input, "command file to execute, - for stdin")
	fs.StringVar(&c.Store.Kind, "store", c.Store.Kind, "record store backend: csv or pebble")
	fs.StringVar(&c.Store.Path, "store-path", c.Store.Path, "record store file (csv) or directory (pebble)")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level: debug, info, warn, error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log format: console or json")
	fs.IntVar(&c.Seed, "seed", c.Seed, "insert this many generated students before running commands")
	fs.StringVar(&c.Snapshot, "snapshot", c.Snapshot, "write an index snapshot to this path on exit")
	fs.StringVar(&c.MetricsOut, "metrics-out", c.MetricsOut, "write metrics in Prometheus text format to this path on exit")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Degree != 0 && c.Degree < 2 {
		return errors.Newf("config: degree must be at least 2, got %d", c.Degree)
	}
	switch c.Store.Kind {
	case StoreCSV, StorePebble:
	default:
		return errors.Newf("config: unknown store %q", c.Store.Kind)
	}
	if c.Store.Path == "" {
		return errors.New("config: store path is empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Newf("config: unknown log format %q", c.Log.Format)
	}
	if c.Seed < 0 {
		return errors.Newf("config: seed count must not be negative, got %d", c.Seed)
	}
	return nil
}
