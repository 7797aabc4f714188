// Package config loads myh2o configuration.
//
// Precedence, lowest first: built-in defaults, the CUE config file, MYH2O_*
// environment variables, command-line flags (applied by the caller). The
// merged result is validated against the embedded CUE schema.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// Environment variables read by ApplyEnv.
const (
	EnvDB        = "MYH2O_DB"
	EnvTimezone  = "MYH2O_TZ"
	EnvLogLevel  = "MYH2O_LOG_LEVEL"
	EnvLedgerKey = "MYH2O_LEDGER"
)

// Config is the resolved configuration.
type Config struct {
	DBPath    string `json:"db_path"`
	LedgerKey string `json:"ledger_key"`
	Timezone  string `json:"timezone"`
	Channel   string `json:"channel"`
	LogLevel  string `json:"log_level"`
}

// fileConfig mirrors Config with optional fields, so a file only overrides
// what it sets.
type fileConfig struct {
	DBPath    *string `json:"db_path"`
	LedgerKey *string `json:"ledger_key"`
	Timezone  *string `json:"timezone"`
	Channel   *string `json:"channel"`
	LogLevel  *string `json:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:    "myh2o.db",
		LedgerKey: "default",
		Timezone:  "Local",
		Channel:   "water-reminders",
		LogLevel:  "info",
	}
}

// Error reports an invalid configuration value.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("config %s: %s: %s", e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Load resolves the configuration from defaults, the optional file at path
// and the process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(cfg, data, path); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse overlays the CUE document data onto base. filename is used in error
// positions.
func Parse(base Config, data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return Config{}, err
	}

	file := ctx.CompileBytes(data, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	v := schema.Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var fc fileConfig
	if err := v.Decode(&fc); err != nil {
		return Config{}, formatCUEError(err)
	}

	cfg := base
	setIf(&cfg.DBPath, fc.DBPath)
	setIf(&cfg.LedgerKey, fc.LedgerKey)
	setIf(&cfg.Timezone, fc.Timezone)
	setIf(&cfg.Channel, fc.Channel)
	setIf(&cfg.LogLevel, fc.LogLevel)
	return cfg, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// ApplyEnv overlays MYH2O_* variables found by lookup. Empty values are
// ignored.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) Config {
	for env, dst := range map[string]*string{
		EnvDB:        &c.DBPath,
		EnvTimezone:  &c.Timezone,
		EnvLogLevel:  &c.LogLevel,
		EnvLedgerKey: &c.LedgerKey,
	} {
		if v, ok := lookup(env); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	return c
}

// Validate checks c against the schema and resolves its timezone.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}

	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}

	if _, err := c.Location(); err != nil {
		return &Error{Field: "timezone", Message: err.Error()}
	}
	return nil
}

// Location resolves Timezone. "Local" and "" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to Info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#Config")), nil
}

// formatCUEError converts the first CUE error into an *Error with position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := strings.Join(first.Path(), ".")
	if field == "" {
		field = "file"
	}
	format, args := first.Msg()
	cfgErr := &Error{Field: field, Message: fmt.Sprintf(format, args...)}
	if positions := errors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}
