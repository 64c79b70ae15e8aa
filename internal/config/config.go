// Package config loads recording configuration from a CUE file with
// environment overrides.
//
// Precedence, lowest first: schema defaults, the CUE file, EXEMPLAR_*
// environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/caarlos0/env/v11"

	"github.com/roach88/exemplar/internal/filter"
)

//go:embed schema.cue
var schemaSource string

// DefaultFile is the configuration file name looked up by the CLI.
const DefaultFile = "exemplar.cue"

// Config is the recording configuration.
type Config struct {
	Path           string   `json:"path"`
	Limit          int      `json:"limit"`
	MaxPerFunction int      `json:"max_per_function"`
	Exclude        []string `json:"exclude"`
	Where          string   `json:"where"`
	DB             string   `json:"db"`
}

// envOverrides holds the environment variables that override the file.
// Pointer fields stay nil when their variable is unset.
type envOverrides struct {
	Path           *string  `env:"EXEMPLAR_PATH"`
	Limit          *int     `env:"EXEMPLAR_LIMIT"`
	MaxPerFunction *int     `env:"EXEMPLAR_MAX_PER_FUNCTION"`
	Exclude        []string `env:"EXEMPLAR_EXCLUDE" envSeparator:","`
	Where          *string  `env:"EXEMPLAR_WHERE"`
	DB             *string  `env:"EXEMPLAR_DB"`
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Loader loads configuration. The zero value reads the process environment.
type Loader struct {
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// Load reads the CUE file at path and applies environment overrides.
// An empty path loads schema defaults only.
func Load(path string) (*Config, error) {
	return Loader{}.Load(path)
}

// Load reads the CUE file at path and applies environment overrides.
func (l Loader) Load(path string) (*Config, error) {
	return l.LoadWith(path, nil)
}

// LoadWith is Load with a final override step, used for command-line flags.
// apply runs after environment overrides and before validation.
func (l Loader) LoadWith(path string, apply func(*Config)) (*Config, error) {
	var src []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		src = data
	}

	cfg, err := decode(path, src)
	if err != nil {
		return nil, err
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode unifies src with the schema and decodes the result, defaults filled.
func decode(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def
	if len(src) > 0 {
		file := ctx.CompileBytes(src, cue.Filename(filename))
		if err := file.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		value = def.Unify(file)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	return &cfg, nil
}

func (l Loader) applyEnv(cfg *Config) error {
	var ov envOverrides
	opts := env.Options{}
	if l.Environ != nil {
		opts.Environment = l.Environ
	}
	if err := env.ParseWithOptions(&ov, opts); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if ov.Path != nil {
		cfg.Path = *ov.Path
	}
	if ov.Limit != nil {
		cfg.Limit = *ov.Limit
	}
	if ov.MaxPerFunction != nil {
		cfg.MaxPerFunction = *ov.MaxPerFunction
	}
	if ov.Exclude != nil {
		cfg.Exclude = ov.Exclude
	}
	if ov.Where != nil {
		cfg.Where = *ov.Where
	}
	if ov.DB != nil {
		cfg.DB = *ov.DB
	}
	return nil
}

// Validate checks the constraints that overrides can break.
func (c *Config) Validate() error {
	if c.Path == "" {
		return &ValidationError{Field: "path", Message: "path is required (set it in the config file or EXEMPLAR_PATH)"}
	}
	if c.Limit <= 0 {
		return &ValidationError{Field: "limit", Message: fmt.Sprintf("must be positive, got %d", c.Limit)}
	}
	if c.MaxPerFunction < 0 {
		return &ValidationError{Field: "max_per_function", Message: fmt.Sprintf("must not be negative, got %d", c.MaxPerFunction)}
	}
	return nil
}

// Filter builds the event filter the configuration describes.
func (c *Config) Filter() (*filter.Filter, error) {
	return filter.New(c.Path, filter.WithExcludes(c.Exclude...), filter.WithWhere(c.Where))
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &ValidationError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &ValidationError{Field: "cue", Message: first.Error()}
}
