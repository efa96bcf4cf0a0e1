// Package config holds the run configuration of the poissonreg command.
//
// Values are resolved in increasing order of precedence: built-in
// defaults, an optional YAML file, POISSONREG_* environment variables
// (optionally loaded from a .env file), and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values of the run configuration.
const (
	DefaultSeed    = 42
	DefaultN       = 500
	DefaultMaxIter = 100
	DefaultTol     = 1e-8
	DefaultMethod  = "irls"
	DefaultFormat  = "text"
	DefaultPreview = 5

	// EnvPrefix is the prefix of the environment variables read by ApplyEnv.
	EnvPrefix = "POISSONREG_"
)

// Methods and Formats are the accepted values of Config.Method and
// Config.Format.
var (
	Methods = []string{"irls", "gradient"}
	Formats = []string{"text", "markdown", "json"}
)

// Config is the configuration of one run.
type Config struct {
	// Seed of the simulation.
	Seed int64 `yaml:"seed"`

	// N is the number of simulated observations.
	N int `yaml:"n"`

	// MaxIter caps the number of IRLS iterations.
	MaxIter int `yaml:"max_iter"`

	// Tol is the deviance convergence tolerance.
	Tol float64 `yaml:"tol"`

	// Method is the fitting method, irls or gradient.
	Method string `yaml:"method"`

	// Format is the report format, text, markdown or json.
	Format string `yaml:"format"`

	// Preview is the number of observations shown before the fit.
	Preview int `yaml:"preview"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Seed:    DefaultSeed,
		N:       DefaultN,
		MaxIter: DefaultMaxIter,
		Tol:     DefaultTol,
		Method:  DefaultMethod,
		Format:  DefaultFormat,
		Preview: DefaultPreview,
	}
}

// LoadFile reads a YAML file into c.  Keys missing from the file keep
// their current values.  If the file does not exist, it returns
// ErrConfigNotFound.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment.  Files that do not exist are skipped, variables that are
// already set are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with the POISSONREG_* variables found by lookup,
// normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {

	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	bad := func(key, v string, err error) error {
		return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidValue, EnvPrefix, key, v, err)
	}

	if v, ok := get("SEED"); ok {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return bad("SEED", v, err)
		}
		c.Seed = x
	}
	if v, ok := get("N"); ok {
		x, err := strconv.Atoi(v)
		if err != nil {
			return bad("N", v, err)
		}
		c.N = x
	}
	if v, ok := get("MAX_ITER"); ok {
		x, err := strconv.Atoi(v)
		if err != nil {
			return bad("MAX_ITER", v, err)
		}
		c.MaxIter = x
	}
	if v, ok := get("TOL"); ok {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return bad("TOL", v, err)
		}
		c.Tol = x
	}
	if v, ok := get("METHOD"); ok {
		c.Method = v
	}
	if v, ok := get("FORMAT"); ok {
		c.Format = v
	}
	if v, ok := get("PREVIEW"); ok {
		x, err := strconv.Atoi(v)
		if err != nil {
			return bad("PREVIEW", v, err)
		}
		c.Preview = x
	}
	if v, ok := get("VERBOSE"); ok {
		x, err := strconv.ParseBool(v)
		if err != nil {
			return bad("VERBOSE", v, err)
		}
		c.Verbose = x
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Validate checks the configuration.  Method and Format are normalized
// to lower case.
func (c *Config) Validate() error {
	c.Method = strings.ToLower(c.Method)
	c.Format = strings.ToLower(c.Format)

	switch {
	case c.N <= 0:
		return fmt.Errorf("%w: got %d", ErrInvalidSampleSize, c.N)
	case c.MaxIter <= 0:
		return fmt.Errorf("%w: got %d", ErrInvalidMaxIter, c.MaxIter)
	case !(c.Tol > 0):
		return fmt.Errorf("%w: got %g", ErrInvalidTolerance, c.Tol)
	case !contains(Methods, c.Method):
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidMethod, c.Method, strings.Join(Methods, ", "))
	case !contains(Formats, c.Format):
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidFormat, c.Format, strings.Join(Formats, ", "))
	case c.Preview < 0:
		return fmt.Errorf("%w: got %d", ErrInvalidPreview, c.Preview)
	}

	return nil
}
