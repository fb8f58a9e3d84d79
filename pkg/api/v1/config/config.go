package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/koding/multiconfig"
	"github.com/nergy-se/factoryenergy/pkg/api/v1/types"
	"github.com/sirupsen/logrus"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. FACTORY_MODEL_PATH.
	EnvPrefix = "FACTORY"

	// EnvCORSOrigins is read when no allow-list was configured through FACTORY_CORS_ORIGINS or flags.
	EnvCORSOrigins = "CORS_ORIGINS"
)

var DefaultCORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Config is the prediction service configuration.
type Config struct {
	Listen        string `default:":8000"`
	Strategy      string `default:"formula"`
	MachinePolicy string `default:"native"`
	ModelPath     string `default:"energy_predictor.json"`

	// Comma separated list of allowed origins.
	CORSOrigins string

	ShutdownTimeout int `default:"10"`

	LogLevel  string `default:"info"`
	LogFormat string `default:"text"`
}

// Load reads an optional .env file, then defaults, FACTORY_ environment variables and args, later sources winning.
func Load(args []string) (*Config, error) {
	c := &Config{}
	err := load(c, args)
	if err != nil {
		return nil, err
	}

	if c.CORSOrigins == "" {
		c.CORSOrigins = os.Getenv(EnvCORSOrigins)
	}

	return c, c.Validate()
}

func load(conf interface{}, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("error reading .env: %s", err)
	}
	if args == nil {
		args = []string{}
	}
	loader := multiconfig.MultiLoader(
		&multiconfig.TagLoader{},
		&multiconfig.EnvironmentLoader{Prefix: EnvPrefix, CamelCase: true},
		&multiconfig.FlagLoader{CamelCase: true, Args: args},
	)
	if err := loader.Load(conf); err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if !types.Strategy(c.Strategy).Valid() {
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	if !types.MachinePolicy(c.MachinePolicy).Valid() {
		return fmt.Errorf("unknown machine policy %q", c.MachinePolicy)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %d", c.ShutdownTimeout)
	}
	return validateLogging(c.LogLevel, c.LogFormat)
}

func (c *Config) PredictionStrategy() types.Strategy {
	return types.Strategy(c.Strategy)
}

func (c *Config) UnknownMachinePolicy() types.MachinePolicy {
	return types.MachinePolicy(c.MachinePolicy)
}

// Origins returns the CORS allow-list, falling back to DefaultCORSOrigins.
func (c *Config) Origins() []string {
	origins := splitList(c.CORSOrigins)
	if len(origins) == 0 {
		return append([]string(nil), DefaultCORSOrigins...)
	}
	return origins
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateLogging(level, format string) error {
	if _, err := logrus.ParseLevel(level); err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}
	switch format {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("unknown log format %q", format)
}
