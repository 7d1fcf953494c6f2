package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/crank/rpc"
	"github.com/ava-labs/crank/storage"
	"github.com/ava-labs/crank/trace"
	"github.com/ava-labs/crank/x/programs/runtime"
)

var ErrInvalidLogRotation = errors.New("log file rotation needs a positive size")

type Config struct {
	LogLevel      string `yaml:"logLevel"`
	LogFile       string `yaml:"logFile"`
	LogMaxSize    int    `yaml:"logMaxSize"`
	LogMaxBackups int    `yaml:"logMaxBackups"`

	Runtime runtime.Config `yaml:"runtime"`
	Storage storage.Config `yaml:"storage"`
	Trace   trace.Config   `yaml:"trace"`
	RPC     rpc.Config     `yaml:"rpc"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		LogMaxSize:    64,
		LogMaxBackups: 4,
		Runtime:       *runtime.DefaultConfig(),
		Trace:         trace.Config{SampleRate: 1},
		RPC:           *rpc.DefaultConfig(),
	}
}

// LoadConfig reads the YAML file at [path] over the defaults. Unknown keys
// are rejected.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Verify() error {
	if _, err := logging.ToLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFile != "" && (c.LogMaxSize <= 0 || c.LogMaxBackups < 0) {
		return ErrInvalidLogRotation
	}
	if c.Trace.Enabled && c.Trace.Endpoint == "" {
		return trace.ErrMissingEndpoint
	}
	return c.Runtime.Verify()
}
