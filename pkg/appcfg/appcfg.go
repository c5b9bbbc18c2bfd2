package appcfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ToxVanity/pkg/logx"
)

var ErrLogLevel = errors.New("unknown log level")

const (
	DefaultLogFile        = "toxvanity.log"
	DefaultScheme         = "tox"
	DefaultReportInterval = 10 * time.Second
)

type Config struct {
	LogLevel             string        `yaml:"log_level"` // "debug"|"info"|"warn"|"error"
	LogFile              string        `yaml:"log_file"`  // may contain {start} and {pid}; "-" disables the file
	HideSecretsInConsole bool          `yaml:"hide_secrets_in_console"`
	Cores                int           `yaml:"cores"` // 0 = all logical CPUs
	Scheme               string        `yaml:"scheme"`
	OutDir               string        `yaml:"out_dir"`
	ReportInterval       time.Duration `yaml:"report_interval"`
	KeystorePassword     string        `yaml:"keystore_password"` // evm scheme only
	Influx               InfluxConfig  `yaml:"influx"`
}

// InfluxConfig enables throughput export when URL is set.
type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the yaml file at path. A missing file is not an error: the
// defaults are returned instead.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("open app config %q: %w", path, err)
	}
	defer f.Close()

	var c Config
	if err := yaml.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode app yaml %q: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("app config %q: %w", path, err)
	}
	return &c, nil
}

// Validate checks values after defaults and command line overrides.
func (c *Config) Validate() error {
	if c.Cores < 0 {
		return errors.New("cores must be >= 0")
	}
	if c.ReportInterval < 0 {
		return errors.New("report_interval must be >= 0")
	}
	if !logx.ValidLevel(c.LogLevel) {
		return fmt.Errorf("%w %q (want debug|info|warn|error)", ErrLogLevel, c.LogLevel)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	if c.OutDir == "" {
		c.OutDir = "."
	}
	if c.ReportInterval == 0 {
		c.ReportInterval = DefaultReportInterval
	}
}
