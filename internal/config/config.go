package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string `yaml:"project_path"`

	// Dispatcher invocation
	DispatcherPath string   `yaml:"dispatcher"`
	DispatcherArgs []string `yaml:"dispatcher_args"` // Prepended to the index argument

	// Output settings
	OutputJSONFile string `yaml:"output_file"`
	OutputJSONDir  string `yaml:"output_dir"`

	// Execution settings
	Processors int           `yaml:"processors"`
	Timeout    time.Duration `yaml:"timeout"`

	LogLevel       string `yaml:"log_level"`
	DatabasePrefix string `yaml:"database_prefix"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// Flags holds command-line flags
type Flags struct {
	Processors       int
	Filter           string
	FailFast         bool
	OnlyFailed       bool
	RerunFailures    bool
	OpenFailures     bool
	ShowDescriptions bool
	ProvisionDB      bool
	NoFresh          bool
	Timeout          time.Duration
}

// New creates a new Config with defaults
func New() *Config {
	return &Config{
		ProjectPath:    DefaultProjectPath,
		DispatcherPath: DefaultDispatcherPath,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		Timeout:        DefaultTimeout,
		LogLevel:       DefaultLogLevel,
		DatabasePrefix: DefaultDatabasePrefix,
		Flags:          Flags{Processors: DefaultProcessors},
	}
}

// Load builds the configuration: defaults, then the YAML file (a missing file
// is fine unless it was named explicitly), then the project's .env, then the
// environment.
func Load(configFile string) (*Config, error) {
	cfg := New()
	if p := os.Getenv(EnvProjectPath); p != "" {
		cfg.ProjectPath = p
	}

	explicit := configFile != ""
	if !explicit {
		configFile = filepath.Join(cfg.ProjectPath, DefaultConfigFile)
	}
	if err := cfg.loadFile(configFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv builds the configuration from defaults, .env and the environment only.
// The dispatcher uses it so a stray YAML file can never change its contract.
func LoadEnv() (*Config, error) {
	cfg := New()
	cfg.LogLevel = DefaultDispatcherLogLevel
	if p := os.Getenv(EnvProjectPath); p != "" {
		cfg.ProjectPath = p
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	// .env file might not exist, that's okay - use environment variables
	_ = godotenv.Load(filepath.Join(c.ProjectPath, DefaultEnvFile))

	if v := os.Getenv(EnvProjectPath); v != "" {
		c.ProjectPath = v
	}
	if v := os.Getenv(EnvDispatcher); v != "" {
		c.DispatcherPath = v
	}
	if v := os.Getenv(EnvDispatcherArgs); v != "" {
		c.DispatcherArgs = strings.Fields(v)
	}
	if v := os.Getenv(EnvProcessors); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvProcessors, v, err)
		}
		c.Processors = n
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDatabasePrefix); v != "" {
		c.DatabasePrefix = v
	}
	return nil
}

// ApplyFlags copies parsed flags into the config, letting non-zero flags win
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	if flags.Timeout > 0 {
		c.Timeout = flags.Timeout
	}
}

// GetOutputPath returns the full path to the output JSON file (under project so run and failures use the same file).
// Resolves to an absolute path so both commands always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetDispatcherCommand returns the program and arguments used to invoke the
// dispatcher with the given trailing arguments
func (c *Config) GetDispatcherCommand(args ...string) (string, []string) {
	full := make([]string, 0, len(c.DispatcherArgs)+len(args))
	full = append(full, c.DispatcherArgs...)
	full = append(full, args...)
	return c.DispatcherPath, full
}

// GetDatabaseName returns the database name for a worker
func (c *Config) GetDatabaseName(workerID int) string {
	prefix := c.DatabasePrefix
	if prefix == "" {
		prefix = DefaultDatabasePrefix
	}
	return fmt.Sprintf("%s_%d", prefix, workerID)
}
