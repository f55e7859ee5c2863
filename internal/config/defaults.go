package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultConfigFile is the YAML file read from the project path when present
	DefaultConfigFile = "itd.yaml"
	// DefaultEnvFile is the dotenv file read from the project path when present
	DefaultEnvFile = ".env"
	// DefaultDispatcherPath is the dispatcher binary invoked by the orchestrator
	DefaultDispatcherPath = "./itd"
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "itd-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = "storage"
	// DefaultProcessors is the default number of processors
	DefaultProcessors = 4
	// DefaultTimeout bounds a single dispatched test
	DefaultTimeout = 5 * time.Minute
	// DefaultLogLevel is the orchestrator log level
	DefaultLogLevel = "info"
	// DefaultDispatcherLogLevel keeps the dispatcher quiet unless something is off
	DefaultDispatcherLogLevel = "warn"
	// DefaultDatabasePrefix prefixes per-worker database names
	DefaultDatabasePrefix = "testing"
)

// Environment variables understood by both binaries
const (
	EnvProjectPath    = "ITD_PROJECT_PATH"
	EnvDispatcher     = "ITD_DISPATCHER"
	EnvDispatcherArgs = "ITD_DISPATCHER_ARGS"
	EnvProcessors     = "ITD_PROCESSORS"
	EnvTimeout        = "ITD_TIMEOUT"
	EnvLogLevel       = "ITD_LOG_LEVEL"
	EnvDatabasePrefix = "DB_DATABASE_PREFIX"
)
