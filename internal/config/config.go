package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. GRIMOIRE_DB_PATH.
const EnvPrefix = "GRIMOIRE"

// Keys understood by Load.
const (
	KeyPort           = "port"
	KeyAPIKey         = "api_key"
	KeyDBPath         = "db_path"
	KeyWorkerCount    = "worker_count"
	KeyMaxQueueSize   = "max_queue_size"
	KeyMaxUploadBytes = "max_upload_bytes"
	KeyMaxBatchFiles  = "max_batch_files"
	KeyJobTTL         = "job_ttl"
	KeySpellDir       = "spell_dir"
	KeyIndexName      = "index_name"
	KeyEmitTables     = "emit_tables"
	KeyLogLevel       = "log_level"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	DBPath string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64
	MaxBatchFiles  int

	// Job state
	JobTTL time.Duration

	// Extraction
	SpellDir   string
	IndexName  string
	EmitTables bool

	LogLevel string
}

// SetDefaults registers the default for every key and enables environment
// overrides.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "8090")
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyDBPath, "grimoire.db")
	v.SetDefault(KeyWorkerCount, 4)
	v.SetDefault(KeyMaxQueueSize, 100)
	v.SetDefault(KeyMaxUploadBytes, int64(52428800)) // 50MB
	v.SetDefault(KeyMaxBatchFiles, 500)
	v.SetDefault(KeyJobTTL, time.Hour)
	v.SetDefault(KeySpellDir, "Spellcasting/spells_a-z")
	v.SetDefault(KeyIndexName, "index")
	v.SetDefault(KeyEmitTables, false)
	v.SetDefault(KeyLogLevel, "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v. Non-positive numbers fall back to
// their defaults.
func Load(v *viper.Viper) Config {
	SetDefaults(v)

	cfg := Config{
		Port:           v.GetString(KeyPort),
		APIKey:         v.GetString(KeyAPIKey),
		DBPath:         v.GetString(KeyDBPath),
		WorkerCount:    v.GetInt(KeyWorkerCount),
		MaxQueueSize:   v.GetInt(KeyMaxQueueSize),
		MaxUploadBytes: v.GetInt64(KeyMaxUploadBytes),
		MaxBatchFiles:  v.GetInt(KeyMaxBatchFiles),
		JobTTL:         v.GetDuration(KeyJobTTL),
		SpellDir:       v.GetString(KeySpellDir),
		IndexName:      v.GetString(KeyIndexName),
		EmitTables:     v.GetBool(KeyEmitTables),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
	}

	if cfg.Port == "" {
		cfg.Port = "8090"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "grimoire.db"
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxBatchFiles <= 0 {
		cfg.MaxBatchFiles = 500
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the keys the HTTP server cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s_API_KEY is required", EnvPrefix)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
