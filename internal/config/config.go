package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// MemoryConfig holds settings for the JSON-file record store backend.
type MemoryConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// SqliteConfig holds settings for the SQLite record store backend.
// An empty Path means an ephemeral in-memory database.
type SqliteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// StorageConfig selects and parameterizes the record store backend.
type StorageConfig struct {
	Backend string
	Memory  MemoryConfig
	Sqlite  SqliteConfig
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./planmarklogs")

	viper.SetDefault("plan.svgUrl", "http://localhost:3000/plans/office_plan.svg")
	viper.SetDefault("plan.elementsUrl", "http://localhost:3000/plans/office_plan.elements.json")

	viper.SetDefault("analysis.serverUrl", "http://localhost:8000")
	viper.SetDefault("analysis.timeoutSeconds", 30)

	viper.SetDefault("storage.backend", "memory")
	viper.SetDefault("storage.memory.path", "./planmark_records.json")
	viper.SetDefault("storage.sqlite.path", "./planmark_records.db")

	viper.SetDefault("photo.store", "local")
	viper.SetDefault("photo.localDir", "./planmark_photos")
	viper.SetDefault("photo.s3.endpoint", "localhost:9000")
	viper.SetDefault("photo.s3.accessKey", "")
	viper.SetDefault("photo.s3.secretKey", "")
	viper.SetDefault("photo.s3.bucket", "inspection-photos")
	viper.SetDefault("photo.s3.region", "")
	viper.SetDefault("photo.s3.useSSL", false)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "planmark-metrics")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("planmark.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Storage returns the configured record store settings.
func Storage() StorageConfig {
	return StorageConfig{
		Backend: viper.GetString("storage.backend"),
		Memory:  MemoryConfig{Path: viper.GetString("storage.memory.path")},
		Sqlite:  SqliteConfig{Path: viper.GetString("storage.sqlite.path")},
	}
}

// AnalysisTimeout returns the analysis request timeout.
func AnalysisTimeout() time.Duration {
	return time.Duration(viper.GetInt("analysis.timeoutSeconds")) * time.Second
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
