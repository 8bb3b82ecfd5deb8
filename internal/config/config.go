package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Name     string `mapstructure:"name"`
	InMemory bool   `mapstructure:"in_memory"` // Run without MongoDB; data is lost on restart
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	JSON   bool   `mapstructure:"json"`
	File   string `mapstructure:"file"`   // Empty means stdout only
	Stdout bool   `mapstructure:"stdout"` // Also write to stdout when File is set
}

// Document storage backends.
const (
	BackendMongo = "mongo"
	BackendS3    = "s3"
)

// TrackerConfig controls the workout tracker core.
type TrackerConfig struct {
	Backend         string        `mapstructure:"backend"`     // "mongo" or "s3"; database.in_memory replaces "mongo"
	StorageKey      string        `mapstructure:"storage_key"` // Prefix of every per-user document slot
	CompletionDwell time.Duration `mapstructure:"completion_dwell"`
	LoadTimeout     time.Duration `mapstructure:"load_timeout"` // Bounds the document read when a workspace opens
	RequireRating   bool          `mapstructure:"require_rating"`
	SeedInitialData bool          `mapstructure:"seed_initial_data"`
}

// CatalogConfig controls the exercise catalog fetch.
type CatalogConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// AdminConfig bootstraps the first administrator on startup.
// Empty Email disables the bootstrap.
type AdminConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, tracker.completion_dwell -> TRACKER_COMPLETION_DWELL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	// If config file not found, continue and rely on defaults/env vars.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "gym_tracker")
	v.SetDefault("database.in_memory", false)
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.stdout", true)
	v.SetDefault("tracker.backend", BackendMongo)
	v.SetDefault("tracker.storage_key", "gym-tracker-data")
	v.SetDefault("tracker.completion_dwell", "2s")
	v.SetDefault("tracker.load_timeout", "10s")
	v.SetDefault("tracker.require_rating", false)
	v.SetDefault("tracker.seed_initial_data", true)
	v.SetDefault("catalog.fetch_timeout", "10s")
	v.SetDefault("admin.name", "Administrator")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}
