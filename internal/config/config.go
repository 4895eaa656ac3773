package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Data     DataConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Tracing  TracingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string `validate:"required,numeric"`
	Env            string `validate:"required"`
	AllowedOrigins []string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `validate:"oneof=trace debug info warn error"`
}

// DataConfig describes where measurement files come from and how they are
// evaluated
type DataConfig struct {
	Dir          string
	Pattern      string  `validate:"required"`
	TargetFreqHz float64 `validate:"gt=0"`
	LoadWorkers  int     `validate:"min=1,max=64"`
	Watch        bool
}

// StorageConfig selects and configures the measurement file backend
type StorageConfig struct {
	Backend         string `validate:"oneof=local s3 minio"`
	Bucket          string `validate:"required_unless=Backend local"`
	Prefix          string
	Endpoint        string `validate:"required_if=Backend minio"`
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// DatabaseConfig holds database configuration. An empty URL disables the
// report archive.
type DatabaseConfig struct {
	URL string
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string  `validate:"oneof=stdout otlp"`
	Endpoint    string
	SampleRatio float64 `validate:"gte=0,lte=1"`
}

var keys = []string{
	"PORT", "ENVIRONMENT", "LOG_LEVEL", "ALLOWED_ORIGINS",
	"DATA_DIR", "FILE_PATTERN", "TARGET_FREQ_HZ", "LOAD_WORKERS", "WATCH_DATA_DIR",
	"STORAGE_BACKEND", "S3_BUCKET", "S3_PREFIX", "S3_ENDPOINT",
	"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"DATABASE_URL",
	"TRACING_ENABLED", "TRACING_SERVICE_NAME", "TRACING_EXPORTER", "TRACING_ENDPOINT", "TRACING_SAMPLE_RATIO",
}

var validate = validator.New()

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "dev")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("DATA_DIR", ".")
	viper.SetDefault("FILE_PATTERN", "antenna*.s2p")
	viper.SetDefault("TARGET_FREQ_HZ", 2.4e9)
	viper.SetDefault("LOAD_WORKERS", 4)
	viper.SetDefault("WATCH_DATA_DIR", false)
	viper.SetDefault("STORAGE_BACKEND", "local")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_PREFIX", "")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ACCESS_KEY_ID", "")
	viper.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_SERVICE_NAME", "s2plab")
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_ENDPOINT", "")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	// Environment variables override .env file values
	viper.AutomaticEnv()
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	env := viper.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	// Read .env file for the current environment; it may not exist
	viper.SetConfigName(".env." + env)
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read .env.%s: %w", env, err)
		}
	}

	var config Config
	config.Server.Port = viper.GetString("PORT")
	config.Server.Env = env
	config.Server.AllowedOrigins = splitList(viper.GetString("ALLOWED_ORIGINS"))
	config.Log.Level = strings.ToLower(viper.GetString("LOG_LEVEL"))
	config.Data.Dir = viper.GetString("DATA_DIR")
	config.Data.Pattern = viper.GetString("FILE_PATTERN")
	config.Data.TargetFreqHz = viper.GetFloat64("TARGET_FREQ_HZ")
	config.Data.LoadWorkers = viper.GetInt("LOAD_WORKERS")
	config.Data.Watch = viper.GetBool("WATCH_DATA_DIR")
	config.Storage.Backend = strings.ToLower(viper.GetString("STORAGE_BACKEND"))
	config.Storage.Bucket = viper.GetString("S3_BUCKET")
	config.Storage.Prefix = viper.GetString("S3_PREFIX")
	config.Storage.Endpoint = viper.GetString("S3_ENDPOINT")
	config.Storage.Region = viper.GetString("AWS_REGION")
	config.Storage.AccessKeyID = viper.GetString("AWS_ACCESS_KEY_ID")
	config.Storage.SecretAccessKey = viper.GetString("AWS_SECRET_ACCESS_KEY")
	config.Database.URL = viper.GetString("DATABASE_URL")
	config.Tracing.Enabled = viper.GetBool("TRACING_ENABLED")
	config.Tracing.ServiceName = viper.GetString("TRACING_SERVICE_NAME")
	config.Tracing.Exporter = strings.ToLower(viper.GetString("TRACING_EXPORTER"))
	config.Tracing.Endpoint = viper.GetString("TRACING_ENDPOINT")
	config.Tracing.SampleRatio = viper.GetFloat64("TRACING_SAMPLE_RATIO")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("environment", config.Server.Env).
		Str("storage_backend", config.Storage.Backend).
		Str("data_dir", config.Data.Dir).
		Strs("allowed_origins", config.Server.AllowedOrigins).
		Bool("reports_enabled", config.ReportsEnabled()).
		Msg("Configuration loaded")

	return &config, nil
}

// Validate checks the struct tags and returns every violation in one error
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, formatFieldError(e))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required", "required_unless", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ReportsEnabled reports whether a database is configured
func (c *Config) ReportsEnabled() bool {
	return c.Database.URL != ""
}

// SetupLogging configures the global zerolog logger. Development
// environments get the console writer, everything else JSON.
func SetupLogging(cfg LogConfig, env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if env == "dev" || env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
