package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sanketpal/filevault/database"
	filevaulthttp "github.com/sanketpal/filevault/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for filevault.
type Config struct {
	Server   ServerConfig             `mapstructure:"server"`
	Service  ServiceConfig            `mapstructure:"service"`
	Database database.Config          `mapstructure:"database"`
	Storage  StorageConfig            `mapstructure:"storage"`
	Auth     AuthConfig               `mapstructure:"auth"`
	CORS     filevaulthttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig                `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"min=0"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"`
}

// StorageConfig holds blob storage configuration.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// AuthConfig holds token signing configuration. Exactly one of Secret and
// SecretFile should be set; SecretFile keeps the key out of config files
// and environment listings.
type AuthConfig struct {
	Secret     string `mapstructure:"secret"`
	SecretFile string `mapstructure:"secret_file"`
	TokenTTL   int    `mapstructure:"token_ttl" validate:"min=1"` // seconds
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-path": "storage.path",
	"port":         "server.port",
	"secret-file":  "auth.secret_file",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_upload_size", 32<<20)

	v.SetDefault("service.cleanup_timeout", 30) // seconds

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "filevault.db")
	v.SetDefault("database.tables.users", "filevault_users")
	v.SetDefault("database.tables.files", "filevault_files")

	v.SetDefault("storage.path", "./data")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.secret_file", "")
	v.SetDefault("auth.token_ttl", 3600) // seconds

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("FILEVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Resolve the token secret before validation
	if err := cfg.Auth.resolveSecret(); err != nil {
		return nil, fmt.Errorf("resolve auth secret: %w", err)
	}

	// 7. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// resolveSecret loads the signing secret from SecretFile when Secret is not
// set directly. A file takes precedence so rotated keys on disk win over a
// stale inline value.
func (a *AuthConfig) resolveSecret() error {
	if a.SecretFile == "" {
		return nil
	}

	data, err := os.ReadFile(a.SecretFile)
	if err != nil {
		return fmt.Errorf("read secret file %s: %w", a.SecretFile, err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return fmt.Errorf("secret file %s is empty", a.SecretFile)
	}

	a.Secret = secret
	return nil
}
