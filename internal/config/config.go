package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// ErrMissingPassword возвращается, когда выбран postgres, а пароль не задан.
var ErrMissingPassword = errors.New("POSTGRES_PASSWORD is not set")

type Config struct {
	Storage  string         `koanf:"storage"  yaml:"storage"  validate:"oneof=memory postgres"`
	Server   ServerConfig   `koanf:"server"   yaml:"server"`
	Postgres PostgresConfig `koanf:"postgres" yaml:"postgres"`
	Log      LogConfig      `koanf:"log"      yaml:"log"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"             yaml:"port"             validate:"required,numeric"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     yaml:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    yaml:"write_timeout"    validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	Metrics         bool          `koanf:"metrics"          yaml:"metrics"`
}

type PostgresConfig struct {
	Host     string `koanf:"host"      yaml:"host"      validate:"required"`
	Port     string `koanf:"port"      yaml:"port"      validate:"required,numeric"`
	DB       string `koanf:"db"        yaml:"db"`
	User     string `koanf:"user"      yaml:"user"`
	Password string `koanf:"password"  yaml:"password"`
	SSLMode  string `koanf:"sslmode"   yaml:"sslmode"   validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `koanf:"max_conns" yaml:"max_conns" validate:"gte=0"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"  yaml:"json"`
	Dir   string `koanf:"dir"   yaml:"dir"`
}

// DSN собирает строку подключения; порт по умолчанию 5432.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.DB,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

func Default() *Config {
	return &Config{
		Storage: StorageMemory,
		Server: ServerConfig{
			Port:            "8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			Metrics:         true,
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     "5432",
			DB:       "postgres",
			User:     "postgres",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// envKeys - явное соответствие переменных окружения ключам конфигурации.
var envKeys = map[string]string{
	"APP_STORAGE":        "storage",
	"APP_PORT":           "server.port",
	"POSTGRES_HOST":      "postgres.host",
	"POSTGRES_PORT":      "postgres.port",
	"POSTGRES_DB":        "postgres.db",
	"POSTGRES_USER":      "postgres.user",
	"POSTGRES_PASSWORD":  "postgres.password",
	"POSTGRES_SSLMODE":   "postgres.sslmode",
	"POSTGRES_MAX_CONNS": "postgres.max_conns",
	"LOG_DIR":            "log.dir",
	"LOG_LEVEL":          "log.level",
	"LOG_JSON":           "log.json",
}

// Option меняет конфигурацию после загрузки и до валидации (флаги CLI).
type Option func(*Config)

// Load собирает конфигурацию: значения по умолчанию, YAML-файл (если есть),
// .env и переменные окружения. Результат проходит Validate.
func Load(path string, opts ...Option) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return envKeys[key], value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var out Config
	if err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &out,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	for _, opt := range opts {
		opt(&out)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate проверяет теги и обязательный пароль для postgres.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if c.Storage == StoragePostgres && c.Postgres.Password == "" {
		return ErrMissingPassword
	}
	return nil
}
