package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-bake/internal/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BAKE"

// FileName is the config file base name searched in the config directory.
const FileName = "bake"

// Config holds all configuration for the CLI and preview server.
type Config struct {
	Templates Templates     `mapstructure:"templates" yaml:"templates"`
	Content   Content       `mapstructure:"content" yaml:"content"`
	Log       logger.Config `mapstructure:"log" yaml:"log"`
	Server    Server        `mapstructure:"server" yaml:"server"`
	Telemetry Telemetry     `mapstructure:"telemetry" yaml:"telemetry"`
}

// Templates configures template resolution and rendering.
type Templates struct {
	// Folder is the on-disk template root. Empty means bundled templates only.
	Folder string `mapstructure:"folder" yaml:"folder" default:""`
	// FolderName is the prefix tried inside the bundled assets.
	FolderName string `mapstructure:"folder_name" yaml:"folder_name" default:"templates"`
	// MaxDepth bounds nested renders.
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth" default:"32"`
	// Globals are visible to every render beneath the model. Keys keep their
	// case when the config file is YAML or JSON; TOML files and environment
	// overrides go through viper, which lowercases them.
	Globals map[string]any `mapstructure:"globals" yaml:"globals,omitempty"`
}

// Content selects the content repository.
type Content struct {
	// Driver is memory or sqlite.
	Driver string `mapstructure:"driver" yaml:"driver" default:"memory"`
	// DSN is the sqlite data source.
	DSN string `mapstructure:"dsn" yaml:"dsn" default:"bake.db"`
}

// Server configures the preview server.
type Server struct {
	Addr string `mapstructure:"addr" yaml:"addr" default:":8080"`
}

// Telemetry toggles OpenTelemetry instrumentation.
type Telemetry struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" default:"false"`
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Validate reports settings the CLI cannot act on.
func (c *Config) Validate() error {
	switch c.Content.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return errors.New("config: content.driver must be memory or sqlite")
	}
	if c.Content.Driver == DriverSQLite && strings.TrimSpace(c.Content.DSN) == "" {
		return errors.New("config: content.dsn is required for the sqlite driver")
	}
	if c.Templates.MaxDepth < 0 {
		return errors.New("config: templates.max_depth must not be negative")
	}
	return nil
}

// Load reads configuration from dir: dir/.env, then dir/bake.{yaml,yml,json,toml}
// when present, then BAKE_ environment variables.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := newViper()
	v.SetConfigName(FileName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return decodeWithGlobals(v)
}

// LoadFile reads configuration from an explicit file, then BAKE_ environment
// variables.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return decodeWithGlobals(v)
}

// Default returns the configuration built from struct tag defaults only. It
// panics if the tags cannot be decoded.
func Default() *Config {
	v := viper.New()
	bindValues(v, Config{}, "")
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("config: decode defaults: %v", err))
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	bindValues(v, Config{}, "")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// decodeWithGlobals decodes v and then re-reads templates.globals from the
// config file so global names keep their case.
func decodeWithGlobals(v *viper.Viper) (*Config, error) {
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	globals, err := fileGlobals(v.ConfigFileUsed())
	if err != nil {
		return nil, err
	}
	if globals != nil {
		cfg.Templates.Globals = globals
	}
	return cfg, nil
}

// fileGlobals reads templates.globals verbatim from a YAML or JSON file. Other
// formats, or no file, yield nil.
func fileGlobals(path string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var raw struct {
		Templates struct {
			Globals map[string]any `yaml:"globals"`
		} `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: decode globals in %s: %w", path, err)
	}
	return raw.Templates.Globals, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindValues walks the struct and registers every `default` tag with viper so
// AutomaticEnv can override the key. Maps and slices have no scalar default
// and are left to the config file.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		case reflect.Map, reflect.Slice:
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
