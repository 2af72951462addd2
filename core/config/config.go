package config

import (
	"reflect"
	"strings"

	"catalog-manager/core/cache"
	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/logger"
	"catalog-manager/core/server"
	"catalog-manager/core/storage"
	"catalog-manager/core/upstream"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application, divided into
// partial configurations owned by the packages they configure.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the relational store.
	Database database.Config `mapstructure:"database"`
	// Cache holds configuration for the metadata cache store.
	Cache cache.Config `mapstructure:"cache"`
	// Upstream holds configuration for the metadata provider client.
	Upstream upstream.Config `mapstructure:"upstream"`
	// Labels holds configuration for the label table and defaults.
	Labels labels.Config `mapstructure:"labels"`
	// Storage holds configuration for the cover-art object storage.
	Storage storage.Config `mapstructure:"storage"`
}

// LoadConfig loads configuration from environment variables and an
// optional .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is fine (production runs on real env vars).
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Register defaults from struct tags so AutomaticEnv sees every key.
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. CACHE_BACKEND ->
	// cache.backend).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the struct tags recursively and registers each
// key's default value in viper.
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

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Empty defaults still register the key for AutomaticEnv.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
