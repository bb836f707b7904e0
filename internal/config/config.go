// Package config loads biolens configuration from a TOML file with
// environment variable overrides. Every field has a working default, so a
// missing file is not an error.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/mkarlsen/biolens/pkg/errors"
)

// DefaultFile is looked up in the working directory when no --config flag is
// given.
const DefaultFile = "biolens.toml"

// SourceConfig points at the experiments backend.
type SourceConfig struct {
	URL string `toml:"url"`
}

// LayoutConfig holds layout defaults for CLI and server runs.
type LayoutConfig struct {
	Mode   string  `toml:"mode"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	Seed   uint64  `toml:"seed"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Formats []string `toml:"formats"`
	Scale   float64  `toml:"scale"`
}

// RedisConfig configures the Redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// CacheConfig selects and configures a cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	Redis   RedisConfig `toml:"redis"`
}

// MongoConfig configures the MongoDB experiment store.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// StoreConfig selects where the server reads experiment records from.
type StoreConfig struct {
	// Backend is one of "file" or "mongo".
	Backend string      `toml:"backend"`
	Path    string      `toml:"path"`
	Mongo   MongoConfig `toml:"mongo"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Config is the top-level biolens configuration.
type Config struct {
	Source SourceConfig `toml:"source"`
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Layout: LayoutConfig{Mode: "force", Width: 1200, Height: 800, Seed: 42},
		Render: RenderConfig{Formats: []string{"svg"}, Scale: 2},
		Cache: CacheConfig{
			Backend: "file",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "experiments.json",
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "biolens",
				Collection: "experiments",
			},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads a config file on top of the defaults and applies environment
// overrides last. An empty path loads DefaultFile if it exists; a missing
// explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultFile
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv maps BIOLENS_* environment variables onto the config. Environment
// wins over the file.
func (c *Config) applyEnv() {
	setString(&c.Source.URL, "BIOLENS_SOURCE_URL")
	setString(&c.Layout.Mode, "BIOLENS_LAYOUT_MODE")
	setString(&c.Cache.Backend, "BIOLENS_CACHE_BACKEND")
	setString(&c.Cache.Dir, "BIOLENS_CACHE_DIR")
	setString(&c.Cache.Redis.Addr, "BIOLENS_REDIS_ADDR")
	setString(&c.Cache.Redis.Password, "BIOLENS_REDIS_PASSWORD")
	setInt(&c.Cache.Redis.DB, "BIOLENS_REDIS_DB")
	setString(&c.Store.Backend, "BIOLENS_STORE_BACKEND")
	setString(&c.Store.Path, "BIOLENS_STORE_PATH")
	setString(&c.Store.Mongo.URI, "BIOLENS_MONGO_URI")
	setString(&c.Store.Mongo.Database, "BIOLENS_MONGO_DATABASE")
	setString(&c.Store.Mongo.Collection, "BIOLENS_MONGO_COLLECTION")
	setString(&c.Server.Addr, "BIOLENS_SERVER_ADDR")
}

// Validate checks enum fields. Layout and render values get deep validation
// in the pipeline; this only rejects backends nothing can construct.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend: %s", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case "file", "mongo":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend: %s", c.Store.Backend)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
