package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tmarkert/skyquery/pkg/archives"
	"github.com/tmarkert/skyquery/pkg/cache"
)

// Config is the optional config file under ~/.config/skyquery/config.toml.
//
//	[cache]
//	backend = "file"          # file | memory | redis | mongo | off
//	ttl = "24h"               # cap on cached response lifetime
//	url = "redis://host/0"    # redis backend
//	mongo_uri = "mongodb://"  # mongo backend
//	mongo_db = "skyquery"
//
//	[services.gaia]
//	tap_url = "https://gea.esac.esa.int/tap-server/tap"
//
// Service blocks override endpoints of built-in services or register new
// ones; empty fields keep the built-in values.
type Config struct {
	Cache    CacheConfig              `toml:"cache"`
	Services map[string]ServiceConfig `toml:"services"`
}

// CacheConfig selects and tunes the response cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	TTL      duration `toml:"ttl"`
	Dir      string   `toml:"dir"`
	URL      string   `toml:"url"`
	MongoURI string   `toml:"mongo_uri"`
	MongoDB  string   `toml:"mongo_db"`
}

// ServiceConfig overrides endpoints for one service.
type ServiceConfig struct {
	Description string   `toml:"description"`
	TAPURL      string   `toml:"tap_url"`
	SCSURL      string   `toml:"scs_url"`
	BaseURL     string   `toml:"base_url"`
	Aliases     []string `toml:"aliases"`
}

// duration supports "24h"-style strings in TOML.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// LoadConfig reads the config file at path. A missing file yields the zero
// config; a malformed one is an error.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyServices merges the [services] blocks into the registry.
func (c *Config) ApplyServices(r *archives.Registry) error {
	for name, sc := range c.Services {
		err := r.Apply(name, archives.Override{
			Description: sc.Description,
			TAPURL:      sc.TAPURL,
			SCSURL:      sc.SCSURL,
			BaseURL:     sc.BaseURL,
			Aliases:     sc.Aliases,
		})
		if err != nil {
			return fmt.Errorf("config service %q: %w", name, err)
		}
	}
	return nil
}

// Open builds the configured cache backend. The default is the file cache
// under the XDG cache directory; a configured TTL caps entry lifetimes on
// any backend.
func (cc CacheConfig) Open(ctx context.Context) (cache.Cache, error) {
	backend, err := cc.open(ctx)
	if err != nil {
		return nil, err
	}
	if cc.TTL > 0 {
		backend = ttlCache{Cache: backend, max: time.Duration(cc.TTL)}
	}
	return backend, nil
}

func (cc CacheConfig) open(ctx context.Context) (cache.Cache, error) {
	switch cc.Backend {
	case "", "file":
		dir := cc.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				// No resolvable home directory; run uncached.
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	case "memory":
		return cache.NewMemoryCache(), nil
	case "redis":
		if cc.URL == "" {
			return nil, fmt.Errorf("cache backend redis needs url")
		}
		return cache.NewRedisCache(ctx, cc.URL)
	case "mongo":
		if cc.MongoURI == "" {
			return nil, fmt.Errorf("cache backend mongo needs mongo_uri")
		}
		db := cc.MongoDB
		if db == "" {
			db = appName
		}
		return cache.NewMongoCache(ctx, cc.MongoURI, db)
	case "off", "none":
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (file, memory, redis, mongo, off)", cc.Backend)
	}
}

// ttlCache caps the lifetime of stored entries at a configured maximum.
type ttlCache struct {
	cache.Cache
	max time.Duration
}

func (c ttlCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl == 0 || ttl > c.max {
		ttl = c.max
	}
	return c.Cache.Set(ctx, key, data, ttl)
}
