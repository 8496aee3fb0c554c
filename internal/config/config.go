// Package config holds the settings shared by the posts and comments services.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"lrusvc/lru"
)

// DefaultCacheCapacity is used when neither the file nor the flags set one.
const DefaultCacheCapacity = 10

// Peer is the other service a host calls on its slow path.
type Peer struct {
	Host string
	Port string
	TLS  bool
}

// URL joins the peer base address with path.
func (p Peer) URL(path string) string {
	var proto string
	if p.TLS {
		proto = "https://"
	} else {
		proto = "http://"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if p.Port == "" || p.Port == "0" {
		return proto + p.Host + path
	}
	return proto + p.Host + ":" + p.Port + path
}

// Log selects the log output format and minimum level.
type Log struct {
	Format string // auto, text or json
	Level  string // debug, info, warn or error
}

// Config is one service's configuration.
type Config struct {
	Listen        string
	CacheCapacity int
	DataDir       string // empty means an in-memory store
	Peer          Peer
	Log           Log
}

// Default returns the configuration a service starts from before the file
// and flags are applied.
func Default(listen string) Config {
	return Config{
		Listen:        listen,
		CacheCapacity: DefaultCacheCapacity,
		Log:           Log{Format: "auto", Level: "info"},
	}
}

// Load decodes the TOML file at path on top of cfg. Unknown keys are an error
// so typos don't silently fall back to defaults.
func Load(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	md, err := toml.Decode(string(content), cfg)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var errs []error
	if c.CacheCapacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache capacity must be positive, got %d", lru.ErrInvalidConfiguration, c.CacheCapacity))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.Peer.Host == "" {
		errs = append(errs, errors.New("peer host is empty"))
	} else if _, err := url.Parse(c.Peer.URL("/")); err != nil {
		errs = append(errs, fmt.Errorf("peer address: %w", err))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
