package configuration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Duration reads "40s" style strings or plain seconds from JSON
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value * float64(time.Second)))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type MongoConfig struct {
	Uri                string `json:"uri"`
	Database           string `json:"database"`
	UsersCollection    string `json:"usersCollection"`
	MessagesCollection string `json:"messagesCollection"`
	CallsCollection    string `json:"callsCollection"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type StoreConfig struct {
	Driver string       `json:"driver"`
	Mongo  MongoConfig  `json:"mongo"`
	SQLite SQLiteConfig `json:"sqlite"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	SocketRoute    string   `json:"socket_route"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret string   `json:"jwt_secret"`
	TokenTTL  Duration `json:"token_ttl"`
}

type RelayConfig struct {
	RingTimeout        Duration `json:"ring_timeout"`
	SendTimeout        Duration `json:"send_timeout"`
	EventsPerSecond    float64  `json:"events_per_second"`
	EventBurst         int      `json:"event_burst"`
	DirectoryCacheSize int      `json:"directory_cache_size"`
	DirectoryCacheTTL  Duration `json:"directory_cache_ttl"`
}

type LiveKitConfig struct {
	URL       string   `json:"url"`
	APIKey    string   `json:"api_key"`
	APISecret string   `json:"api_secret"`
	TokenTTL  Duration `json:"token_ttl"`
}

type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

type Config struct {
	Store   StoreConfig   `json:"store"`
	Server  ServerConfig  `json:"server"`
	Auth    AuthConfig    `json:"auth"`
	Relay   RelayConfig   `json:"relay"`
	LiveKit LiveKitConfig `json:"livekit"`
	Logging LoggingConfig `json:"logging"`
}

// LoadConfig reads the JSON file at configPath, applies VOXLINE_*
// environment overrides and fills defaults. An empty path skips the file.
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(file, &config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	port := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("VOXLINE_STORE_DRIVER", &c.Store.Driver)
	str("VOXLINE_MONGO_URI", &c.Store.Mongo.Uri)
	str("VOXLINE_SQLITE_PATH", &c.Store.SQLite.Path)
	str("VOXLINE_JWT_SECRET", &c.Auth.JWTSecret)
	str("VOXLINE_LIVEKIT_API_KEY", &c.LiveKit.APIKey)
	str("VOXLINE_LIVEKIT_API_SECRET", &c.LiveKit.APISecret)

	return multierr.Combine(
		port("VOXLINE_APP_PORT", &c.Server.AppPort),
		port("VOXLINE_SOCKET_PORT", &c.Server.SocketPort),
	)
}

func (c *Config) setDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMongo
	}
	if c.Store.Mongo.Database == "" {
		c.Store.Mongo.Database = "voxline"
	}
	if c.Store.Mongo.UsersCollection == "" {
		c.Store.Mongo.UsersCollection = "users"
	}
	if c.Store.Mongo.MessagesCollection == "" {
		c.Store.Mongo.MessagesCollection = "messages"
	}
	if c.Store.Mongo.CallsCollection == "" {
		c.Store.Mongo.CallsCollection = "calls"
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = "voxline.db"
	}

	if c.Server.AppPort == 0 {
		c.Server.AppPort = 5000
	}
	if c.Server.SocketPort == 0 {
		c.Server.SocketPort = 5001
	}
	c.Server.SocketRoute = strings.Trim(c.Server.SocketRoute, "/")
	if c.Server.SocketRoute == "" {
		c.Server.SocketRoute = "ws"
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = Duration(30 * 24 * time.Hour)
	}

	if c.Relay.RingTimeout == 0 {
		c.Relay.RingTimeout = Duration(40 * time.Second)
	}
	if c.Relay.SendTimeout == 0 {
		c.Relay.SendTimeout = Duration(2 * time.Second)
	}
	if c.Relay.EventBurst == 0 {
		c.Relay.EventBurst = 20
	}

	if c.LiveKit.TokenTTL == 0 {
		c.LiveKit.TokenTTL = Duration(time.Hour)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var err error

	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.Mongo.Uri == "" {
			err = multierr.Append(err, errors.New("store.mongo.uri is required for the mongo driver"))
		}
	case DriverSQLite:
	default:
		err = multierr.Append(err, fmt.Errorf("store.driver must be %q or %q, got %q", DriverMongo, DriverSQLite, c.Store.Driver))
	}

	if c.Auth.JWTSecret == "" {
		err = multierr.Append(err, errors.New("auth.jwt_secret is required"))
	}
	if c.Server.AppPort == c.Server.SocketPort {
		err = multierr.Append(err, errors.New("server.app_port and server.socket_port must differ"))
	}
	if c.Relay.RingTimeout < 0 {
		err = multierr.Append(err, errors.New("relay.ring_timeout must not be negative"))
	}
	if c.Relay.EventsPerSecond < 0 {
		err = multierr.Append(err, errors.New("relay.events_per_second must not be negative"))
	}

	lk := c.LiveKit
	if configured := lk.URL != "" || lk.APIKey != "" || lk.APISecret != ""; configured &&
		(lk.URL == "" || lk.APIKey == "" || lk.APISecret == "") {
		err = multierr.Append(err, errors.New("livekit needs url, api_key and api_secret together"))
	}

	return err
}
