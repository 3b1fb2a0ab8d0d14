package configuration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"store": {"driver": "sqlite", "sqlite": {"path": "/tmp/x.db"}},
		"server": {"socket_route": "/live/"},
		"auth": {"jwt_secret": "s3cret", "token_ttl": "2h"},
		"relay": {"ring_timeout": 15, "events_per_second": 5}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Store.SQLite.Path)
	assert.Equal(t, "live", cfg.Server.SocketRoute)
	assert.Equal(t, 5000, cfg.Server.AppPort)
	assert.Equal(t, 5001, cfg.Server.SocketPort)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL.Std())
	assert.Equal(t, 15*time.Second, cfg.Relay.RingTimeout.Std())
	assert.Equal(t, 2*time.Second, cfg.Relay.SendTimeout.Std())
	assert.Equal(t, 5.0, cfg.Relay.EventsPerSecond)
	assert.Equal(t, 20, cfg.Relay.EventBurst)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "calls", cfg.Store.Mongo.CallsCollection)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `{"store": {"driver": "sqlite"}, "auth": {"jwt_secret": "from-file"}}`)

	t.Setenv("VOXLINE_JWT_SECRET", "from-env")
	t.Setenv("VOXLINE_STORE_DRIVER", "mongo")
	t.Setenv("VOXLINE_MONGO_URI", "mongodb://db:27017")
	t.Setenv("VOXLINE_APP_PORT", "8080")
	t.Setenv("VOXLINE_SOCKET_PORT", "8081")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.Mongo.Uri)
	assert.Equal(t, 8080, cfg.Server.AppPort)
	assert.Equal(t, 8081, cfg.Server.SocketPort)
}

func TestLoadConfig_BadPortFromEnv(t *testing.T) {
	t.Setenv("VOXLINE_APP_PORT", "eighty")
	t.Setenv("VOXLINE_JWT_SECRET", "x")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VOXLINE_APP_PORT")
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, `{"relay": {"ring_timeout": "soon"}}`))
	assert.Error(t, err)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Config{
		Store:   StoreConfig{Driver: "postgres"},
		Server:  ServerConfig{AppPort: 5000, SocketPort: 5000},
		LiveKit: LiveKitConfig{URL: "wss://media.example.com"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 4)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "jwt_secret")
	assert.Contains(t, err.Error(), "must differ")
	assert.Contains(t, err.Error(), "livekit")
}

func TestValidate_MongoNeedsURI(t *testing.T) {
	cfg := Config{
		Store:  StoreConfig{Driver: DriverMongo},
		Server: ServerConfig{AppPort: 1, SocketPort: 2},
		Auth:   AuthConfig{JWTSecret: "x"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.mongo.uri")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestContainer_SQLiteLifecycle(t *testing.T) {
	cfg := Config{
		Store: StoreConfig{Driver: DriverSQLite, SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "c.db")}},
		Auth:  AuthConfig{JWTSecret: "x", TokenTTL: Duration(time.Hour)},
		Relay: RelayConfig{RingTimeout: Duration(40 * time.Second)},
	}

	store, err := OpenStore(cfg.Store, zap.NewNop())
	require.NoError(t, err)

	c := NewContainer(cfg, store, clock.NewMock(), zap.NewNop())
	require.NotNil(t, c.Hub)
	require.NotNil(t, c.AuthHandler)
	require.NotNil(t, c.Metrics)

	require.NoError(t, c.Close())
	_, err = store.Users.ListUsers(context.Background(), primitive.NilObjectID)
	assert.Error(t, err, "store is closed")
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(StoreConfig{Driver: "csv"}, zap.NewNop())
	assert.Error(t, err)
}
