package configuration

import (
	"context"
	"fmt"
	"time"

	"Voxline/internal/auth"
	"Voxline/internal/db"
	"Voxline/internal/handler"
	"Voxline/internal/hub"
	"Voxline/internal/media"
	"Voxline/internal/metrics"
	"Voxline/internal/repo"
	"Voxline/internal/service"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Container struct {
	AuthHandler    handler.AuthHandler
	UserHandler    handler.UserHandler
	MessageHandler handler.MessageHandler
	CallHandler    handler.CallHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Tokens         *auth.TokenService
	Metrics        *metrics.Metrics
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	store *repo.Store
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := NewLogger(config.Logging)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	store, err := OpenStore(config.Store, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	logger.Info("config loaded",
		zap.String("store", config.Store.Driver),
		zap.Int("app_port", config.Server.AppPort),
		zap.Int("socket_port", config.Server.SocketPort),
		zap.Bool("livekit", config.LiveKit.URL != ""))

	return NewContainer(*config, store, clock.New(), logger), nil
}

// NewContainer wires the relay and its REST surface over an open store
func NewContainer(config Config, store *repo.Store, clk clock.Clock, logger *zap.Logger) *Container {
	tokens := auth.NewTokenService(config.Auth.JWTSecret, config.Auth.TokenTTL.Std(), clk)
	liveKit := media.NewLiveKit(config.LiveKit.URL, config.LiveKit.APIKey, config.LiveKit.APISecret, config.LiveKit.TokenTTL.Std())
	relayMetrics := metrics.New()

	h := hub.NewHub(hub.Deps{
		Users:    store.Users,
		Messages: store.Messages,
		Calls:    store.Calls,
		Verifier: tokens,
		Media:    liveKit,
		Metrics:  relayMetrics,
		Clock:    clk,
		Logger:   logger.Named("hub"),
	}, hub.Options{
		RingTimeout:        config.Relay.RingTimeout.Std(),
		SendTimeout:        config.Relay.SendTimeout.Std(),
		EventsPerSecond:    config.Relay.EventsPerSecond,
		EventBurst:         config.Relay.EventBurst,
		AllowedOrigins:     config.Server.AllowedOrigins,
		DirectoryCacheSize: config.Relay.DirectoryCacheSize,
		DirectoryCacheTTL:  config.Relay.DirectoryCacheTTL.Std(),
	})

	userService := service.NewUserService(store.Users, tokens, h, clk, logger.Named("users"))
	messageService := service.NewMessageService(store.Messages, h.Directory(), h, clk, logger.Named("messages"))
	callService := service.NewCallService(store.Calls, h.Calls(), h.Directory(), logger.Named("calls"))

	return &Container{
		AuthHandler:    handler.NewAuthHandler(userService, logger),
		UserHandler:    handler.NewUserHandler(userService, logger),
		MessageHandler: handler.NewMessageHandler(messageService, logger),
		CallHandler:    handler.NewCallHandler(callService, logger),
		MonitorHandler: handler.NewMonitorHandler(hub.NewMonitorService(h)),
		Hub:            h,
		Tokens:         tokens,
		Metrics:        relayMetrics,
		Config:         config,
		Logger:         logger,
		store:          store,
	}
}

// NewLogger builds the production logger, or the development one when asked
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}

// OpenStore connects the configured backend
func OpenStore(cfg StoreConfig, logger *zap.Logger) (*repo.Store, error) {
	switch cfg.Driver {
	case DriverSQLite:
		conn, err := db.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		return repo.NewSQLiteStore(conn, logger.Named("sqlite")), nil

	case DriverMongo:
		database, err := db.OpenConnection(cfg.Mongo.Uri, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		store, err := repo.NewMongoStore(database, repo.MongoCollections{
			Users:    cfg.Mongo.UsersCollection,
			Messages: cfg.Mongo.MessagesCollection,
			Calls:    cfg.Mongo.CallsCollection,
		}, logger.Named("mongo"))
		if err != nil {
			_ = database.Client().Disconnect(context.Background())
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error

	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		err = multierr.Append(err, c.Hub.Stop(ctx))
	}

	if c.store != nil {
		if closeErr := c.store.Close(ctx); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close store: %w", closeErr))
		}
	}

	// Sync logger; stderr sync errors are expected on some platforms
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	return err
}
