package approuters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"Voxline/internal/configuration"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// StartServer runs the socket and application servers until a signal
// arrives or one of them fails, then shuts both down
func StartServer(container *configuration.Container) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Run(ctx, container)
}

// Run serves until ctx is done or a server fails
func Run(ctx context.Context, container *configuration.Container) error {
	logger := container.Logger
	cfg := container.Config.Server

	socketServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.SocketPort),
		Handler:     NewSocketRouter(container),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	appServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.AppPort),
		Handler:      NewAppRouter(container),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("socket server starting", zap.String("addr", fmt.Sprintf("ws://localhost:%d/%s", cfg.SocketPort, cfg.SocketRoute)))
		if err := socketServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("socket server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("application server starting", zap.String("addr", fmt.Sprintf("http://localhost:%d", cfg.AppPort)))
		if err := appServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Stop the hub first so every socket gets a close frame
		if err := container.Hub.Stop(shutdownCtx); err != nil {
			logger.Warn("hub stop", zap.Error(err))
		}
		if err := socketServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("socket server shutdown", zap.Error(err))
		}
		if err := appServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("app server shutdown", zap.Error(err))
		}

		logger.Info("graceful shutdown complete")
		return nil
	})

	return g.Wait()
}

// NewSocketRouter serves the websocket endpoint
func NewSocketRouter(container *configuration.Container) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/"+container.Config.Server.SocketRoute, container.Hub.ServeWS)
	return mux
}

// NewAppRouter serves the REST API, monitor, metrics and health endpoints
func NewAppRouter(container *configuration.Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(container.Logger))

	origins := container.Config.Server.AllowedOrigins
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to Voxline Application Server!",
		})
	})
	router.GET("/metrics", gin.WrapH(container.Metrics.Handler()))
	router.GET("/healthz", container.MonitorHandler.Health)

	api := router.Group("/api")
	AuthRouters(api, container)
	UserRouters(api, container)
	MessageRouters(api, container)
	CallRouters(api, container)
	MonitorRouters(api, container)

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
