package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/christmas-fire/courier/internal/app/gateway"
	"github.com/christmas-fire/courier/internal/app/rest"
	"github.com/christmas-fire/courier/internal/config"
	"github.com/christmas-fire/courier/internal/middleware"
	"github.com/christmas-fire/courier/internal/ratelimit"
	"github.com/christmas-fire/courier/internal/repository/message"
	"github.com/christmas-fire/courier/internal/repository/notification"
	"github.com/christmas-fire/courier/internal/repository/user"
	"github.com/christmas-fire/courier/internal/service/chat"
	"github.com/christmas-fire/courier/internal/service/history"
	"github.com/christmas-fire/courier/internal/service/notify"
	"github.com/christmas-fire/courier/internal/storage/postgres"
	redisStorage "github.com/christmas-fire/courier/internal/storage/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

func serveCmd(logger *slog.Logger) *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(logger, seed)
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "comma separated users to create at startup, name or name:staff")
	return cmd
}

type stores struct {
	users         user.UserRepository
	messages      message.MessageRepository
	notifications notification.NotificationRepository
}

func runServe(logger *slog.Logger, seed string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = redisStorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info("connected to Redis", "addr", cfg.RedisAddr)
	}

	st, closeStores, err := openStores(ctx, logger, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeStores()

	if err := seedUsers(ctx, logger, st.users, seed); err != nil {
		return err
	}

	var limiterStore ratelimit.Store
	if redisClient != nil {
		limiterStore = ratelimit.NewRedisStore(redisClient)
	} else {
		memStore := ratelimit.NewMemoryStore(nil)
		go memStore.RunCleanup(ctx, cfg.CleanupInterval)
		limiterStore = memStore
	}

	requestLog, err := os.OpenFile(cfg.RequestLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open request log: %w", err)
	}
	defer requestLog.Close()

	chatService := chat.NewChatService(st.messages, st.notifications, st.users)

	hub := gateway.NewHub(redisClient, chatService, logger)
	go hub.Run(ctx)
	go hub.SubscribeToNotifications(ctx)

	router := rest.NewRouter(rest.Dependencies{
		Chat:          chatService,
		JWTSecret:     cfg.JWTSecret,
		RequestLogger: middleware.NewRequestLogger(requestLog, nil, logger),
		Gate:          middleware.NewTimeWindowGate(cfg.RestrictedStart, cfg.RestrictedEnd, cfg.ChatPathPrefixes, nil),
		RateLimit: middleware.NewRateLimit(
			ratelimit.NewLimiter(limiterStore, cfg.RateLimitThreshold, cfg.RateLimitWindow),
			cfg.MessageSendPrefixes, logger,
		),
		WebSocket: hub.Handler(cfg.JWTSecret),
		Log:       logger,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "Retry-After"},
		MaxAge:           300,
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		logger.Info("HTTP server is listening", "addr", server.Addr, "storage", cfg.Storage,
			"restricted", fmt.Sprintf("%s-%s", cfg.RestrictedStart, cfg.RestrictedEnd))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		logger.Error("Server error, initiating shutdown", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped cleanly")
	return nil
}

func openStores(ctx context.Context, logger *slog.Logger, cfg config.Config, redisClient *redis.Client) (stores, func(), error) {
	editTracker := history.NewEditTracker(nil)

	if cfg.Storage == "memory" {
		notifications := notification.NewMemoryRepository()
		messages := message.NewMemoryRepository(message.Hooks{
			BeforeUpdate: []message.UpdateInterceptor{editTracker},
			AfterCreate:  []message.CreateObserver{notify.NewDispatcher(notifications, redisClient, logger)},
		})
		users := user.NewMemoryRepository(func(ctx context.Context, userID int64) {
			notifications.Purge(ctx, userID, messages.PurgeUser(ctx, userID))
		})
		logger.Warn("using in-memory storage, data is lost on restart")
		return stores{users: users, messages: messages, notifications: notifications}, func() {}, nil
	}

	pool, err := postgres.NewStorage(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return stores{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.AutoSchema {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return stores{}, nil, err
		}
	}

	notifications := notification.NewPostgresRepository(pool)
	messages := message.NewPostgresRepository(pool, message.Hooks{
		BeforeUpdate: []message.UpdateInterceptor{editTracker},
		AfterCreate:  []message.CreateObserver{notify.NewDispatcher(notifications, redisClient, logger)},
	})
	return stores{
		users:         user.NewPostgresRepository(pool),
		messages:      messages,
		notifications: notifications,
	}, pool.Close, nil
}

func seedUsers(ctx context.Context, logger *slog.Logger, users user.UserRepository, seed string) error {
	for _, entry := range strings.Split(seed, ",") {
		name, flag, _ := strings.Cut(strings.TrimSpace(entry), ":")
		if name == "" {
			continue
		}
		id, err := users.Create(ctx, name, flag == "staff")
		if err != nil {
			return fmt.Errorf("failed to seed user %q: %w", name, err)
		}
		logger.Info("seeded user", "id", id, "username", name, "staff", flag == "staff")
	}
	return nil
}
