package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	pubnub "github.com/pubnub/go"
	"go.uber.org/zap"

	"ticket-admin/config"
	"ticket-admin/handlers"
	"ticket-admin/internal/backend"
	"ticket-admin/internal/logger"
	"ticket-admin/monitoring"
	"ticket-admin/security"
	"ticket-admin/services"
	"ticket-admin/utils"
)

func Start() error {
	// Load configuration
	cfg := config.LoadConfig()

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		return err
	}
	defer zap.L().Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Backend API client
	client, err := NewBackendClient(cfg)
	if err != nil {
		return err
	}

	// Initialize services
	sessionService := services.NewSessionService(redisClient, client, cfg.SessionTTL)
	dashboardService := services.NewDashboardService(client)
	ticketService := services.NewTicketService(client, newNotifier(cfg))
	catalogService := services.NewCatalogService(client, cfg.MaxEventImages, cfg.MaxImageSizeMB)

	e := handlers.NewRouter(handlers.Services{
		Sessions:  sessionService,
		Dashboard: dashboardService,
		Tickets:   ticketService,
		Catalog:   catalogService,
	}, handlers.Options{
		SessionTTL:    cfg.SessionTTL,
		SecureCookie:  !cfg.IsDevelopment(),
		EnableMetrics: cfg.EnableMetrics,
		LoginLimiter:  security.NewRateLimiter(redisClient, cfg.LoginRateLimit, time.Minute),
		Health: func(ctx context.Context) error {
			return utils.RedisHealthCheck(ctx, redisClient)
		},
	})

	// Start background tasks
	if cfg.EnableMetrics {
		go monitoring.NewMonitor(redisClient, services.SessionKeyPrefix, 30*time.Second).Run(ctx)
	}

	zap.L().Info("admin server starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("backend", client.BaseURL()),
	)

	sc := echo.StartConfig{
		Address:         ":" + cfg.Port,
		GracefulContext: ctx,
	}
	if err := sc.Start(e); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}

	zap.L().Info("admin server stopped")
	return nil
}

// NewBackendClient builds the API client with its circuit breaker reporting to
// metrics.
func NewBackendClient(cfg *config.Config) (*backend.Client, error) {
	breaker := utils.NewCircuitBreaker(utils.Settings{
		Name:         "backend-api",
		MaxRequests:  cfg.BreakerMaxRequests,
		Interval:     cfg.BreakerInterval,
		Timeout:      cfg.BreakerTimeout,
		FailureRatio: cfg.BreakerFailureRatio,
		OnStateChange: func(name string, from, to utils.State) {
			zap.L().Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
			monitoring.SetBreakerState(name, int(to))
		},
	})

	return backend.New(backend.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Breaker: breaker,
	})
}

// newNotifier publishes ticket changes on PubNub when keys are configured.
func newNotifier(cfg *config.Config) services.Notifier {
	if cfg.PubNubPublishKey == "" || cfg.PubNubSubscribeKey == "" {
		zap.L().Info("pubnub keys not set, ticket change notifications disabled")
		return services.NopNotifier{}
	}

	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	return services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig), cfg.AdminChannel)
}
