package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"ventasWs/internal/config"
	inventory "ventasWs/internal/modules/inventory/domain"
	inventoryinfra "ventasWs/internal/modules/inventory/infrastructure"
	inventoryhttp "ventasWs/internal/modules/inventory/interface"
	handler "ventasWs/internal/modules/realtime/application/handler"
	"ventasWs/internal/modules/realtime/application/port"
	usecase "ventasWs/internal/modules/realtime/application/usecase"
	"ventasWs/internal/modules/realtime/domain"
	"ventasWs/internal/modules/realtime/infrastructure"
	transport "ventasWs/internal/modules/realtime/interface"
	"ventasWs/internal/platform/broker"
	"ventasWs/internal/platform/db"
	"ventasWs/internal/platform/redisbus"
	"ventasWs/internal/shared/logging"
)

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, _, err := logging.SetupDaily(cfg.Logging.Directory, logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	origin := uuid.NewString()
	hub := infrastructure.NewHub(cfg.Websocket.DefaultGroup)
	defer hub.Close()

	repos, closeDB, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB()

	g, gctx := errgroup.WithContext(ctx)

	publisher, closeRelay, err := startRelay(gctx, g, cfg, hub, origin)
	if err != nil {
		return err
	}
	defer closeRelay()
	notifier := usecase.NewChangeNotifier(publisher, cfg.Websocket.DefaultGroup)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())

	ws := transport.NewWebsocketHandler(hub, transport.WebsocketOptions{
		SendBuffer: cfg.Websocket.SendBuffer,
		ReadLimit:  cfg.Websocket.ReadLimit,
	})
	e.GET("/ws", ws)
	e.GET("/ws/:group", ws)
	e.GET("/healthz", transport.NewHealthHandler(hub))

	api := e.Group("/api")
	api.POST("/realtime/broadcast", transport.NewBroadcastHTTPHandler(notifier))
	inventoryhttp.Register(api, repos, notifier)

	g.Go(func() error {
		slog.Info("http server listening", slog.String("port", cfg.Server.Port), slog.String("instance", origin))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		hub.Close()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openRepositories picks gorm when a DSN is configured and the in-memory store otherwise.
func openRepositories(ctx context.Context, cfg config.DatabaseConfig) (*inventoryinfra.Repositories, func(), error) {
	if cfg.DSN == "" {
		slog.Warn("DB_DSN not set, records are kept in memory")
		return inventoryinfra.NewMemoryRepositories(), func() {}, nil
	}
	database, err := db.Connect(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := database.Close(); err != nil {
			slog.Warn("database close failed", slog.Any("error", err))
		}
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(inventory.Models()...); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	repos, err := inventoryinfra.NewGormRepositories(database.DB)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	slog.Info("database connected", slog.String("driver", cfg.Driver))
	return repos, closeDB, nil
}

// startRelay wires the cross-instance bus. The returned publisher fans every
// change out to the local hub and, when a relay is configured, to the bus;
// envelopes read back from the bus are replayed into the local hub.
func startRelay(ctx context.Context, g *errgroup.Group, cfg *config.Config, hub *infrastructure.Hub, origin string) (port.Publisher, func(), error) {
	broadcastUC := usecase.NewBroadcastUseCase(hub)
	allowed := []string{domain.EventEntityChanged}

	switch cfg.Relay.Driver {
	case config.RelayKafka:
		producer := broker.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, origin)
		registry := infrastructure.NewHandlerRegistry()
		registry.Register(handler.NewRelayStreamHandler(cfg.Kafka.Topic, origin, allowed, broadcastUC))
		// Every instance must see every change, so each one consumes with its own group.
		groupID := cfg.Kafka.GroupID + "-" + origin
		g.Go(func() error {
			broker.StartKafkaConsumers(ctx, registry, cfg.Kafka.Brokers, groupID)
			return nil
		})
		slog.Info("kafka relay enabled", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("topic", cfg.Kafka.Topic), slog.String("groupId", groupID))
		closeRelay := func() {
			if err := producer.Close(); err != nil {
				slog.Warn("kafka producer close failed", slog.Any("error", err))
			}
		}
		return infrastructure.NewRelayPublisher(hub, producer), closeRelay, nil

	case config.RelayRedis:
		bus, err := redisbus.Connect(ctx, redisbus.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		}, origin)
		if err != nil {
			return nil, nil, err
		}
		stream := handler.NewRelayStreamHandler(bus.Channel(), origin, allowed, broadcastUC)
		g.Go(func() error {
			return bus.Consume(ctx, func(env *domain.RelayEnvelope) error {
				return stream.Handle(ctx, env)
			})
		})
		slog.Info("redis relay enabled", slog.String("addr", cfg.Redis.Addr), slog.String("channel", bus.Channel()))
		closeRelay := func() {
			if err := bus.Close(); err != nil {
				slog.Warn("redis close failed", slog.Any("error", err))
			}
		}
		return infrastructure.NewRelayPublisher(hub, bus), closeRelay, nil

	default:
		return hub, func() {}, nil
	}
}
