package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Top-Pesinde/backend-sub001/block"
	"github.com/Top-Pesinde/backend-sub001/cache"
	"github.com/Top-Pesinde/backend-sub001/chat"
	"github.com/Top-Pesinde/backend-sub001/config"
	"github.com/Top-Pesinde/backend-sub001/controller"
	"github.com/Top-Pesinde/backend-sub001/database"
	"github.com/Top-Pesinde/backend-sub001/event"
	"github.com/Top-Pesinde/backend-sub001/event/listener"
	"github.com/Top-Pesinde/backend-sub001/notify"
	"github.com/Top-Pesinde/backend-sub001/repository"
	"github.com/Top-Pesinde/backend-sub001/router"
	"github.com/Top-Pesinde/backend-sub001/session"
	"github.com/Top-Pesinde/backend-sub001/socketio"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/mama165/sdk-go/logs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "messenger-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// Storage
	db, err := database.PostgresConnect(cfg, log)
	if err != nil {
		return err
	}

	redis, err := database.RedisConnect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = redis.Close() }()

	enforcer, err := database.Casbin(db, cfg.CasbinModel)
	if err != nil {
		return err
	}

	rabbit, err := event.RabbitMQConnect(cfg.RabbitMQURL(), []string{
		// Connect to queues
		"api",
		notify.PushQueue,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = rabbit.Close() }()

	users := repository.NewUserRepository(db)
	bans := repository.NewBanRepository(db)
	messages := repository.NewMessageRepository(db)

	// Sessions
	issuer := utils.NewTokenIssuer(cfg.JWTAccessKey, cfg.JWTRefreshKey, cfg.AccessTTL(), cfg.RefreshTTL())
	sessions := session.NewManager(repository.NewSessionRepository(db), issuer, cfg.SessionTTL, cfg.SessionStaleAfter, log)

	// Run "api" listener
	api := listener.NewApi(bans, sessions, log)
	if err := rabbit.Subscribe([]event.RabbitMQSubscribeListener{
		{
			Queue:   "api",
			Channel: api.Channel,
		},
	}); err != nil {
		return err
	}
	go api.Run(ctx)

	// Messaging
	escalator := notify.NewEscalator(
		notify.Options{
			Delay:    cfg.EscalationDelay,
			Cooldown: cfg.EscalationCooldown,
			Tick:     cfg.EscalationTick,
		},
		notify.NewQueueGateway(rabbit),
		messages,
		users,
		log,
	)
	defer escalator.Stop()

	unread := cache.NewUnread(redis.Cache, messages.CountUnread, cfg.UnreadCacheTTL, log)
	guard := block.NewGuard(repository.NewBlockRepository(db), bans, users)

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "messenger-service",
	})
	rest.Use(cors.New())

	socket := socketio.Init(rest, redis.Adapter, issuer, log)
	defer socket.Close()

	chatService := chat.NewService(
		repository.NewConversationRepository(db),
		messages,
		guard,
		unread,
		escalator,
		socket,
		log,
	)

	router.Rest(rest, router.RestDeps{
		Controller: controller.New(controller.Deps{
			Users:        users,
			Bans:         bans,
			Sessions:     sessions,
			Chat:         chatService,
			Blocks:       guard,
			Roles:        enforcer,
			OtpIssuer:    cfg.OtpIssuer,
			PasswordCost: cfg.PasswordCost,
			Log:          log,
		}),
		AccessKey: issuer.AccessKey(),
		Sessions:  sessions,
		Enforcer:  enforcer,
	})
	router.Socket(socket, chat.NewHandler(chatService, log), log)

	// Session sweeps
	sweeper := session.NewSweeper(sessions, cfg.SweepInterval, cfg.CleanupInterval, log)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx)
	}()

	errChan := make(chan error, 1)
	go func() {
		address := fmt.Sprintf(":%s", cfg.ServerPort)
		log.Info("Starting HTTP server", "address", address)
		if err := rest.Listen(address); err != nil {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		stop()
		<-sweepDone
		return err
	}

	if err := rest.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Warn("HTTP shutdown", "error", err)
	}
	<-sweepDone
	log.Info("Program stopped cleanly")
	return nil
}
