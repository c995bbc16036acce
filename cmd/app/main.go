package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hallslot/internal/booking"
	"hallslot/internal/config"
	"hallslot/internal/db"
	"hallslot/internal/department"
	"hallslot/internal/email"
	"hallslot/internal/events"
	"hallslot/internal/hall"
	"hallslot/internal/logger"
	"hallslot/internal/notify"
	"hallslot/internal/server"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const queueGaugeSchedule = "@every 15s"

func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.LogLevel)
	logger.Info("Starting HallSlot application")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Connecting to database...")
	connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
	database, err := db.Connect(connectCtx, cfg.DatabaseURL)
	connectCancel()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("Redis unreachable at %s: %v", cfg.RedisAddr, err)
	}

	var locker booking.HallLocker
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		locker = booking.NewRedisLocker(rdb, cfg.LockTTL)
	default:
		locker = booking.NewKeyedLocker()
	}
	logger.Info("Hall locks ready", "backend", cfg.LockBackend)

	bookingService := booking.NewService(
		booking.NewRepository(database),
		booking.NewValidator(cfg.EmailDomain),
		locker,
	)
	hallService := hall.NewService(hall.NewRepository(database), cfg.EmailDomain)
	departmentService := department.NewService(department.NewRepository(database))

	emailService := email.New(rdb, email.SMTPConfig{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
	})
	go emailService.Start(ctx)
	logger.Info("Email service initialized")

	scheduler, err := startScheduler(ctx, emailService)
	if err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	var publisher notify.EventPublisher
	if cfg.AMQPURL != "" {
		p, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer p.Close()
		publisher = p
		logger.Info("Event publisher connected", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP_URL not set, booking events are not published")
	}

	dispatcher := notify.NewDispatcher(emailService, hallService, publisher)

	srv := server.New(cfg, server.Deps{
		Bookings:    bookingService,
		Notifier:    dispatcher,
		Halls:       hallService,
		Departments: departmentService,
		Mail:        emailService,
		Pinger:      database,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	<-scheduler.Stop().Done()
	dispatcher.Wait()
	cancel()

	logger.Info("Server stopped")
}

// startScheduler refreshes the email queue gauge on a fixed interval.
func startScheduler(ctx context.Context, svc *email.Service) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(queueGaugeSchedule, func() {
		svc.QueueLength(ctx)
	}); err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("Scheduler started", "queue_gauge", queueGaugeSchedule)
	return c, nil
}
