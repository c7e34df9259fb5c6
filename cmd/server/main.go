package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trogers1052/ticker-watch/internal/api"
	"github.com/trogers1052/ticker-watch/internal/broker"
	"github.com/trogers1052/ticker-watch/internal/config"
	"github.com/trogers1052/ticker-watch/internal/database"
	"github.com/trogers1052/ticker-watch/internal/kafka"
	"github.com/trogers1052/ticker-watch/internal/provider"
	"github.com/trogers1052/ticker-watch/internal/scheduler"
	"github.com/trogers1052/ticker-watch/internal/tasks"
)

func main() {
	cfg := config.Load()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	notifier, err := broker.NewNotifier(rootCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer notifier.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	gw := provider.New(
		provider.WithBaseURL(cfg.Provider.BaseURL),
		provider.WithClient(&http.Client{Timeout: cfg.Provider.Timeout}),
	)

	sched := scheduler.New(db, cfg.Scheduler)
	sched.SetPublisher(producer)
	sched.SetNotifier(notifier)
	sched.Register(tasks.JobSnapshot, tasks.NewSnapshot(db, gw).Handle)
	sched.Register(tasks.JobEarnings, tasks.NewEarnings(db, gw).Handle)
	sched.Register(tasks.JobPing, tasks.Ping)

	chainer := kafka.NewChainer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, sched, tasks.Chain())

	// Re-queue jobs interrupted by a previous process.
	if err := sched.Recover(rootCtx); err != nil {
		log.Printf("failed to recover stale jobs: %v", err)
	}

	handler := api.NewHandler(db, sched)
	router := api.SetupRoutes(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
		BaseContext: func(net.Listener) context.Context {
			return rootCtx
		},
	}

	g, gCtx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		sched.Run(gCtx)
		return nil
	})

	g.Go(func() error {
		return chainer.Start(gCtx)
	})

	g.Go(func() error {
		return notifier.Listen(gCtx, sched.Wake)
	})

	g.Go(func() error {
		log.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server stopped")
}
