package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/book-inventory/inventory/config"
	"github.com/Astemirdum/book-inventory/inventory/internal/events"
	"github.com/Astemirdum/book-inventory/inventory/internal/handler"
	"github.com/Astemirdum/book-inventory/inventory/internal/repository"
	"github.com/Astemirdum/book-inventory/inventory/internal/server"
	"github.com/Astemirdum/book-inventory/inventory/internal/service"
	"github.com/Astemirdum/book-inventory/inventory/migrations"
	"github.com/Astemirdum/book-inventory/pkg/circuit_breaker"
	"github.com/Astemirdum/book-inventory/pkg/kafka"
	"github.com/Astemirdum/book-inventory/pkg/logger"
	"github.com/Astemirdum/book-inventory/pkg/postgres"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type publisher interface {
	service.Publisher
	Close() error
}

func Run(cfg *config.Config) error {
	log, err := logger.NewLogger(cfg.Log, "inventory")
	if err != nil {
		return fmt.Errorf("logger %w", err)
	}
	defer log.Sync() //nolint:errcheck

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %w", err)
	}
	defer db.Close()

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo %w", err)
	}

	pub, err := newPublisher(cfg, log)
	if err != nil {
		return fmt.Errorf("publisher %w", err)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Error("publisher close", zap.Error(err))
		}
	}()

	svc := service.NewService(repo, pub, log)
	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr",
				net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(ctx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server", zap.Error(err))
		return err
	}
	log.Info("Graceful shutdown finished")
	return nil
}

func newPublisher(cfg *config.Config, log *zap.Logger) (publisher, error) {
	if !cfg.Kafka.Enabled() {
		log.Info("kafka is not configured, book events are disabled")
		return events.NoopPublisher{}, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("kafka.NewProducer %w", err)
	}
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = kafka.BooksTopic
	}
	return events.NewKafkaPublisher(producer, topic, circuit_breaker.New(cfg.CircuitBreaker), log), nil
}
