package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/iwtcode/conveyorControl"
	"github.com/iwtcode/conveyorControl/internal/domain"
	"github.com/iwtcode/conveyorControl/internal/domain/models"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type outcome int

const (
	outcomeCounted outcome = iota
	outcomeRefused
	outcomeInvalid
	outcomeFailed
)

type productionConsumer struct {
	reader     MessageReader
	control    interfaces.ControlUsecase
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewProductionConsumer returns nil when no Kafka brokers are configured.
func NewProductionConsumer(cfg *conveyorControl.Config, control interfaces.ControlUsecase, logger *zap.Logger) interfaces.ProductionConsumer {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka brokers not configured, production consumer disabled")
		return nil
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaProductionTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       1e6, // 1MB
		MaxWait:        time.Second,
		CommitInterval: 0, // synchronous commits
	})
	return NewProductionConsumerWithReader(reader, control, cfg.KafkaMaxRetries, 200*time.Millisecond, logger)
}

func NewProductionConsumerWithReader(reader MessageReader, control interfaces.ControlUsecase, maxRetries int, backoff time.Duration, logger *zap.Logger) interfaces.ProductionConsumer {
	return &productionConsumer{
		reader:     reader,
		control:    control,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger.Named("kafka"),
	}
}

func (c *productionConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("fetch production event: %w", err)
		}

		c.handle(ctx, msg)

		// Every outcome is final for this message, so it is always committed.
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("failed to commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (c *productionConsumer) Close() error {
	return c.reader.Close()
}

func (c *productionConsumer) handle(ctx context.Context, msg kafka.Message) outcome {
	log := c.logger.With(zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))

	ev, err := models.DecodeProductionEvent(msg.Key, msg.Value)
	if err != nil {
		log.Warn("skipping malformed production event", zap.Error(err))
		return outcomeInvalid
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	log = log.With(zap.String("event_id", ev.EventID), zap.String("car_model", ev.CarModel))

	for attempt := 0; ; attempt++ {
		count, err := c.control.ReportProduction(ctx, ev.CarModel)
		switch {
		case err == nil:
			log.Debug("production counted", zap.Int64("count", count))
			return outcomeCounted
		case errors.Is(err, domain.ErrLineNotRunning):
			log.Warn("production event refused", zap.Error(err))
			return outcomeRefused
		case errors.Is(err, domain.ErrInvalidCarModel):
			log.Warn("skipping production event", zap.Error(err))
			return outcomeInvalid
		case !errors.Is(err, domain.ErrPersistence) || attempt >= c.maxRetries:
			log.Error("production event dropped", zap.Int("attempts", attempt+1), zap.Error(err))
			return outcomeFailed
		}

		select {
		case <-ctx.Done():
			return outcomeFailed
		case <-time.After(c.backoff * time.Duration(attempt+1)):
		}
	}
}
