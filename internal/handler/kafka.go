package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mbalabaev/food-order-service/internal/config"
	"github.com/mbalabaev/food-order-service/internal/entities"
	"github.com/mbalabaev/food-order-service/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
)

type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID, actorID string) (entities.Order, error)
	FailPayment(ctx context.Context, orderID string) error
}

// PaymentEvent is what the payment gateway publishes after resolving an
// intent. Confirmation reuses the same idempotent update as the HTTP
// payment-completed endpoint, so gateway redeliveries are harmless.
type PaymentEvent struct {
	OrderID    string `json:"order_id" validate:"required"`
	CustomerID string `json:"customer_id" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=succeeded failed"`
}

type kafkaHandler struct {
	dlq      *kafka.Writer
	reader   *kafka.Reader
	logger   *slog.Logger
	validate *validator.Validate
	payments PaymentConfirmer
}

func NewKafkaHandler(logger *slog.Logger, cfg config.Kafka, payments PaymentConfirmer) *kafkaHandler {
	return &kafkaHandler{
		logger: logger.With(slog.String("handler", "kafka")),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   cfg.PaymentEventsTopic,
			MaxWait: cfg.ReaderMaxWait,
		}),
		dlq: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
		validate: validator.New(),
		payments: payments,
	}
}

func (h *kafkaHandler) Consume(ctx context.Context) {
	for {
		m, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			}
			h.logger.Error("failed to fetch message", slog.Any("error", err))
			continue
		}

		if err := h.handlePaymentEvent(ctx, m); err != nil {
			h.logger.Error("failed to handle payment event", slog.Any("error", err))

			if err := h.writeToDLQ(ctx, m); err != nil {
				h.logger.Error("failed to write message to DLQ", slog.Any("error", err))
				continue
			}
		}

		if err := h.reader.CommitMessages(ctx, m); err != nil {
			h.logger.Error("failed to commit message", slog.Any("error", err))
		}
	}
}

func (h *kafkaHandler) handlePaymentEvent(ctx context.Context, m kafka.Message) error {
	var event PaymentEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal payment event: %w", err)
	}
	if err := h.validate.Struct(event); err != nil {
		return fmt.Errorf("invalid payment event: %w", err)
	}

	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  5,
		Multiplier:   2,
	}

	switch event.Status {
	case "succeeded":
		fn := func() error {
			_, err := h.payments.ConfirmPayment(ctx, event.OrderID, event.CustomerID)
			return err
		}
		return utils.Retry(cfg, fn, entities.ErrOrderNotFound, entities.ErrUnauthorized)
	case "failed":
		fn := func() error {
			return h.payments.FailPayment(ctx, event.OrderID)
		}
		return utils.Retry(cfg, fn, entities.ErrOrderNotFound)
	}
	return nil
}

func (h *kafkaHandler) writeToDLQ(ctx context.Context, m kafka.Message) error {
	m.Topic = fmt.Sprintf("%s-dlq", m.Topic)
	return h.dlq.WriteMessages(ctx, m)
}

func (h *kafkaHandler) Close() error {
	if err := h.reader.Close(); err != nil {
		return err
	}
	return h.dlq.Close()
}
