package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mbalabaev/food-order-service/internal/config"
	"github.com/mbalabaev/food-order-service/internal/entities"

	"github.com/segmentio/kafka-go"
)

// Event is the message published for the notification service to render and
// deliver. The order fields are a snapshot taken at dispatch time.
type Event struct {
	Kind           entities.NotificationKind `json:"kind"`
	OrderID        string                    `json:"order_id"`
	CustomerID     string                    `json:"customer_id"`
	RestaurantID   string                    `json:"restaurant_id"`
	RestaurantName string                    `json:"restaurant_name"`
	Status         string                    `json:"status"`
	TotalAmount    float64                   `json:"total_amount"`
	Contact        Contact                   `json:"contact"`
	OccurredAt     time.Time                 `json:"occurred_at"`
}

type kafkaDispatcher struct {
	logger   *slog.Logger
	writer   *kafka.Writer
	contacts ContactLookup
}

// NewKafkaDispatcher publishes notification events to the notifications
// topic. Delivery to the customer is fire-and-forget from the coordinator's
// point of view; the notification service consumes the topic on its own time.
func NewKafkaDispatcher(logger *slog.Logger, cfg config.Kafka, contacts ContactLookup) *kafkaDispatcher {
	return &kafkaDispatcher{
		logger: logger.With(slog.String("notifier", "kafka")),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.NotificationsTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
		contacts: contacts,
	}
}

func (d *kafkaDispatcher) Notify(ctx context.Context, kind entities.NotificationKind, order entities.Order) error {
	contact, err := d.recipient(ctx, kind, order)
	if err != nil {
		return err
	}

	event := Event{
		Kind:           kind,
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		RestaurantID:   order.RestaurantID,
		RestaurantName: order.RestaurantName,
		Status:         string(order.Status),
		TotalAmount:    order.TotalAmount,
		Contact:        contact,
		OccurredAt:     time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	d.logger.DebugContext(ctx, "notification dispatched",
		slog.String("order_id", order.ID), slog.String("kind", string(kind)))
	return nil
}

func (d *kafkaDispatcher) recipient(ctx context.Context, kind entities.NotificationKind, order entities.Order) (Contact, error) {
	if kind == entities.KindRestaurantNewOrder {
		return d.contacts.RestaurantContact(ctx, order.RestaurantID)
	}
	return d.contacts.CustomerContact(ctx, order.CustomerID)
}

func (d *kafkaDispatcher) Close() error {
	return d.writer.Close()
}
