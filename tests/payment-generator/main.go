package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publishes synthetic payment gateway events so the consumer can be exercised
// against a local broker. Order ids are random, so most events resolve to
// "order not found" and land in the DLQ.

type PaymentEvent struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
}

func randomString(n int) string {
	letters := []rune("abcdefghijklmnopqrstuvwxyz0123456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func generateRandomEvent() PaymentEvent {
	status := "succeeded"
	if rand.Intn(5) == 0 {
		status = "failed"
	}
	return PaymentEvent{
		OrderID:    randomString(16),
		CustomerID: fmt.Sprintf("customer-%d", rand.Intn(100)),
		Status:     status,
	}
}

func main() {
	addr := kafka.TCP("localhost:9092")

	writer := &kafka.Writer{
		Addr:  addr,
		Topic: "payment-events",
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ticker := time.NewTicker(2 * time.Second)
	for {
		select {
		case <-ticker.C:
			event := generateRandomEvent()
			data, _ := json.Marshal(event)
			writer.WriteMessages(context.Background(), kafka.Message{Value: data, Key: []byte(event.OrderID)})
			log.Println("payment event published", event.OrderID, event.Status)
		case <-ctx.Done():
			return
		}
	}
}
