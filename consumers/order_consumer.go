package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront-service/config"
	"storefront-service/errs"
	"storefront-service/models"
	"storefront-service/store"
)

// StartOrderConsumer consumes order lifecycle events and the dead-letter
// queue. It needs the ledger to act on payment-check events.
func StartOrderConsumer(ch *amqp.Channel, cfg *config.Config, orders *store.OrderStore) {
	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"storefront-service", // consumer tag
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,
	)
	if err != nil {
		log.Fatalf("Failed to register consumer: %v", err)
	}

	go func() {
		for msg := range msgs {
			processOrderMessage(msg, orders)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"storefront-service-dlq", // consumer tag
		false,                    // auto-ack
		false,                    // exclusive
		false,                    // no-local
		false,                    // no-wait
		nil,
	)
	if err != nil {
		log.Printf("Failed to register DLQ consumer: %v", err)
		return
	}

	go func() {
		for msg := range dlqMsgs {
			processDeadLetterMessage(msg)
		}
	}()
}

func processOrderMessage(msg amqp.Delivery, orders *store.OrderStore) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in message processing: %v", r)
		}
	}()

	var event models.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("Invalid event payload: %s", msg.Body)
		_ = msg.Nack(false, false) // reject without requeue, dead-letters
		return
	}

	log.Printf("Processing order event: ID=%d, Type=%s", event.OrderID, event.Type)

	switch event.Type {
	case "created":
		handleOrderCreated(event)
	case "cancelled", "status_updated":
		handleStatusChanged(event, orders)
	case "payment_check":
		handlePaymentCheck(event, orders)
	default:
		log.Printf("Unknown event type: %s", event.Type)
	}

	_ = msg.Ack(false)
}

func processDeadLetterMessage(msg amqp.Delivery) {
	log.Printf("Received dead letter: %s", msg.Body)
	_ = msg.Ack(false)
}

func handleOrderCreated(event models.OrderEvent) {
	// Fulfilment and notification fan-out hang off this event.
	log.Printf("Handling order created: %d", event.OrderID)
}

func handleStatusChanged(event models.OrderEvent, orders *store.OrderStore) {
	order, err := orders.Get(context.Background(), event.OrderID)
	if err != nil {
		log.Printf("Failed to get order %d: %v", event.OrderID, err)
		return
	}

	switch order.Status {
	case models.StatusShipped:
		// shipment notification
	case models.StatusCancelled:
		// refund handling for paid orders
	}
	log.Printf("Handling status change for order %d: %s", event.OrderID, order.Status)
}

// handlePaymentCheck fires a while after checkout. An online-method order
// that is somehow still unpaid and Placed gets cancelled; cash-on-delivery
// orders are left alone.
func handlePaymentCheck(event models.OrderEvent, orders *store.OrderStore) {
	ctx := context.Background()
	order, err := orders.Get(ctx, event.OrderID)
	if err != nil {
		log.Printf("Failed to get order %d: %v", event.OrderID, err)
		return
	}

	if order.PaymentMethod == models.MethodCOD || order.IsPaid || order.Status != models.StatusPlaced {
		return
	}

	if _, err := orders.SetStatus(ctx, order.ID, models.StatusCancelled); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			// Someone else moved the order first; nothing to do.
			return
		}
		log.Printf("Failed to auto-cancel order %d: %v", order.ID, err)
		return
	}
	log.Printf("Auto-cancelled order %d due to missing payment", order.ID)
}
