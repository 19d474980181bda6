package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher delivers domain events to RabbitMQ. Publishing is best-effort:
// errors are logged and returned so callers can ignore failures without
// interrupting the request that produced the event.
type Publisher struct {
	url string
}

// NewPublisher creates a Publisher for the given AMQP URL. An empty URL
// yields a disabled publisher whose Publish calls are no-ops.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Enabled reports whether a broker URL is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.url != ""
}

// PublishCheckoutCompleted publishes a CheckoutCompletedEvent to the durable
// checkout queue. Messages are marked persistent so they survive broker
// restarts.
func (p *Publisher) PublishCheckoutCompleted(ctx context.Context, event CheckoutCompletedEvent) error {
	if !p.Enabled() {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent).
	if _, err := ch.QueueDeclare(
		CheckoutQueue, // name
		true,          // durable
		false,         // autoDelete
		false,         // exclusive
		false,         // noWait
		nil,           // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",            // default exchange
		CheckoutQueue, // routing key = queue name
		false,         // mandatory
		false,         // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
