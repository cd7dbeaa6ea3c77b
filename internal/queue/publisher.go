package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Queue names used on the broker. Both queues are durable so events
// survive broker restarts.
const (
    ConfirmedQueue = "reservation.confirmed"
    CanceledQueue  = "reservation.canceled"
)

// Publisher sends domain events to RabbitMQ. A Publisher constructed with
// an empty URL is disabled and every publish is a no-op, so callers never
// need to branch on whether a broker is configured. Publish errors are
// logged and returned; the protocol layer ignores them, the same policy
// applied to flat-file persistence failures.
type Publisher struct {
    url string
    log *zap.Logger
}

// NewPublisher returns a Publisher targeting the given AMQP URL. An empty
// URL yields a disabled publisher.
func NewPublisher(url string, log *zap.Logger) *Publisher {
    return &Publisher{url: url, log: log}
}

// Enabled reports whether a broker URL is configured.
func (p *Publisher) Enabled() bool { return p.url != "" }

// ReservationConfirmed publishes ev to the reservation.confirmed queue.
func (p *Publisher) ReservationConfirmed(ctx context.Context, ev ReservationConfirmedEvent) error {
    return p.publish(ctx, ConfirmedQueue, ev)
}

// ReservationCanceled publishes ev to the reservation.canceled queue.
func (p *Publisher) ReservationCanceled(ctx context.Context, ev ReservationCanceledEvent) error {
    return p.publish(ctx, CanceledQueue, ev)
}

// publish dials the broker, declares the queue (idempotent) and sends one
// persistent JSON message. The connection is short-lived on purpose:
// events are rare at this system's scale and a cached channel would be
// one more thing to reconnect.
func (p *Publisher) publish(ctx context.Context, queueName string, payload any) error {
    if !p.Enabled() {
        return nil
    }
    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Warn("rabbitmq dial failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq channel open failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        queueName,
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        p.log.Warn("rabbitmq queue declare failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }

    body, err := json.Marshal(payload)
    if err != nil {
        p.log.Warn("marshal event failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        p.log.Warn("rabbitmq publish failed", zap.String("queue", queueName), zap.Error(err))
        return err
    }
    return nil
}
