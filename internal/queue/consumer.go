package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// StartAuditConsumer connects to RabbitMQ, declares both reservation
// queues, and appends every event to an audit log file under dir. It runs
// a reconnect loop with exponential backoff and never returns under
// normal operation; the caller runs it on its own goroutine. Bad messages
// are rejected without requeue so a poison message cannot spin the loop.
func StartAuditConsumer(url, dir string, log *zap.Logger) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn("audit consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        if err := consumeLoop(conn, dir, log); err != nil {
            log.Warn("audit consume loop ended, reconnecting", zap.Error(err))
            _ = conn.Close()
            time.Sleep(2 * time.Second)
        }
    }
}

func consumeLoop(conn *amqp.Connection, dir string, log *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    for _, q := range []string{ConfirmedQueue, CanceledQueue} {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
    }

    confirmed, err := ch.Consume(ConfirmedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", ConfirmedQueue, err)
    }
    canceled, err := ch.Consume(CanceledQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", CanceledQueue, err)
    }

    for {
        select {
        case d, ok := <-confirmed:
            if !ok {
                return errors.New("confirmed deliveries channel closed")
            }
            handleDelivery(d, dir, "CONFIRMED", log)
        case d, ok := <-canceled:
            if !ok {
                return errors.New("canceled deliveries channel closed")
            }
            handleDelivery(d, dir, "CANCELED", log)
        }
    }
}

func handleDelivery(d amqp.Delivery, dir, kind string, log *zap.Logger) {
    if err := appendAuditLine(d.Body, dir, kind); err != nil {
        log.Warn("audit write failed", zap.String("kind", kind), zap.Error(err))
        _ = d.Nack(false, false) // do not requeue, avoids a tight redelivery loop
        return
    }
    _ = d.Ack(false)
}

// appendAuditLine writes one human-readable line per event to audit.log.
func appendAuditLine(body []byte, dir, kind string) error {
    var fields map[string]any
    if err := json.Unmarshal(body, &fields); err != nil {
        return fmt.Errorf("unmarshal event: %w", err)
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir audit dir: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "audit.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open audit log: %w", err)
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] %s | reservation_id=%v | user=%v | room=%v | start_day=%v | nights=%v\n",
        time.Now().UTC().Format(time.RFC3339), kind,
        fields["reservation_id"], fields["username"], fields["room_id"],
        fields["start_day"], fields["nights"])
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write audit log: %w", err)
    }
    return nil
}
