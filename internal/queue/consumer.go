package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/courtside/league-night/internal/push"
)

// StartDispatchConsumer connects to RabbitMQ, declares the durable
// notify.dispatch queue, and consumes events, handing each one to the
// push dispatcher.  It runs a reconnect loop with capped backoff and
// keeps running through processing errors, rejecting the offending
// message without requeue so a poison message cannot wedge the queue.
func StartDispatchConsumer(dispatcher *push.Dispatcher) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, dispatcher); err != nil {
			log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, dispatcher *push.Dispatcher) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notify-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(dispatchQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(dispatchQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, dispatcher); err != nil {
			log.Printf("notify-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handleMessage renders the event's template and dispatches it.  Only
// undecodable or unknown-kind messages count as handling failures;
// delivery failures are already logged and absorbed by the dispatcher.
func handleMessage(body []byte, dispatcher *push.Dispatcher) error {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	n, ok := ev.Notification()
	if !ok {
		return fmt.Errorf("unknown notification kind %q", ev.Kind)
	}
	if len(ev.UserIDs) == 0 {
		return nil
	}
	res := dispatcher.SendToUsers(context.Background(), ev.UserIDs, n)
	log.Printf("notify-consumer: %s instance=%d recipients=%d delivered=%d failed=%d",
		ev.Kind, ev.InstanceID, len(ev.UserIDs), res.Delivered, res.Failed)
	return nil
}
