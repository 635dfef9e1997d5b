package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type EventChannelData struct {
	Action string
	Data   []byte
}

type RabbitMQSubscribeListener struct {
	Queue   string
	Channel chan EventChannelData
}

const RabbitMQActionHeader string = "x-action"

const publishTimeout = 5 * time.Second

type RabbitMQ struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	queues     map[string]amqp.Queue
	log        *slog.Logger
	done       chan struct{}
	closeOnce  sync.Once

	// amqp channels do not serialize concurrent publishes.
	publishMu sync.Mutex
}

func RabbitMQConnect(url string, queues []string, log *slog.Logger) (*RabbitMQ, error) {
	// Connect to RabbitMQ server
	connection, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	log.Info("Connection opened to RabbitMQ server")

	// Open a RabbitMQ channel
	channel, err := connection.Channel()
	if err != nil {
		_ = connection.Close()
		return nil, fmt.Errorf("open RabbitMQ channel: %w", err)
	}

	r := &RabbitMQ{
		connection: connection,
		channel:    channel,
		queues:     make(map[string]amqp.Queue, len(queues)),
		log:        log,
		done:       make(chan struct{}),
	}

	// Declare queues
	for _, name := range queues {
		queue, err := channel.QueueDeclare(
			name,  // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("declare RabbitMQ queue %s: %w", name, err)
		}

		r.queues[name] = queue
		log.Info("Declared RabbitMQ queue", "queue", name)
	}

	return r, nil
}

// Subscribe forwards deliveries of every listener queue into its channel.
// A delivery without an action header is rejected and dropped.
func (r *RabbitMQ) Subscribe(listeners []RabbitMQSubscribeListener) error {
	for _, listener := range listeners {
		msgs, err := r.channel.Consume(
			listener.Queue, // queue
			"",             // consumer
			false,          // auto-ack
			false,          // exclusive
			false,          // no-local
			false,          // no-wait
			nil,            // args
		)
		if err != nil {
			return fmt.Errorf("consume RabbitMQ queue %s: %w", listener.Queue, err)
		}
		r.log.Info("Subscribed to RabbitMQ queue", "queue", listener.Queue)

		go forward(msgs, listener, r.done, r.log)
	}
	return nil
}

// forward hands deliveries to the listener and acks each one only once the
// listener took it. Deliveries still pending at shutdown go back to the queue.
func forward(msgs <-chan amqp.Delivery, listener RabbitMQSubscribeListener, done <-chan struct{}, log *slog.Logger) {
	defer close(listener.Channel)
	for msg := range msgs {
		action, ok := msg.Headers[RabbitMQActionHeader].(string)
		if !ok {
			log.Warn("Dropping event without action", "queue", listener.Queue)
			_ = msg.Reject(false)
			continue
		}

		select {
		case listener.Channel <- EventChannelData{Action: action, Data: msg.Body}:
			_ = msg.Ack(false)
		case <-done:
			_ = msg.Nack(false, true)
			return
		}
	}
}

func (r *RabbitMQ) Emit(ctx context.Context, service string, action string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	err := r.channel.PublishWithContext(
		ctx,
		"",      // exchange
		service, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Headers: amqp.Table{
				RabbitMQActionHeader: action,
			},
			Body: data,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", action, service, err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	if err := r.channel.Close(); err != nil {
		r.log.Warn("Closing RabbitMQ channel", "error", err)
	}
	return r.connection.Close()
}
