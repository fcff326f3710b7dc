// Package consumer drains the review event stream into user memory.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/austiecodes/curator/internal/config"
	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/metrics"
	"github.com/austiecodes/curator/internal/retry"
)

const handlerName = "review-memory"

// ReviewRecorder stores one review synchronously.
type ReviewRecorder interface {
	RecordReview(ctx context.Context, in retrieval.ReviewInput) error
}

// Handler turns activity messages into review memories.
type Handler struct {
	reviews ReviewRecorder
	log     zerolog.Logger
}

// NewHandler returns a handler that stores reviews through reviews.
func NewHandler(reviews ReviewRecorder) *Handler {
	return &Handler{reviews: reviews, log: logging.WithComponent("consumer")}
}

// Handle is a watermill NoPublishHandlerFunc. Invalid payloads return nil so
// the router acks them; store failures are returned for retry.
func (h *Handler) Handle(msg *message.Message) error {
	ev, err := ParseEvent(msg.Payload)
	if err != nil {
		h.log.Warn().Err(err).
			Str("message_uuid", msg.UUID).
			Str("payload", truncate(string(msg.Payload), 256)).
			Msg("discarding activity event")
		metrics.ConsumerEvents.WithLabelValues("discarded").Inc()
		return nil
	}

	in := ev.Review()
	h.log.Info().Str("user_id", in.UserID).Str("content_id", ev.Content()).Msg("received activity event")

	if err := h.reviews.RecordReview(msg.Context(), in); err != nil {
		metrics.ConsumerEvents.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to store review for user %s: %w", in.UserID, err)
	}
	metrics.ConsumerEvents.WithLabelValues("stored").Inc()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Consumer runs the JetStream subscription under a watermill router.
type Consumer struct {
	cfg     config.NATSConfig
	handler *Handler
	logger  watermill.LoggerAdapter
	log     zerolog.Logger
}

// New builds a consumer for cfg. Nothing connects until Serve.
func New(cfg config.NATSConfig, reviews ReviewRecorder) *Consumer {
	return &Consumer{
		cfg:     cfg,
		handler: NewHandler(reviews),
		logger:  watermill.NewSlogLogger(logging.NewSlogLogger("watermill")),
		log:     logging.WithComponent("consumer"),
	}
}

func (c *Consumer) String() string { return "review-consumer" }

// Probe connects once to the broker, retrying with backoff, so a bad URL
// fails at startup instead of inside the subscriber's reconnect loop.
func (c *Consumer) Probe(ctx context.Context) error {
	return retry.Do(ctx, retry.Config{
		MaxAttempts:  c.cfg.ConnectAttempts,
		InitialDelay: c.cfg.ConnectDelay,
		MaxDelay:     30 * time.Second,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.log.Warn().Err(err).
				Int("attempt", attempt).
				Int("max_attempts", c.cfg.ConnectAttempts).
				Dur("delay", delay).
				Msg("broker connection failed")
		},
	}, func(ctx context.Context) error {
		nc, err := natsgo.Connect(c.cfg.URL, natsgo.Timeout(5*time.Second))
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
		}
		nc.Close()
		return nil
	})
}

func (c *Consumer) subscriber() (message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(c.cfg.ConnectDelay),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				c.log.Warn().Err(err).Msg("subscriber disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			c.log.Info().Str("url", nc.ConnectedUrl()).Msg("subscriber reconnected")
		}),
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              c.cfg.URL,
		QueueGroupPrefix: c.cfg.QueueGroup,
		SubscribersCount: c.cfg.SubscribersCount,
		AckWaitTimeout:   c.cfg.AckWait,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxDeliver(c.cfg.MaxDeliver),
				natsgo.AckWait(c.cfg.AckWait),
				natsgo.DeliverNew(),
			},
			DurablePrefix: c.cfg.DurableName,
		},
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriber: %w", err)
	}
	return sub, nil
}

// Router wires the handler with panic recovery and retry middleware.
func (c *Consumer) Router(sub message.Subscriber) (*message.Router, error) {
	r, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	r.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      c.cfg.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
			Multiplier:      2,
			Logger:          c.logger,
		}.Middleware,
	)
	r.AddConsumerHandler(handlerName, c.cfg.Subject, sub, c.handler.Handle)
	return r, nil
}

// Serve blocks until ctx ends. It satisfies suture.Service.
func (c *Consumer) Serve(ctx context.Context) error {
	if err := c.Probe(ctx); err != nil {
		return fmt.Errorf("failed to reach broker: %w", err)
	}

	sub, err := c.subscriber()
	if err != nil {
		return err
	}
	defer sub.Close()

	r, err := c.Router(sub)
	if err != nil {
		return err
	}

	c.log.Info().Str("subject", c.cfg.Subject).Str("queue_group", c.cfg.QueueGroup).Msg("waiting for activity events")
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consumer router stopped: %w", err)
	}
	return ctx.Err()
}
