package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TransactionEvent announces a confirmed transaction and the addresses whose cached state it
// may have changed.
type TransactionEvent struct {
	Source          string    `json:"source"`
	Digest          string    `json:"digest"`
	Action          string    `json:"action"`
	Addresses       []string  `json:"addresses"`
	CreatedObjectID string    `json:"created_object_id,omitempty"`
	SentAt          time.Time `json:"sent_at"`
}

// TransactionEventHandler consumes events.
type TransactionEventHandler func(event TransactionEvent)

// TransactionEventBus fans transaction events out to local handlers and to other nodes.
type TransactionEventBus interface {
	Publish(ctx context.Context, event TransactionEvent) error
	Subscribe(handler TransactionEventHandler)
	Start(ctx context.Context)
}

type transactionEventBus struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string

	mu       sync.RWMutex
	handlers []TransactionEventHandler
}

// NewTransactionEventBus builds a bus publishing on channelBase. Either broker may be nil; local
// handlers always run.
func NewTransactionEventBus(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) TransactionEventBus {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":transactions"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".transactions"
	}

	return &transactionEventBus{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "transaction_event_bus").Logger(),
		nodeID:       uuid.NewString(),
	}
}

func (b *transactionEventBus) Subscribe(handler TransactionEventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

func (b *transactionEventBus) Start(ctx context.Context) {
	if b.redis != nil && b.redisChannel != "" {
		go b.consumeRedis(ctx)
	}
	if b.nats != nil && b.natsSubject != "" {
		go b.consumeNATS(ctx)
	}
}

// Publish dispatches locally first, then to the brokers. Broker failures are returned after
// local handlers have run.
func (b *transactionEventBus) Publish(ctx context.Context, event TransactionEvent) error {
	event.Source = b.nodeID
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	b.dispatch(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if b.redis != nil && b.redisChannel != "" {
		if err := b.redis.Publish(ctx, b.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.nats != nil && b.natsSubject != "" {
		if err := b.nats.Publish(b.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *transactionEventBus) consumeRedis(ctx context.Context) {
	pubsub := b.redis.Subscribe(ctx, b.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			b.logger.Error().Err(err).Msg("transaction redis subscription closed")
			return
		}
		b.handlePayload([]byte(msg.Payload))
	}
}

func (b *transactionEventBus) consumeNATS(ctx context.Context) {
	sub, err := b.nats.Subscribe(b.natsSubject, func(msg *nats.Msg) {
		b.handlePayload(msg.Data)
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to subscribe to nats transactions subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain transaction nats subscription")
		}
	}()
}

// handlePayload ignores this node's own events, which were dispatched when published.
func (b *transactionEventBus) handlePayload(payload []byte) {
	var event TransactionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.Warn().Err(err).Msg("invalid transaction event payload")
		return
	}
	if event.Source == b.nodeID {
		return
	}
	b.dispatch(event)
}

func (b *transactionEventBus) dispatch(event TransactionEvent) {
	b.mu.RLock()
	handlers := append([]TransactionEventHandler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
