// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/rentalscope/internal/logging"
	"github.com/tomtom215/rentalscope/internal/metrics"
	ws "github.com/tomtom215/rentalscope/internal/websocket"
)

// BusConfig configures the event bus.
type BusConfig struct {
	// Buffer is the subscriber channel buffer. Default 64.
	Buffer int64

	// CloseTimeout bounds how long the router waits for in-flight events
	// on shutdown. Default 5s.
	CloseTimeout time.Duration
}

func (c *BusConfig) setDefaults() {
	if c.Buffer <= 0 {
		c.Buffer = 64
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = 5 * time.Second
	}
}

// Bus publishes dataset events to a Watermill GoChannel and, while Serve is
// running, routes them to a Sink. It implements suture.Service.
type Bus struct {
	pubsub *gochannel.GoChannel
	sink   Sink
	logger watermill.LoggerAdapter
	config BusConfig

	mu      sync.RWMutex
	running bool
}

// NewBus creates a bus delivering to sink.
func NewBus(sink Sink, cfg BusConfig) *Bus {
	cfg.setDefaults()

	// Watermill is chatty at info level; its info logs go to debug.
	logger := watermill.NewSlogLoggerWithLevelMapping(logging.NewSlogLogger(), map[slog.Level]slog.Level{
		slog.LevelInfo: slog.LevelDebug,
	})

	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.Buffer}, logger),
		sink:   sink,
		logger: logger,
		config: cfg,
	}
}

// Running reports whether the consumer is subscribed.
func (b *Bus) Running() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

func (b *Bus) setRunning(v bool) {
	b.mu.Lock()
	b.running = v
	b.mu.Unlock()
}

// Publish sends e to the topic, or straight to the sink when the consumer
// is not running. It reports whether the event was accepted.
func (b *Bus) Publish(e *DatasetEvent) bool {
	if err := e.Validate(); err != nil {
		logging.Error().Err(err).Msg("Refusing to publish invalid dataset event")
		return false
	}

	if !b.Running() {
		return b.deliverDirect(e)
	}

	payload, err := e.Marshal()
	if err != nil {
		logging.Error().Err(err).Str("type", e.Type).Msg("Failed to encode dataset event")
		metrics.EventsProcessed.WithLabelValues(e.Type, "failed").Inc()
		return false
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", e.Type)

	if err := b.pubsub.Publish(TopicDataset, msg); err != nil {
		logging.Warn().Err(err).Str("type", e.Type).Msg("Event bus publish failed, delivering directly")
		return b.deliverDirect(e)
	}
	metrics.EventsProcessed.WithLabelValues(e.Type, "published").Inc()
	return true
}

// BroadcastDatasetReloaded publishes a dataset_reloaded event.
func (b *Bus) BroadcastDatasetReloaded(data ws.DatasetReloadedData) bool {
	return b.Publish(&DatasetEvent{Type: TypeDatasetReloaded, Reloaded: &data})
}

// BroadcastDatasetError publishes a dataset_error event.
func (b *Bus) BroadcastDatasetError(data ws.DatasetErrorData) bool {
	return b.Publish(&DatasetEvent{Type: TypeDatasetError, Error: &data})
}

func (b *Bus) deliverDirect(e *DatasetEvent) bool {
	ok := deliver(b.sink, e)
	b.recordDelivery(e.Type, ok)
	return ok
}

func (b *Bus) recordDelivery(eventType string, ok bool) {
	stage := "delivered"
	if !ok {
		stage = "dropped"
	}
	metrics.EventsProcessed.WithLabelValues(eventType, stage).Inc()
}

// handle is the router's consumer. A malformed payload is acked and
// dropped; redelivering it would fail the same way.
func (b *Bus) handle(msg *message.Message) error {
	e, err := UnmarshalDatasetEvent(msg.Payload)
	if err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed dataset event")
		metrics.EventsProcessed.WithLabelValues(msg.Metadata.Get("type"), "failed").Inc()
		return nil
	}
	b.recordDelivery(e.Type, deliver(b.sink, e))
	return nil
}

// Serve runs the router until ctx is canceled. Each call builds a fresh
// router so that the supervisor can restart the bus.
func (b *Bus) Serve(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: b.config.CloseTimeout}, b.logger)
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	router.AddConsumerHandler("dataset-broadcast", TopicDataset, b.pubsub, b.handle)

	stopped := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case <-router.Running():
			b.setRunning(true)
			logging.Info().Str("topic", TopicDataset).Msg("Event bus running")
		case <-stopped:
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			if err := router.Close(); err != nil {
				logging.Warn().Err(err).Msg("Event router close")
			}
		case <-stopped:
		}
	}()

	runErr := router.Run(ctx)
	close(stopped)
	<-watched
	b.setRunning(false)

	if runErr != nil {
		return fmt.Errorf("event router: %w", runErr)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New("event router stopped unexpectedly")
}

// Close shuts down the pub/sub. The bus cannot be served afterwards.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// String implements fmt.Stringer for supervisor logging.
func (b *Bus) String() string {
	return "event-bus"
}
