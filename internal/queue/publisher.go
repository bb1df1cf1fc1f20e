package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mahirjain10/image-ingest/internal/types"
	"github.com/mahirjain10/image-ingest/internal/utils"
)

const publishTimeout = 5 * time.Second

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AssetPublisher sends an AssetEvent for every stored image.
type AssetPublisher struct {
	conn       *amqp.Connection
	mu         sync.Mutex
	ch         channel
	exchange   string
	routingKey string
}

// NewAssetPublisher dials url, opens a channel and declares exchange.
func NewAssetPublisher(url, exchange, routingKey string) (*AssetPublisher, error) {
	conn, err := NewRabbitMQClient(url)
	if err != nil {
		return nil, err
	}
	ch, err := NewChannel(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &AssetPublisher{conn: conn, ch: ch, exchange: exchange, routingKey: routingKey}, nil
}

func newAssetPublisher(ch channel, exchange, routingKey string) *AssetPublisher {
	return &AssetPublisher{ch: ch, exchange: exchange, routingKey: routingKey}
}

func (p *AssetPublisher) PublishAsset(ctx context.Context, event *types.AssetEvent) error {
	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	slog.Debug("published asset event", "exchange", p.exchange, "routing_key", p.routingKey, "filename", event.Data.Filename)
	return nil
}

func (p *AssetPublisher) Close() error {
	var firstErr error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			firstErr = fmt.Errorf("error closing channel: %w", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return firstErr
}

func buildPublishing(event *types.AssetEvent) (amqp.Publishing, error) {
	body, err := utils.SerializeJSON(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to serialize message: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Data.StoredAt,
		Type:         event.Pattern,
		Body:         body,
	}, nil
}
