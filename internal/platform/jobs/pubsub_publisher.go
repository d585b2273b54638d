package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/komercia/storefront/internal/domain"
)

// OrderStatusMessage is the JSON payload published for every resolved payment status.
type OrderStatusMessage struct {
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transactionId,omitempty"`
	State         string    `json:"state"`
	AmountInCents int64     `json:"amountInCents,omitempty"`
	ResolvedAt    time.Time `json:"resolvedAt"`
}

// PubSubOrderEventPublisher publishes order status events to a Pub/Sub topic.
type PubSubOrderEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderEventPublisher constructs a Pub/Sub backed order event publisher.
func NewPubSubOrderEventPublisher(topic *pubsub.Topic) (*PubSubOrderEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order publisher: topic is required")
	}
	return &PubSubOrderEventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishOrderStatus sends event on the configured topic, ordered by reference.
func (p *PubSubOrderEventPublisher) PublishOrderStatus(ctx context.Context, event domain.OrderStatusEvent) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub order publisher: not initialised")
	}

	data, err := p.marshal(OrderStatusMessage{
		Reference:     event.Reference,
		TransactionID: event.TransactionID,
		State:         string(event.State),
		AmountInCents: event.AmountInCents,
		ResolvedAt:    event.ResolvedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal order status: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "reference", event.Reference)
	setAttr(attrs, "transactionId", event.TransactionID)
	setAttr(attrs, "state", string(event.State))

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order status: %w", err)
	}
	return nil
}

// Stop flushes pending messages and stops the topic's publishing goroutines.
func (p *PubSubOrderEventPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
