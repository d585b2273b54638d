package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/komercia/storefront/internal/domain"
)

func TestPubSubOrderEventPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-status")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderEventPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderEventPublisher: %v", err)
	}
	defer publisher.Stop()

	resolvedAt := time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC)
	event := domain.OrderStatusEvent{
		Reference:     "CK-1746522000000",
		TransactionID: "12345-1746522000-abc",
		State:         domain.OrderStatePaid,
		AmountInCents: 89900000,
		ResolvedAt:    resolvedAt,
	}

	if err := publisher.PublishOrderStatus(ctx, event); err != nil {
		t.Fatalf("PublishOrderStatus: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload OrderStatusMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Reference != event.Reference || payload.State != "paid" || payload.AmountInCents != 89900000 {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if !payload.ResolvedAt.Equal(resolvedAt) {
		t.Fatalf("expected resolvedAt %s, got %s", resolvedAt, payload.ResolvedAt)
	}
	if attr := messages[0].Attributes["state"]; attr != "paid" {
		t.Fatalf("expected state attribute, got %q", attr)
	}
}

func TestPubSubOrderEventPublisherOmitsEmptyAttributes(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-status")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	publisher, err := NewPubSubOrderEventPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderEventPublisher: %v", err)
	}
	defer publisher.Stop()

	if err := publisher.PublishOrderStatus(ctx, domain.OrderStatusEvent{Reference: "CK-1", State: domain.OrderStateConfirmed}); err != nil {
		t.Fatalf("PublishOrderStatus: %v", err)
	}
	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if _, ok := messages[0].Attributes["transactionId"]; ok {
		t.Fatalf("transactionId attribute should not be present")
	}
}

func TestNewPubSubOrderEventPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubOrderEventPublisher(nil); err == nil {
		t.Fatal("expected error without topic")
	}
}
