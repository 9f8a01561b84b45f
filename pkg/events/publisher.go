// Package events publishes attention lifecycle transitions to Google Cloud Pub/Sub
// so that other family services (activity feed, analytics) can follow them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	attentiondomain "famsync-backend/internal/attention/domain"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Publisher writes lifecycle events to a single topic
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	owned  bool
}

// NewPublisher connects to projectID and checks that topicName exists
func NewPublisher(ctx context.Context, projectID, topicName string, opts ...option.ClientOption) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	p, err := NewPublisherFromClient(ctx, client, topicName)
	if err != nil {
		client.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// NewPublisherFromClient reuses an existing client; Close will not close it
func NewPublisherFromClient(ctx context.Context, client *pubsub.Client, topicName string) (*Publisher, error) {
	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic %s: %w", topicName, err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic %s does not exist", topicName)
	}

	// Keep events for one request in order
	topic.EnableMessageOrdering = true

	log.Printf("[Events] Publishing attention events to topic: %s", topicName)
	return &Publisher{client: client, topic: topic}, nil
}

// Publish sends the event and waits for the server ack
func (p *Publisher) Publish(ctx context.Context, event attentiondomain.LifecycleEvent) error {
	msg, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	result := p.topic.Publish(ctx, msg)
	if _, err := result.Get(ctx); err != nil {
		// ordering pauses a key after a failure until resumed
		p.topic.ResumePublish(msg.OrderingKey)
		return fmt.Errorf("failed to publish %s for request %s: %w", event.Type, event.RequestID, err)
	}
	return nil
}

// Close flushes pending messages
func (p *Publisher) Close() error {
	p.topic.Stop()
	if p.owned {
		return p.client.Close()
	}
	return nil
}

// EncodeEvent builds the Pub/Sub message for event. Attributes allow
// subscription filters on type and family without decoding the body.
func EncodeEvent(event attentiondomain.LifecycleEvent) (*pubsub.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":       string(event.Type),
			"family_id":  event.FamilyID,
			"request_id": event.RequestID,
		},
		OrderingKey: event.RequestID,
	}, nil
}
