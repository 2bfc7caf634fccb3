package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"crosspost/domain/model"
	"crosspost/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// PublicationPublisher publishes publication state changes to a Pub/Sub topic
type PublicationPublisher struct {
	client    *pubsub.Client
	topicName string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewPublicationPublisher(client *pubsub.Client, topicName string) *PublicationPublisher {
	return &PublicationPublisher{client: client, topicName: topicName}
}

// ensureTopic creates the topic on first use if it does not exist yet
func (p *PublicationPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		topic, err = p.client.CreateTopic(ctx, p.topicName)
		if err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

func (p *PublicationPublisher) Notify(ctx context.Context, event model.PublicationEvent) error {
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"platform": string(event.Platform),
			"status":   string(event.Status),
		},
	}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"server_id":  serverID,
		"content_id": event.ContentID,
		"platform":   event.Platform,
	}).Debug("Publication event published")
	return nil
}

// Stop flushes pending messages
func (p *PublicationPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
