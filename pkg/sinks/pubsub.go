package sinks

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubSink publishes ordered by endpoint id. PUBSUB_EMULATOR_HOST is
// honoured by the client library.
type pubsubSink struct {
	id     string
	client *pubsub.Client
	topic  *pubsub.Topic
}

func newPubSubSink(ctx context.Context, id string, cfg PubSubConfig) (*pubsubSink, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(cfg.Topic)
	topic.EnableMessageOrdering = true
	return &pubsubSink{id: id, client: client, topic: topic}, nil
}

func (p *pubsubSink) ID() string { return p.id }

// Send publishes the document body and waits for the server ack.
func (p *pubsubSink) Send(ctx context.Context, doc Document) error {
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:        doc.Body,
		Attributes:  doc.attributes(),
		OrderingKey: doc.EndpointID,
	})
	if _, err := res.Get(ctx); err != nil {
		// a failed ordered publish pauses the key until resumed
		p.topic.ResumePublish(doc.EndpointID)
		return fmt.Errorf("pubsub publish %s: %w", doc.EndpointID, err)
	}
	return nil
}

func (p *pubsubSink) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
