package sinks

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsSink struct {
	id       string
	queueURL string
	fifo     bool
	client   sqsAPI
}

func newSQSSink(ctx context.Context, id string, cfg SQSConfig) (*sqsSink, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.AWSAccess)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	endpoint := baseEndpoint(cfg.AWSAccess)
	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
	return &sqsSink{id: id, queueURL: cfg.QueueURL, fifo: cfg.FIFO, client: client}, nil
}

func (s *sqsSink) ID() string { return s.id }

// Send enqueues the document body. On FIFO queues the endpoint id is the
// message group and the body digest deduplicates unchanged documents.
func (s *sqsSink) Send(ctx context.Context, doc Document) error {
	attrs := make(map[string]types.MessageAttributeValue, 3)
	for k, v := range doc.attributes() {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(doc.Body)),
		MessageAttributes: attrs,
	}
	if s.fifo {
		in.MessageGroupId = aws.String(doc.EndpointID)
		in.MessageDeduplicationId = aws.String(doc.Digest)
	}
	if _, err := s.client.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("sqs send %s: %w", doc.EndpointID, err)
	}
	return nil
}
