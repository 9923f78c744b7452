package sinks

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsSink struct {
	id       string
	topicARN string
	fifo     bool
	client   snsAPI
}

func newSNSSink(ctx context.Context, id string, cfg SNSConfig) (*snsSink, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.AWSAccess)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	endpoint := baseEndpoint(cfg.AWSAccess)
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
	return &snsSink{id: id, topicARN: cfg.TopicARN, fifo: cfg.FIFO, client: client}, nil
}

func (s *snsSink) ID() string { return s.id }

// Send publishes the document body with the endpoint id as a filterable attribute.
func (s *snsSink) Send(ctx context.Context, doc Document) error {
	attrs := make(map[string]types.MessageAttributeValue, 3)
	for k, v := range doc.attributes() {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	in := &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(string(doc.Body)),
		MessageAttributes: attrs,
	}
	if s.fifo {
		in.MessageGroupId = aws.String(doc.EndpointID)
		in.MessageDeduplicationId = aws.String(doc.Digest)
	}
	if _, err := s.client.Publish(ctx, in); err != nil {
		return fmt.Errorf("sns publish %s: %w", doc.EndpointID, err)
	}
	return nil
}
