package sinks

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one sink entry of the sinks file. Exactly one of
// SQS, SNS or PubSub must be set.
type Config struct {
	ID       string        `yaml:"id"`
	Disabled bool          `yaml:"disabled"`
	SQS      *SQSConfig    `yaml:"sqs"`
	SNS      *SNSConfig    `yaml:"sns"`
	PubSub   *PubSubConfig `yaml:"pubsub"`
}

// AWSAccess selects the region, endpoint and optional static keys of an AWS sink.
// Empty keys fall back to the default credential chain.
type AWSAccess struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// SQSConfig targets a queue. FIFO queues group messages by endpoint id.
type SQSConfig struct {
	QueueURL  string `yaml:"queue_url"`
	FIFO      bool   `yaml:"fifo"`
	AWSAccess `yaml:",inline"`
}

// SNSConfig targets a topic. FIFO topics group messages by endpoint id.
type SNSConfig struct {
	TopicARN  string `yaml:"topic_arn"`
	FIFO      bool   `yaml:"fifo"`
	AWSAccess `yaml:",inline"`
}

// PubSubConfig targets a Google Cloud Pub/Sub topic.
type PubSubConfig struct {
	ProjectID       string `yaml:"project_id"`
	Topic           string `yaml:"topic"`
	Endpoint        string `yaml:"endpoint"`
	CredentialsFile string `yaml:"credentials_file"`
}

type sinksFile struct {
	Sinks []Config `yaml:"sinks"`
}

// Kind names the destination type of the entry.
func (c Config) Kind() string {
	switch {
	case c.SQS != nil:
		return "sqs"
	case c.SNS != nil:
		return "sns"
	case c.PubSub != nil:
		return "pubsub"
	default:
		return ""
	}
}

// Load reads the sinks file at path and returns its enabled entries.
// The file is YAML; JSON files are accepted as well.
func Load(path string) ([]Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var f sinksFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse sinks file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(f.Sinks))
	enabled := make([]Config, 0, len(f.Sinks))
	for i, c := range f.Sinks {
		c.ID = strings.TrimSpace(c.ID)
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("sink #%d: %w", i, err)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("sink #%d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = struct{}{}
		if !c.Disabled {
			enabled = append(enabled, c)
		}
	}
	return enabled, nil
}

func (c Config) validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	set := 0
	for _, present := range []bool{c.SQS != nil, c.SNS != nil, c.PubSub != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("sink %q must configure exactly one of sqs, sns or pubsub", c.ID)
	}
	switch {
	case c.SQS != nil && c.SQS.QueueURL == "":
		return fmt.Errorf("sink %q: sqs.queue_url is required", c.ID)
	case c.SNS != nil && c.SNS.TopicARN == "":
		return fmt.Errorf("sink %q: sns.topic_arn is required", c.ID)
	case c.PubSub != nil && (c.PubSub.ProjectID == "" || c.PubSub.Topic == ""):
		return fmt.Errorf("sink %q: pubsub.project_id and pubsub.topic are required", c.ID)
	}
	return nil
}
