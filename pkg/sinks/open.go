package sinks

import (
	"context"
	"fmt"
)

// Open loads the sinks file and connects every enabled sink.
// An empty path yields an empty set.
func Open(ctx context.Context, path string) (*Set, error) {
	if path == "" {
		return NewSet(), nil
	}
	cfgs, err := Load(path)
	if err != nil {
		return nil, err
	}

	set := NewSet()
	for _, c := range cfgs {
		sk, err := dial(ctx, c)
		if err != nil {
			_ = set.Close()
			return nil, fmt.Errorf("open sink %s: %w", c.ID, err)
		}
		set.sinks = append(set.sinks, sk)
	}
	return set, nil
}

func dial(ctx context.Context, c Config) (Sink, error) {
	switch {
	case c.SQS != nil:
		return newSQSSink(ctx, c.ID, *c.SQS)
	case c.SNS != nil:
		return newSNSSink(ctx, c.ID, *c.SNS)
	case c.PubSub != nil:
		return newPubSubSink(ctx, c.ID, *c.PubSub)
	default:
		return nil, fmt.Errorf("no destination configured")
	}
}
