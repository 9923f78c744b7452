package sinks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Document is one fetched endpoint body on its way downstream.
// Body is delivered byte for byte; EndpointID is the routing key.
type Document struct {
	EndpointID string
	URL        string
	StatusCode int
	Digest     string
	Body       []byte
}

// attributes are attached to every message next to the raw body.
func (d Document) attributes() map[string]string {
	return map[string]string{
		"endpoint_id": d.EndpointID,
		"source_url":  d.URL,
		"status_code": strconv.Itoa(d.StatusCode),
	}
}

// Sink delivers documents to a single destination.
type Sink interface {
	ID() string
	Send(ctx context.Context, doc Document) error
}

// Set sends every document to all of its sinks.
type Set struct {
	sinks []Sink
}

func NewSet(sinks ...Sink) *Set {
	s := &Set{}
	for _, sk := range sinks {
		if sk != nil {
			s.sinks = append(s.sinks, sk)
		}
	}
	return s
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.sinks)
}

// IDs lists the sink ids in delivery order.
func (s *Set) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.sinks))
	for _, sk := range s.sinks {
		ids = append(ids, sk.ID())
	}
	return ids
}

// Send delivers doc to every sink and reports how many accepted it.
// A failing sink does not stop delivery to the others.
func (s *Set) Send(ctx context.Context, doc Document) (int, error) {
	if s == nil {
		return 0, nil
	}
	var (
		delivered int
		errs      []error
	)
	for _, sk := range s.sinks {
		if err := sk.Send(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", sk.ID(), err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Close releases sinks that hold connections.
func (s *Set) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, sk := range s.sinks {
		if c, ok := sk.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close sink %s: %w", sk.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
