// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package bridge republishes Metasys attribute reads to a message broker.
//
// A Bridge reads a fixed set of attributes from a fixed set of objects and
// publishes every normalized value to <root>/<objectId>/<attribute>:
//
//	pub := bridge.NewMQTT("tcp://broker.local:1883", "metasys-bridge", "building/metasys", logger)
//	if err := pub.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	defer pub.Disconnect()
//
//	b := bridge.New(client, pub, bridge.Retained(true))
//	err := b.Run(ctx, time.Minute, ids, []string{"presentValue"})
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/netascode/go-metasys"
)

// Reader reads attributes of many objects; *metasys.Client implements it
type Reader interface {
	ReadPropertyMany(ctx context.Context, ids []uuid.UUID, attributes []string) []metasys.VariantMultiple
}

// Publisher publishes a payload to a topic; *MQTT implements it
type Publisher interface {
	Publish(topic string, payload any, retained bool) error
}

// Payload is the JSON document published for one Variant
type Payload struct {
	String      string    `json:"string"`
	Numeric     float64   `json:"numeric"`
	Boolean     bool      `json:"boolean"`
	Reliability string    `json:"reliability"`
	Reliable    bool      `json:"reliable"`
	Priority    string    `json:"priority,omitempty"`
	Array       []Payload `json:"array,omitempty"`
}

// NewPayload converts a Variant into its published form
func NewPayload(v metasys.Variant) Payload {
	p := Payload{
		String:      v.StringValue,
		Numeric:     v.NumericValue,
		Boolean:     v.BooleanValue,
		Reliability: v.Reliability,
		Reliable:    v.IsReliable,
		Priority:    v.Priority,
	}
	for _, element := range v.ArrayValue {
		p.Array = append(p.Array, NewPayload(element))
	}
	return p
}

// Bridge polls attributes through a Reader and publishes them
type Bridge struct {
	reader    Reader
	publisher Publisher
	logger    metasys.Logger

	retained        bool
	skipUnsupported bool
}

// Retained sets the MQTT retained flag on published values (default: false)
func Retained(retained bool) func(*Bridge) {
	return func(b *Bridge) {
		b.retained = retained
	}
}

// SkipUnsupported drops values that normalized to the unsupported sentinel,
// which includes every failed read (default: false)
func SkipUnsupported(skip bool) func(*Bridge) {
	return func(b *Bridge) {
		b.skipUnsupported = skip
	}
}

// WithLogger sets the logger used for publish failures
func WithLogger(logger metasys.Logger) func(*Bridge) {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Bridge
func New(reader Reader, publisher Publisher, opts ...func(*Bridge)) *Bridge {
	b := &Bridge{
		reader:    reader,
		publisher: publisher,
		logger:    &metasys.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Topic returns the topic a value of attribute on object id is published to
func Topic(id uuid.UUID, attribute string) string {
	return fmt.Sprintf("%s/%s", id.String(), attribute)
}

// PublishOnce reads every attribute of every object and publishes the
// results. It returns the number of values published and the joined
// publish errors; a failing topic does not stop the others.
func (b *Bridge) PublishOnce(ctx context.Context, ids []uuid.UUID, attributes []string) (int, error) {
	published := 0
	var errs []error

	for _, group := range b.reader.ReadPropertyMany(ctx, ids, attributes) {
		for _, v := range group.Variants {
			if b.skipUnsupported && v.StringValue == metasys.UnsupportedDataType {
				continue
			}
			topic := Topic(group.ID, v.Attribute)
			if err := b.publisher.Publish(topic, NewPayload(v), b.retained); err != nil {
				b.logger.Error(ctx, "bridge publish failed",
					"topic", topic,
					"error", err.Error())
				errs = append(errs, fmt.Errorf("%s: %w", topic, err))
				continue
			}
			published++
		}
	}

	return published, errors.Join(errs...)
}

// Run publishes immediately and then every interval until ctx is done.
// Publish errors are logged and do not stop the loop. Returns ctx.Err().
func (b *Bridge) Run(ctx context.Context, interval time.Duration, ids []uuid.UUID, attributes []string) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got: %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := b.PublishOnce(ctx, ids, attributes)
		b.logger.Debug(ctx, "bridge cycle complete",
			"published", n,
			"failed", err != nil)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
