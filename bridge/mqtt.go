// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/netascode/go-metasys"
)

// DefaultDisconnectQuiesce is how long Disconnect waits for in-flight work
const DefaultDisconnectQuiesce = 250 * time.Millisecond

// MQTT publishes JSON payloads below a topic root on an MQTT broker
type MQTT struct {
	topicRoot string
	opts      *paho.ClientOptions
	client    paho.Client
	logger    metasys.Logger
}

// NewMQTT creates an unconnected publisher for brokerURL, e.g.
// "tcp://broker.local:1883". All topics are published below topicRoot.
func NewMQTT(brokerURL, clientID, topicRoot string, logger metasys.Logger) *MQTT {
	opts := paho.NewClientOptions().AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)

	if logger == nil {
		logger = &metasys.NoOpLogger{}
	}

	return &MQTT{
		topicRoot: strings.TrimRight(topicRoot, "/"),
		opts:      opts,
		logger:    logger,
	}
}

// Connect connects to the broker and waits for the result
func (m *MQTT) Connect() error {
	m.client = paho.NewClient(m.opts)
	token := m.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect error: %w", err)
	}
	return nil
}

// Disconnect closes the broker connection
func (m *MQTT) Disconnect() {
	if m.client == nil {
		return
	}
	m.client.Disconnect(uint(DefaultDisconnectQuiesce.Milliseconds()))
}

// Publish encodes payload as JSON and publishes it to topicRoot/topic.
// Delivery completes asynchronously; delivery errors are logged.
func (m *MQTT) Publish(topic string, payload any, retained bool) error {
	if m.client == nil {
		return fmt.Errorf("client not connected")
	}
	if err := validateTopic(topic); err != nil {
		return err
	}

	scopedTopic := m.topicRoot + "/" + topic
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("unable to encode payload: %w", err)
	}

	token := m.client.Publish(scopedTopic, 0, retained, payloadBytes)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			m.logger.Error(context.Background(), "MQTT publish failed",
				"topic", scopedTopic,
				"error", err.Error())
		}
	}()

	return nil
}

func validateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("topic is empty")
	}
	if topic[0] == '/' {
		return fmt.Errorf("expected relative topic (cannot begin with slash)")
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("topic cannot contain wildcards: %s", topic)
	}
	return nil
}
