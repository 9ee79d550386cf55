// Package mqtt provides MQTT publishing and subscribing with abstraction
// for testing.
package mqtt

import "errors"

// ErrNotConnected is returned by Publish while the broker link is down.
// Telemetry is fire-and-forget: callers log the miss and carry on with the
// next cycle instead of queueing.
var ErrNotConnected = errors.New("mqtt: not connected")

// Message is one message received from the broker.
type Message struct {
	Topic   string
	Payload []byte
}

// Publisher publishes telemetry messages.
type Publisher interface {
	// Publish sends payload to topic.
	// Returns error if publishing fails (should not crash the process).
	Publish(topic string, payload []byte) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker link is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Subscriber is a standing subscription delivering messages to a handler.
// The subscription is bound at construction so it can be re-established
// after a reconnect.
type Subscriber interface {
	IsConnected() bool
	Close() error
}
