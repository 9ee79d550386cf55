package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/ahu-sim/internal/logger"
)

const (
	publishTimeout   = 5 * time.Second
	subscribeTimeout = 5 * time.Second
	retryInterval    = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
}

// NewRealPublisher creates a publisher for the given broker. Connecting
// happens in the background and is retried until it succeeds, so a broker
// that is down at startup never blocks the loop; publishes made before the
// link is up return ErrNotConnected.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	opts := clientOptions(broker, clientID)
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info("connected to broker %s", broker)
	})

	client := paho.NewClient(opts)
	client.Connect()
	return &RealPublisher{client: client}
}

// Publish sends payload to topic at QoS 0, not retained. While the broker
// link is down it returns ErrNotConnected immediately rather than queueing.
func (p *RealPublisher) Publish(topic string, payload []byte) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

// IsConnected reports whether the broker link is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

// RealSubscriber receives messages from an actual MQTT broker.
type RealSubscriber struct {
	client paho.Client
}

// NewRealSubscriber creates a subscriber delivering every message matching
// filter to handler. The subscription is placed each time the connection is
// established, which covers both the initial connect and any reconnect.
// handler runs on the client's receive goroutine and must synchronize its
// own state.
func NewRealSubscriber(broker, clientID, filter string, handler func(Message)) *RealSubscriber {
	opts := clientOptions(broker, clientID)
	opts.SetOnConnectHandler(func(c paho.Client) {
		logger.Info("connected to broker %s, subscribing to %s", broker, filter)
		token := c.Subscribe(filter, 0, func(_ paho.Client, m paho.Message) {
			handler(Message{Topic: m.Topic(), Payload: m.Payload()})
		})
		if !token.WaitTimeout(subscribeTimeout) {
			logger.Error("subscribe to %s: timeout", filter)
			return
		}
		if err := token.Error(); err != nil {
			logger.Error("subscribe to %s: %v", filter, err)
		}
	})

	client := paho.NewClient(opts)
	client.Connect()
	return &RealSubscriber{client: client}
}

// IsConnected reports whether the broker link is currently up.
func (s *RealSubscriber) IsConnected() bool {
	return s.client.IsConnected()
}

// Close disconnects from the broker.
func (s *RealSubscriber) Close() error {
	s.client.Disconnect(1000)
	return nil
}

func clientOptions(broker, clientID string) *paho.ClientOptions {
	return paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("broker connection lost: %v", err)
		})
}
