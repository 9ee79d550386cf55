package mqtt

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Messages contains everything that was published, in order.
	Messages []Message

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected and whether
	// Publish accepts messages.
	Connected bool
}

// NewFakePublisher creates a connected FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// Publish records the message, mirroring the real publisher's behavior of
// refusing while disconnected.
func (f *FakePublisher) Publish(topic string, payload []byte) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	if !f.Connected {
		return ErrNotConnected
	}

	f.Messages = append(f.Messages, Message{Topic: topic, Payload: payload})
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded messages and restores the connected state.
func (f *FakePublisher) Reset() {
	f.Messages = nil
	f.PublishError = nil
	f.Closed = false
	f.Connected = true
}

// FakeSubscriber hands injected messages straight to its handler.
type FakeSubscriber struct {
	handler func(Message)

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSubscriber creates a connected FakeSubscriber delivering to handler.
func NewFakeSubscriber(handler func(Message)) *FakeSubscriber {
	return &FakeSubscriber{handler: handler, Connected: true}
}

// Inject delivers a message as if it arrived from the broker.
func (f *FakeSubscriber) Inject(topic string, payload []byte) {
	f.handler(Message{Topic: topic, Payload: payload})
}

// IsConnected reports whether the fake subscriber is "connected".
func (f *FakeSubscriber) IsConnected() bool {
	return f.Connected
}

// Close marks the subscriber as closed.
func (f *FakeSubscriber) Close() error {
	f.Closed = true
	return nil
}
