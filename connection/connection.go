// Package connection carries actuator commands in and actuator state out.
package connection

import "context"

// Handler receives the text of a message sent to a registered topic.
type Handler func(msg string)

// Connection is a message transport that actuators subscribe and publish to.
type Connection interface {
	// Name identifies the connection in logs and configuration.
	Name() string

	// Register subscribes handler to messages sent to topic.
	Register(topic string, handler Handler) error

	// Publish sends msg to topic. Delivery failures are logged, not returned,
	// so a broken transport never stops an actuator.
	Publish(msg, topic string)

	// Start begins receiving messages until ctx is cancelled.
	Start(ctx context.Context) error

	Close() error
}
