package connection

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/glow/logger"
)

// Local routes messages between components of the same process. Handlers run
// synchronously on the publishing goroutine, in registration order.
type Local struct {
	name string
	log  *logrus.Entry

	lock     sync.RWMutex
	handlers map[string][]Handler
	last     map[string]string
}

// NewLocal creates an in-process connection.
func NewLocal(name string) *Local {
	return &Local{
		name:     name,
		log:      logger.GetProjectLogger().WithField("connection", name),
		handlers: make(map[string][]Handler),
		last:     make(map[string]string),
	}
}

func (l *Local) Name() string { return l.name }

func (l *Local) Register(topic string, handler Handler) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.handlers[topic] = append(l.handlers[topic], handler)
	return nil
}

func (l *Local) Publish(msg, topic string) {
	l.lock.Lock()
	l.last[topic] = msg
	handlers := append([]Handler(nil), l.handlers[topic]...)
	l.lock.Unlock()

	l.log.WithField("topic", topic).Debugf("publishing %q to %d handler(s)", msg, len(handlers))
	for _, h := range handlers {
		h(msg)
	}
}

// Last returns the most recent message published to topic.
func (l *Local) Last(topic string) (string, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	msg, ok := l.last[topic]
	return msg, ok
}

func (l *Local) Start(ctx context.Context) error { return nil }

func (l *Local) Close() error { return nil }
