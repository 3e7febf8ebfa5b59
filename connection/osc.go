package connection

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"

	"github.com/robmorgan/glow/logger"
)

// OSC receives commands as Open Sound Control messages and publishes state
// the same way. A topic maps to the OSC address "/<topic>".
type OSC struct {
	name       string
	listenAddr string
	log        *logrus.Entry

	dispatcher *osc.StandardDispatcher
	client     *osc.Client

	lock sync.Mutex
	conn net.PacketConn
}

// NewOSC creates an OSC connection that listens on listenAddr (host:port) and
// publishes to publishHost:publishPort. A zero publishPort disables publishing.
func NewOSC(name, listenAddr, publishHost string, publishPort int) *OSC {
	o := &OSC{
		name:       name,
		listenAddr: listenAddr,
		log:        logger.GetProjectLogger().WithField("connection", name),
		dispatcher: osc.NewStandardDispatcher(),
	}
	if publishPort > 0 {
		o.client = osc.NewClient(publishHost, publishPort)
	}
	return o
}

func (o *OSC) Name() string { return o.name }

func (o *OSC) Register(topic string, handler Handler) error {
	addr := Address(topic)
	err := o.dispatcher.AddMsgHandler(addr, func(msg *osc.Message) {
		handler(ArgumentText(msg.Arguments))
	})
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "registering osc address %s", addr)
	}
	return nil
}

func (o *OSC) Publish(msg, topic string) {
	if o.client == nil {
		return
	}
	if err := o.client.Send(osc.NewMessage(Address(topic), msg)); err != nil {
		o.log.WithField("topic", topic).Errorf("failed to publish %q: %v", msg, err)
	}
}

// Start binds the listen address and serves messages until ctx is cancelled.
func (o *OSC) Start(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", o.listenAddr)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "listening for osc on %s", o.listenAddr)
	}

	o.lock.Lock()
	o.conn = conn
	o.lock.Unlock()

	server := &osc.Server{Dispatcher: o.dispatcher}
	go func() {
		o.log.Infof("listening for osc messages on %s", conn.LocalAddr())
		if err := server.Serve(conn); err != nil && ctx.Err() == nil {
			o.log.Errorf("osc server stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		o.Close()
	}()
	return nil
}

// LocalAddr returns the bound listen address once started.
func (o *OSC) LocalAddr() net.Addr {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.conn == nil {
		return nil
	}
	return o.conn.LocalAddr()
}

func (o *OSC) Close() error {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.conn == nil {
		return nil
	}
	err := o.conn.Close()
	o.conn = nil
	return err
}

// Address returns the OSC address for a topic.
func Address(topic string) string {
	return "/" + strings.TrimPrefix(topic, "/")
}

// ArgumentText renders OSC arguments as a command string. Several arguments
// are joined with commas, so "/led 120 50 100" reads as "120,50,100".
func ArgumentText(args []interface{}) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			parts = append(parts, v)
		case float32:
			parts = append(parts, strconv.FormatFloat(float64(v), 'f', -1, 32))
		case float64:
			parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			if v {
				parts = append(parts, "ON")
			} else {
				parts = append(parts, "OFF")
			}
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, ",")
}
