package eventbus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
)

// natsConn is the part of *nats.Conn the bus uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	QueueSubscribe(subject, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

type natsBus struct {
	conn  natsConn
	queue string

	mu     sync.Mutex
	closed bool
}

var _ core.EventBus = (*natsBus)(nil)

// NewNATSBus connects to the NATS server at url. name is both the client name and the queue group:
// replicas of a service share it, so each event is handled by one replica only.
func NewNATSBus(url, name string, logger core.Logger) (core.EventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected to " + c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to nats")
	}
	return &natsBus{conn: conn, queue: name}, nil
}

func (b *natsBus) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	return errors.Wrapf(b.conn.Publish(subject, data), "publishing %s", subject)
}

func (b *natsBus) Subscribe(subject string, handler core.EventHandler) error {
	_, err := b.conn.QueueSubscribe(subject, b.queue, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	return errors.Wrapf(err, "subscribing to %s", subject)
}

// Close drains the subscriptions before closing the connection.
func (b *natsBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.conn.Drain()
}
