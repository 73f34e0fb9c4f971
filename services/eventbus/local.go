package eventbus

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
)

// localBus dispatches events synchronously to in-process subscribers.
type localBus struct {
	mu       sync.RWMutex
	handlers map[string][]core.EventHandler
	closed   bool
}

var _ core.EventBus = (*localBus)(nil)

func NewLocalBus() core.EventBus {
	return &localBus{handlers: make(map[string][]core.EventHandler)}
}

var ErrClosed = errors.New("event bus closed")

func (b *localBus) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	handlers := append([]core.EventHandler(nil), b.handlers[subject]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (b *localBus) Subscribe(subject string, handler core.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.handlers[subject] = append(b.handlers[subject], handler)
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}
