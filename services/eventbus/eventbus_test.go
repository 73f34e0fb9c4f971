package eventbus

import (
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/janisrealty/janis/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLocalBus(t *testing.T) {
	bus := NewLocalBus()

	var got []core.RequirementChanged
	require.NoError(t, bus.Subscribe(core.SubjectRequirementChanged, func(data []byte) {
		var evt core.RequirementChanged
		require.NoError(t, json.Unmarshal(data, &evt))
		got = append(got, evt)
	}))
	other := 0
	require.NoError(t, bus.Subscribe(core.SubjectMatchStored, func([]byte) { other++ }))

	require.NoError(t, bus.Publish(core.SubjectRequirementChanged, core.RequirementChanged{RequirementID: 4, M2M: true}))
	require.NoError(t, bus.Publish("unknown.subject", map[string]int{"a": 1}))

	assert.Equal(t, []core.RequirementChanged{{RequirementID: 4, M2M: true}}, got)
	assert.Zero(t, other)

	require.NoError(t, bus.Close())
	assert.Equal(t, ErrClosed, bus.Publish(core.SubjectMatchStored, core.MatchStored{}))
	assert.Equal(t, ErrClosed, bus.Subscribe(core.SubjectMatchStored, func([]byte) {}))
}

func TestLocalBus_badPayload(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()
	assert.Error(t, bus.Publish(core.SubjectMatchStored, func() {}))
}

type fakeConn struct {
	published map[string][]byte
	queues    map[string]string
	handlers  map[string]nats.MsgHandler
	drained   int
}

func newFakeConn() *fakeConn {
	return &fakeConn{published: map[string][]byte{}, queues: map[string]string{}, handlers: map[string]nats.MsgHandler{}}
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.published[subject] = data
	if h, ok := c.handlers[subject]; ok {
		h(&nats.Msg{Subject: subject, Data: data})
	}
	return nil
}

func (c *fakeConn) QueueSubscribe(subject, queue string, cb nats.MsgHandler) (*nats.Subscription, error) {
	c.queues[subject] = queue
	c.handlers[subject] = cb
	return &nats.Subscription{Subject: subject, Queue: queue}, nil
}

func (c *fakeConn) Drain() error {
	c.drained++
	return nil
}

func TestNATSBus(t *testing.T) {
	conn := newFakeConn()
	bus := &natsBus{conn: conn, queue: "janis-api"}

	var got core.MatchStored
	require.NoError(t, bus.Subscribe(core.SubjectMatchStored, func(data []byte) {
		require.NoError(t, json.Unmarshal(data, &got))
	}))
	assert.Equal(t, map[string]string{core.SubjectMatchStored: "janis-api"}, conn.queues)

	require.NoError(t, bus.Publish(core.SubjectMatchStored, core.MatchStored{RequirementID: 3, PropertyID: 8, Score: 71.5}))
	assert.Equal(t, core.MatchStored{RequirementID: 3, PropertyID: 8, Score: 71.5}, got)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	assert.Equal(t, 1, conn.drained)
}
