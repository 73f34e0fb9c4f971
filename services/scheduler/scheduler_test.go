package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/janisrealty/janis/core"
	logsvc "github.com/janisrealty/janis/services/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newLogger() core.Logger {
	l := logsvc.NewRollbarLogger(zap.NewNop(), &core.Config{Env: "TEST"})
	l.Enable(false)
	return l
}

func TestScheduler(t *testing.T) {
	s := New(newLogger(), time.Second)

	var runs, fails int32
	require.NoError(t, s.Add("count", "@every 1s", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))
	require.NoError(t, s.Add("fail", "@every 1s", func(ctx context.Context) error {
		atomic.AddInt32(&fails, 1)
		return errors.New("boom")
	}))
	require.NoError(t, s.Add("disabled", "", func(ctx context.Context) error {
		t.Error("disabled job ran")
		return nil
	}))
	assert.Error(t, s.Add("bad", "not a spec", func(ctx context.Context) error { return nil }))

	s.Start()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) > 0 && atomic.LoadInt32(&fails) > 0
	}, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestScheduler_stopCancelsRunningJob(t *testing.T) {
	s := New(newLogger(), 0)
	started := make(chan struct{})
	require.NoError(t, s.Add("slow", "@every 1s", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}))
	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
