package concurrency

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllJobsBeforeShutdown(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pool := NewPool(3, 2, time.Second, logger)

	var done int32
	for i := 0; i < 10; i++ {
		err := pool.Submit(context.Background(), Job{Name: "count", Run: func(ctx context.Context) error {
			atomic.AddInt32(&done, 1)
			return nil
		}})
		require.NoError(t, err)
	}

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int32(10), atomic.LoadInt32(&done))
	assert.ErrorIs(t, pool.Submit(context.Background(), Job{Name: "late"}), ErrPoolClosed)
}

func TestPoolLogsFailuresAndPanics(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pool := NewPool(1, 1, time.Second, logger)

	require.NoError(t, pool.Submit(context.Background(), Job{Name: "mail", Run: func(ctx context.Context) error {
		return errors.New("smtp down")
	}}))
	require.NoError(t, pool.Submit(context.Background(), Job{Name: "bad", Run: func(ctx context.Context) error {
		panic("oops")
	}}))
	require.NoError(t, pool.Shutdown(context.Background()))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, log.WarnLevel, entries[0].Level)
	assert.Equal(t, "mail", entries[0].Data["job"])
	assert.Equal(t, log.ErrorLevel, entries[1].Level)
}

func TestPoolJobTimeout(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pool := NewPool(1, 1, 10*time.Millisecond, logger)

	errCh := make(chan error, 1)
	require.NoError(t, pool.Submit(context.Background(), Job{Name: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	}}))
	require.NoError(t, pool.Shutdown(context.Background()))
	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
}
