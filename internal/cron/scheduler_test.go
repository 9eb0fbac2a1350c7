package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePurger struct {
	n         int64
	err       error
	retention time.Duration
}

func (f *fakePurger) PurgeExpiredQRCodes(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return f.n, f.err
}

type fakeSweeper struct{ calls int }

func (f *fakeSweeper) Sweep() int {
	f.calls++
	return 0
}

func TestPurgeJobPassesRetention(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := &fakePurger{n: 3}
	job := PurgeQRCodesJob("@hourly", p, 2*time.Hour, zap.New(core))

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 2*time.Hour, p.retention)
	assert.Equal(t, 1, logs.FilterMessage("Purged expired QR codes").Len())
}

func TestSchedulerLogsFailedJob(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewScheduler(zap.New(core), time.Second)

	s.run(PurgeQRCodesJob("@hourly", &fakePurger{err: errors.New("db down")}, time.Hour, zap.NewNop()))

	entries := logs.FilterMessage("Job failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "purge-expired-qr-codes", entries[0].ContextMap()["job"])
}

func TestSchedulerRecoversPanics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewScheduler(zap.New(core), time.Second)

	assert.NotPanics(t, func() {
		s.run(Job{Name: "boom", Run: func(context.Context) error { panic("boom") }})
	})
	assert.Equal(t, 1, logs.FilterMessage("Job panicked").Len())
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(zap.NewNop(), time.Second)
	assert.Error(t, s.Add(Job{Name: "bad", Spec: "not a spec", Run: func(context.Context) error { return nil }}))

	sw := &fakeSweeper{}
	require.NoError(t, s.Add(SweepCacheJob("@every 1m", sw, zap.NewNop())))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
