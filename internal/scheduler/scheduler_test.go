package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweeperStub struct {
	cutoff time.Time
	marked int64
	err    error
}

func (s *sweeperStub) SweepMissed(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.marked, s.err
}

func TestSweepMissedAppliesGracePeriod(t *testing.T) {
	stub := &sweeperStub{marked: 3}
	s, err := New(stub, Config{MissedSweepSpec: "0 */15 * * * *", MissedGracePeriod: 24 * time.Hour}, nil)
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	marked, err := s.SweepMissed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)
	assert.Equal(t, fixed.Add(-24*time.Hour), stub.cutoff)
}

func TestSweepMissedPropagatesError(t *testing.T) {
	stub := &sweeperStub{err: errors.New("db down")}
	s, err := New(stub, Config{MissedSweepSpec: "@every 1h"}, nil)
	require.NoError(t, err)

	_, err = s.SweepMissed(context.Background())
	assert.Error(t, err)
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(&sweeperStub{}, Config{MissedSweepSpec: "every now and then"}, nil)
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s, err := New(&sweeperStub{}, Config{MissedSweepSpec: "@every 1h"}, nil)
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
