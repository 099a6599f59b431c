package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	calls atomic.Int32
	n     int64
	err   error
	at    time.Time
}

func (f *fakeDeleter) DeleteExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	f.calls.Add(1)
	f.at = now
	return f.n, f.err
}

func TestNewTokenSweeper_InvalidSchedule(t *testing.T) {
	_, err := NewTokenSweeper(&fakeDeleter{}, "every tuesday")
	assert.Error(t, err)
}

func TestTokenSweeper_Sweep(t *testing.T) {
	users := &fakeDeleter{n: 3}
	s, err := NewTokenSweeper(users, "@every 1h")
	require.NoError(t, err)
	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, fixed.Equal(users.at))
}

func TestTokenSweeper_SweepError(t *testing.T) {
	s, err := NewTokenSweeper(&fakeDeleter{err: errors.New("db down")}, "@every 1h")
	require.NoError(t, err)

	_, err = s.Sweep(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestTokenSweeper_RunsOnSchedule(t *testing.T) {
	users := &fakeDeleter{}
	s, err := NewTokenSweeper(users, "@every 1s")
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return users.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
