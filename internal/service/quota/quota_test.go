// internal/service/quota/quota_test.go
package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCounter struct {
	count int64
	err   error

	gotOrgID int64
	gotFrom  time.Time
	gotTo    time.Time
}

func (s *stubCounter) CountIssuedInRange(_ context.Context, orgID int64, from, to time.Time) (int64, error) {
	s.gotOrgID = orgID
	s.gotFrom = from
	s.gotTo = to
	return s.count, s.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCheckAndReserveUnderLimit(t *testing.T) {
	counter := &stubCounter{count: 9}
	svc := NewService(counter, zap.NewNop())

	status, err := svc.CheckAndReserve(context.Background(), 42, 10)
	require.NoError(t, err)

	assert.True(t, status.Allowed)
	assert.Equal(t, 9, status.Current)
	assert.Equal(t, 10, status.Limit)
	assert.Equal(t, int64(42), counter.gotOrgID)
}

func TestCheckAndReserveAtLimit(t *testing.T) {
	counter := &stubCounter{count: 10}
	svc := NewService(counter, zap.NewNop())

	status, err := svc.CheckAndReserve(context.Background(), 42, 10)
	require.NoError(t, err)

	assert.False(t, status.Allowed)
	assert.Equal(t, 10, status.Current)
}

func TestCheckAndReserveUnlimited(t *testing.T) {
	counter := &stubCounter{count: 1_000_000}
	svc := NewService(counter, zap.NewNop())

	for _, limit := range []int{0, -1} {
		status, err := svc.CheckAndReserve(context.Background(), 42, limit)
		require.NoError(t, err)
		assert.True(t, status.Allowed)
	}
}

func TestCheckAndReserveCounterError(t *testing.T) {
	counter := &stubCounter{err: errors.New("db down")}
	svc := NewService(counter, zap.NewNop())

	_, err := svc.CheckAndReserve(context.Background(), 42, 10)
	assert.Error(t, err)
}

func TestMonthWindowIsCalendarMonthUTC(t *testing.T) {
	counter := &stubCounter{}
	svc := NewService(counter, zap.NewNop()).
		WithClock(fixedClock(time.Date(2026, time.March, 15, 23, 30, 0, 0, time.UTC)))

	_, err := svc.CheckAndReserve(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), counter.gotFrom)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), counter.gotTo)
}

func TestMonthWindowNormalizesZone(t *testing.T) {
	// 1st of April 02:00 +0300 is still 31st of March in UTC.
	zone := time.FixedZone("EAT", 3*60*60)
	counter := &stubCounter{}
	svc := NewService(counter, zap.NewNop()).
		WithClock(fixedClock(time.Date(2026, time.April, 1, 2, 0, 0, 0, zone)))

	_, err := svc.CheckAndReserve(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, time.March, counter.gotFrom.Month())
}
