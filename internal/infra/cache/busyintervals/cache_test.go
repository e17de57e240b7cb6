package busyintervals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type countingSource struct {
	calls int
	slots []domain.TimeSlot
	err   error
}

func (s *countingSource) ListBusy(_ context.Context, _ time.Time, _ string) ([]domain.TimeSlot, error) {
	s.calls++
	return s.slots, s.err
}

var date = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T, src Source) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, src, time.Minute, logger.NewNop()), mr
}

func TestCache_HitAfterMiss(t *testing.T) {
	src := &countingSource{slots: []domain.TimeSlot{
		domain.NewTimeSlot(date.Add(9*time.Hour), 60, "tech-1"),
	}}
	cache, mr := setup(t, src)
	ctx := context.Background()

	first, err := cache.ListBusy(ctx, date, "tech-1")
	require.NoError(t, err)
	second, err := cache.ListBusy(ctx, date, "tech-1")
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	require.Len(t, second, 1)
	assert.True(t, first[0].Start.Equal(second[0].Start))
	assert.Equal(t, "tech-1", second[0].ResourceID)
	assert.True(t, mr.Exists("appointments:busy:tech-1:2026-10-20"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.ListBusy(ctx, date, "tech-1")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "entry must expire after ttl")
}

func TestCache_Invalidate(t *testing.T) {
	src := &countingSource{}
	cache, _ := setup(t, src)
	ctx := context.Background()

	_, err := cache.ListBusy(ctx, date, "tech-1")
	require.NoError(t, err)
	cache.Invalidate(ctx, date, "tech-1")
	_, err = cache.ListBusy(ctx, date, "tech-1")
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
}

func TestCache_SourceErrorNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("sink down")}
	cache, mr := setup(t, src)

	_, err := cache.ListBusy(context.Background(), date, "tech-1")
	assert.Error(t, err)
	assert.False(t, mr.Exists("appointments:busy:tech-1:2026-10-20"))
}

func TestCache_RedisDownFallsBackToSource(t *testing.T) {
	src := &countingSource{slots: []domain.TimeSlot{domain.NewTimeSlot(date.Add(9*time.Hour), 60, "tech-1")}}
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := New(rdb, src, time.Minute, logger.NewNop())

	slots, err := cache.ListBusy(context.Background(), date, "tech-1")
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewClient(context.Background(), Config{Addr: mr.Addr(), DB: 0})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	cache := New(rdb, &countingSource{}, 30*time.Second, logger.NewNop())
	_, err = cache.ListBusy(context.Background(), date, "tech-1")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL(cacheKey(date, "tech-1")))

	_, err = NewClient(context.Background(), Config{})
	assert.Error(t, err)
}
