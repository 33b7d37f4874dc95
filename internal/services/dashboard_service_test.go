package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hospital-equipment/internal/entities"
	"hospital-equipment/internal/repositories"
	apperrors "hospital-equipment/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingDashboardRepo struct {
	calls    int
	dayStart time.Time
	stats    entities.DashboardStats
	err      error
	// during вызывается посреди чтения, до возврата сводки.
	during func()
}

func (r *countingDashboardRepo) GetStats(_ context.Context, dayStart time.Time) (*entities.DashboardStats, error) {
	r.calls++
	r.dayStart = dayStart
	if r.during != nil {
		r.during()
	}
	if r.err != nil {
		return nil, r.err
	}
	stats := r.stats
	return &stats, nil
}

func newTestCache(t *testing.T) (repositories.CacheRepositoryInterface, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repositories.NewRedisCacheRepository(client), mr
}

func newDashboardService(repo repositories.DashboardRepositoryInterface, cache repositories.CacheRepositoryInterface, loc *time.Location) *DashboardService {
	svc := NewDashboardService(repo, cache, 30*time.Second, loc, zap.NewNop()).(*DashboardService)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 21, 30, 0, 0, time.UTC) }
	return svc
}

func TestDashboardStatsAreCached(t *testing.T) {
	cache, mr := newTestCache(t)
	repo := &countingDashboardRepo{stats: entities.DashboardStats{EquipmentInside: 2, EquipmentOutside: 3, TotalEquipment: 5, EntriesToday: 4}}
	svc := newDashboardService(repo, cache, time.UTC)
	ctx := context.Background()

	first, err := svc.GetStats(ctx)
	require.NoError(t, err)
	second, err := svc.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.EqualValues(t, 5, second.TotalEquipment)
	assert.True(t, first.GeneratedAt.Equal(second.GeneratedAt))

	mr.FastForward(31 * time.Second)
	_, err = svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestDashboardInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &countingDashboardRepo{}
	svc := newDashboardService(repo, cache, time.UTC)
	ctx := context.Background()

	_, err := svc.GetStats(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.calls)
}

// Сброс, пришедший во время чтения из базы, не затирается устаревшей сводкой.
func TestDashboardInvalidateDuringRead(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &countingDashboardRepo{stats: entities.DashboardStats{EquipmentInside: 1}}
	svc := newDashboardService(repo, cache, time.UTC)
	ctx := context.Background()

	repo.during = func() {
		repo.during = nil
		require.NoError(t, svc.Invalidate(ctx))
	}

	stale, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stale.EquipmentInside)

	repo.stats.EquipmentInside = 2

	fresh, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fresh.EquipmentInside)
	assert.Equal(t, 2, repo.calls)

	_, err = svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestDashboardDayStartUsesLocation(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &countingDashboardRepo{}
	dushanbe := time.FixedZone("UTC+5", 5*60*60)
	svc := newDashboardService(repo, cache, dushanbe)

	_, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	// 21:30 UTC - это уже 11 марта по UTC+5.
	assert.True(t, repo.dayStart.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, dushanbe)))
}

func TestDashboardWorksWithoutRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	cache := repositories.NewRedisCacheRepository(client)
	repo := &countingDashboardRepo{stats: entities.DashboardStats{TotalEquipment: 1}}
	svc := newDashboardService(repo, cache, time.UTC)

	stats, err := svc.GetStats(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalEquipment)
}

func TestDashboardStoreFailure(t *testing.T) {
	cache, _ := newTestCache(t)
	svc := newDashboardService(&countingDashboardRepo{err: errors.New("no connection")}, cache, time.UTC)

	_, err := svc.GetStats(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}
