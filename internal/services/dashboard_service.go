package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"hospital-equipment/internal/entities"
	"hospital-equipment/internal/repositories"

	"go.uber.org/zap"
)

const (
	dashboardStatsKey        = "dashboard:stats"
	dashboardStatsVersionKey = "dashboard:stats:version"
)

type DashboardServiceInterface interface {
	GetStats(ctx context.Context) (*entities.DashboardStats, error)
	Invalidate(ctx context.Context) error
}

// DashboardService отдаёт сводку, кешируя её в Redis. Кеш только для чтения:
// решения о переходах принимаются по базе. Ключ сводки включает номер версии,
// Invalidate увеличивает его, поэтому сводка, прочитанная до сброса, под новый ключ не попадает.
type DashboardService struct {
	repo     repositories.DashboardRepositoryInterface
	cache    repositories.CacheRepositoryInterface
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewDashboardService(
	repo repositories.DashboardRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	cacheTTL time.Duration,
	loc *time.Location,
	logger *zap.Logger,
) DashboardServiceInterface {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *DashboardService) GetStats(ctx context.Context) (*entities.DashboardStats, error) {
	key, keyOK := s.statsKey(ctx)
	if keyOK {
		if stats, ok := s.cached(ctx, key); ok {
			return stats, nil
		}
	}

	now := s.now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	stats, err := s.repo.GetStats(ctx, dayStart)
	if err != nil {
		return nil, persistenceOr("dashboard_stats", err)
	}
	stats.GeneratedAt = now

	if !keyOK {
		return stats, nil
	}
	if raw, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			s.logger.Warn("Не удалось сохранить статистику в кеш", zap.Error(err))
		}
	}
	return stats, nil
}

// Invalidate сбрасывает закешированную сводку.
func (s *DashboardService) Invalidate(ctx context.Context) error {
	_, err := s.cache.Incr(ctx, dashboardStatsVersionKey)
	return err
}

// statsKey - ключ сводки для текущей версии. false, если версию прочитать не удалось.
func (s *DashboardService) statsKey(ctx context.Context) (string, bool) {
	version, err := s.cache.Get(ctx, dashboardStatsVersionKey)
	switch {
	case errors.Is(err, repositories.ErrCacheMiss):
		version = "0"
	case err != nil:
		s.logger.Warn("Кеш статистики недоступен, читаем из базы", zap.Error(err))
		return "", false
	}
	if _, err := strconv.ParseInt(version, 10, 64); err != nil {
		s.logger.Warn("Повреждённая версия статистики в кеше", zap.String("version", version))
		return "", false
	}
	return dashboardStatsKey + ":v" + version, true
}

func (s *DashboardService) cached(ctx context.Context, key string) (*entities.DashboardStats, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repositories.ErrCacheMiss) {
			s.logger.Warn("Кеш статистики недоступен, читаем из базы", zap.Error(err))
		}
		return nil, false
	}

	var stats entities.DashboardStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		s.logger.Warn("Повреждённая запись статистики в кеше", zap.Error(err))
		return nil, false
	}
	return &stats, true
}
