package listeners

import (
	"context"

	"hospital-equipment/internal/events"
	"hospital-equipment/pkg/eventbus"

	"go.uber.org/zap"
)

// StatsInvalidator - то, что умеет сбросить закешированную сводку.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// DashboardListener сбрасывает кеш сводки после каждой зафиксированной записи журнала
// и после снятия оборудования с учёта.
type DashboardListener struct {
	stats  StatsInvalidator
	logger *zap.Logger
}

func NewDashboardListener(stats StatsInvalidator, logger *zap.Logger) *DashboardListener {
	return &DashboardListener{stats: stats, logger: logger}
}

func (l *DashboardListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.MovementRecordedEventName, l.handle)
	bus.Subscribe(events.EquipmentDeactivatedEventName, l.handle)
	l.logger.Info("DashboardListener подписан на события журнала и реестра")
}

func (l *DashboardListener) handle(ctx context.Context, event eventbus.Event) error {
	if err := l.stats.Invalidate(ctx); err != nil {
		l.logger.Warn("Не удалось сбросить кеш сводки", zap.String("event", event.Name()), zap.Error(err))
		return err
	}
	l.logger.Debug("Кеш сводки сброшен", zap.String("event", event.Name()))
	return nil
}
