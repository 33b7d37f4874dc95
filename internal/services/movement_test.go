package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"hospital-equipment/internal/dto"
	"hospital-equipment/internal/entities"
	"hospital-equipment/internal/events"
	"hospital-equipment/pkg/codegen"
	apperrors "hospital-equipment/pkg/errors"
	"hospital-equipment/pkg/metrics"
	"hospital-equipment/pkg/utils"
	"hospital-equipment/pkg/validation"

	"github.com/aarondl/null/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type movementFixture struct {
	store     *memStore
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	service   MovementServiceInterface
}

func newMovementFixture(t *testing.T) *movementFixture {
	t.Helper()
	store := newMemStore()
	publisher := &recordingPublisher{}
	m := metrics.New()
	svc := NewMovementService(
		&fakeTxManager{store: store},
		&fakeEquipmentRepo{store: store},
		&fakeMovementRepo{store: store},
		validation.New(),
		codegen.New("LOG"),
		publisher,
		m,
		5*time.Second,
		zap.NewNop(),
	)
	return &movementFixture{store: store, publisher: publisher, metrics: m, service: svc}
}

func transition(id uint64) dto.TransitionDTO {
	return dto.TransitionDTO{EquipmentID: id}
}

func TestRequestEntryOnlyOnceUntilExit(t *testing.T) {
	f := newMovementFixture(t)
	ctx := context.Background()
	id := f.store.seedEquipment(entities.LocationOutside)

	res, err := f.service.RequestEntry(ctx, transition(id))
	require.NoError(t, err)
	assert.Equal(t, entities.LocationInside, res.Equipment.LocationState)
	assert.Equal(t, entities.MovementEntry, res.Movement.Kind)

	_, err = f.service.RequestEntry(ctx, transition(id))
	require.ErrorIs(t, err, apperrors.ErrConflict)
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Message, "внутри")

	_, err = f.service.RequestExit(ctx, transition(id))
	require.NoError(t, err)

	_, err = f.service.RequestEntry(ctx, transition(id))
	assert.NoError(t, err)
}

func TestRequestExitWhenOutsideIsConflict(t *testing.T) {
	f := newMovementFixture(t)
	id := f.store.seedEquipment(entities.LocationOutside)

	_, err := f.service.RequestExit(context.Background(), transition(id))

	require.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, entities.LocationOutside, f.store.equipment(id).LocationState)
	assert.Empty(t, f.store.movementsOf(id))
}

func TestAlternatingTransitionsMatchParity(t *testing.T) {
	for _, n := range []int{1, 2, 5, 8} {
		f := newMovementFixture(t)
		ctx := context.Background()
		id := f.store.seedEquipment(entities.LocationOutside)

		for i := 0; i < n; i++ {
			var err error
			if i%2 == 0 {
				_, err = f.service.RequestEntry(ctx, transition(id))
			} else {
				_, err = f.service.RequestExit(ctx, transition(id))
			}
			require.NoError(t, err, "шаг %d из %d", i+1, n)
		}

		assert.Len(t, f.store.movementsOf(id), n)
		want := entities.LocationOutside
		if n%2 == 1 {
			want = entities.LocationInside
		}
		assert.Equal(t, want, f.store.equipment(id).LocationState, "n=%d", n)
	}
}

func TestRequestEntryWhenInsideLeavesNoTrace(t *testing.T) {
	f := newMovementFixture(t)
	id := f.store.seedEquipment(entities.LocationInside)

	_, err := f.service.RequestEntry(context.Background(), transition(id))

	require.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, entities.LocationInside, f.store.equipment(id).LocationState)
	assert.Equal(t, 0, f.store.movementCount())
	assert.Empty(t, f.publisher.published())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RejectionsCounter().WithLabelValues("entry", "conflict")))
}

func TestTransitionUnknownOrInactiveEquipment(t *testing.T) {
	f := newMovementFixture(t)
	ctx := context.Background()

	_, err := f.service.RequestEntry(ctx, transition(404))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	id := f.store.seedEquipment(entities.LocationOutside)
	require.NoError(t, (&fakeEquipmentRepo{store: f.store}).SoftDelete(ctx, id))

	_, err = f.service.RequestEntry(ctx, transition(id))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 0, f.store.movementCount())
}

func TestTransitionRequiresEquipmentID(t *testing.T) {
	f := newMovementFixture(t)

	_, err := f.service.RequestEntry(context.Background(), dto.TransitionDTO{})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "equipment_id")
}

func TestConcurrentEntriesSerialize(t *testing.T) {
	f := newMovementFixture(t)
	id := f.store.seedEquipment(entities.LocationOutside)

	const callers = 20
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.service.RequestEntry(context.Background(), transition(id))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperrors.ErrConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)

	entries := 0
	for _, m := range f.store.movementsOf(id) {
		if m.Kind == entities.MovementEntry {
			entries++
		}
	}
	assert.Equal(t, 1, entries)
	assert.Equal(t, entities.LocationInside, f.store.equipment(id).LocationState)
}

func TestDifferentEquipmentTransitionsIndependently(t *testing.T) {
	f := newMovementFixture(t)
	ids := make([]uint64, 10)
	for i := range ids {
		ids[i] = f.store.seedEquipment(entities.LocationOutside)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, err := f.service.RequestEntry(context.Background(), transition(id))
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	for _, id := range ids {
		assert.Equal(t, entities.LocationInside, f.store.equipment(id).LocationState)
	}
}

func TestTransitionRollsBackOnLedgerFailure(t *testing.T) {
	f := newMovementFixture(t)
	id := f.store.seedEquipment(entities.LocationOutside)
	f.store.failMovementInsert = errors.New("connection reset by peer")

	_, err := f.service.RequestEntry(context.Background(), transition(id))

	require.ErrorIs(t, err, apperrors.ErrPersistence)
	var perr *apperrors.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "entry", perr.Op)
	assert.Equal(t, entities.LocationOutside, f.store.equipment(id).LocationState, "состояние должно откатиться")
	assert.Equal(t, 0, f.store.movementCount())
	assert.Empty(t, f.publisher.published())
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.MovementsCounter().WithLabelValues("entry")))
}

func TestTransitionWithCancelledContext(t *testing.T) {
	f := newMovementFixture(t)
	id := f.store.seedEquipment(entities.LocationOutside)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.RequestEntry(ctx, transition(id))

	require.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, entities.LocationOutside, f.store.equipment(id).LocationState)
	assert.Equal(t, 0, f.store.movementCount())
}

func TestTransitionResponsibleUser(t *testing.T) {
	f := newMovementFixture(t)
	id := f.store.seedEquipment(entities.LocationOutside)

	t.Run("из контекста", func(t *testing.T) {
		ctx := utils.WithUserID(context.Background(), 7)
		res, err := f.service.RequestEntry(ctx, transition(id))
		require.NoError(t, err)
		assert.Equal(t, null.Int64From(7), res.Movement.ResponsibleUserID)
	})

	t.Run("явно переданный важнее контекста", func(t *testing.T) {
		ctx := utils.WithUserID(context.Background(), 7)
		payload := transition(id)
		payload.ResponsibleUserID = null.Int64From(3)
		payload.Notes = null.StringFrom("  плановый вывоз  ")
		res, err := f.service.RequestExit(ctx, payload)
		require.NoError(t, err)
		assert.Equal(t, null.Int64From(3), res.Movement.ResponsibleUserID)
		assert.Equal(t, "плановый вывоз", res.Movement.Notes)
	})

	t.Run("без пользователя ответственный не задан", func(t *testing.T) {
		res, err := f.service.RequestEntry(context.Background(), transition(id))
		require.NoError(t, err)
		assert.False(t, res.Movement.ResponsibleUserID.Valid)
		assert.Equal(t, "", res.Movement.Notes)
	})
}

func TestTransitionPublishesAfterCommit(t *testing.T) {
	f := newMovementFixture(t)
	id := f.store.seedEquipment(entities.LocationOutside)

	res, err := f.service.RequestEntry(context.Background(), transition(id))
	require.NoError(t, err)

	published := f.publisher.published()
	require.Len(t, published, 1)
	event, ok := published[0].(events.MovementRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, res.Movement.LogCode, event.Movement.LogCode)
	assert.Equal(t, entities.LocationInside, event.Equipment.LocationState)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MovementsCounter().WithLabelValues("entry")))
}

func TestTransitionLogCodesAreUnique(t *testing.T) {
	f := newMovementFixture(t)
	ctx := context.Background()
	id := f.store.seedEquipment(entities.LocationOutside)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		var (
			res *dto.TransitionResultDTO
			err error
		)
		if i%2 == 0 {
			res, err = f.service.RequestEntry(ctx, transition(id))
		} else {
			res, err = f.service.RequestExit(ctx, transition(id))
		}
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Movement.LogCode, "LOG"))
		assert.False(t, seen[res.Movement.LogCode], "повтор кода %s", res.Movement.LogCode)
		seen[res.Movement.LogCode] = true
	}
}

func registration(name, serial, owner string, frequency entities.Frequency) dto.RegisterEquipmentDTO {
	return dto.RegisterEquipmentDTO{
		Name:      name,
		Serial:    serial,
		OwnerName: owner,
		Frequency: string(frequency),
	}
}

func TestRegisterFrequentEquipment(t *testing.T) {
	f := newMovementFixture(t)

	res, err := f.service.RegisterEquipment(context.Background(), registration("Laptop X", "S1", "Dr. A", entities.FrequencyFrequent))
	require.NoError(t, err)

	assert.NotEqual(t, "S1", res.Equipment.QRCode)
	assert.True(t, strings.HasPrefix(res.Equipment.QRCode, "QR-"))
	assert.Equal(t, entities.LocationOutside, res.Equipment.LocationState)

	movements := f.store.movementsOf(res.Equipment.ID)
	require.Len(t, movements, 1)
	assert.Equal(t, entities.MovementRegistration, movements[0].Kind)
	assert.Equal(t, "LOG000001", movements[0].LogCode)
	assert.Equal(t, "EQ001", f.store.equipment(res.Equipment.ID).Code)
}

func TestRegisterOccasionalEquipmentUsesSerial(t *testing.T) {
	f := newMovementFixture(t)

	res, err := f.service.RegisterEquipment(context.Background(), registration("Monitor", "S2", "Dr. B", entities.FrequencyOccasional))
	require.NoError(t, err)

	assert.Equal(t, "S2", res.Equipment.QRCode)
}

func TestRegisterAppliesDefaults(t *testing.T) {
	f := newMovementFixture(t)
	ctx := utils.WithUserID(context.Background(), 11)

	res, err := f.service.RegisterEquipment(ctx, registration("  Дефибриллятор ", "D-1", "Отделение реанимации", ""))
	require.NoError(t, err)

	e := res.Equipment
	assert.Equal(t, "Дефибриллятор", e.Name)
	assert.Equal(t, entities.CategoryTechnological, e.Category)
	assert.Equal(t, entities.OwnerStaff, e.OwnerCategory)
	assert.Equal(t, entities.FrequencyOccasional, e.Frequency)
	assert.Equal(t, null.Int64From(11), e.RegisteredBy)
	assert.Equal(t, null.Int64From(11), res.Movement.ResponsibleUserID)
}

func TestRegisterKeepsClientCode(t *testing.T) {
	f := newMovementFixture(t)
	ctx := context.Background()

	payload := registration("Рентген", "R-1", "Клиника", entities.FrequencyOccasional)
	payload.Code = "XR-01"
	res, err := f.service.RegisterEquipment(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, "XR-01", res.Equipment.Code)

	payload.Serial = "R-2"
	_, err = f.service.RegisterEquipment(ctx, payload)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 1, f.store.movementCount())
}

// Клиентский код не может занять код, который позже получит оборудование без кода.
func TestRegisterRejectsAutoCodeFromClient(t *testing.T) {
	f := newMovementFixture(t)
	ctx := context.Background()

	payload := registration("Рентген", "R-1", "Клиника", entities.FrequencyOccasional)
	payload.Code = "EQ002"
	_, err := f.service.RegisterEquipment(ctx, payload)

	require.ErrorIs(t, err, apperrors.ErrValidation)
	var ve *apperrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "code")
	assert.Empty(t, f.store.equipments)
	assert.Equal(t, 0, f.store.movementCount())

	payload.Code = "XR-01"
	_, err = f.service.RegisterEquipment(ctx, payload)
	require.NoError(t, err)

	second, err := f.service.RegisterEquipment(ctx, registration("Монитор", "M-1", "Клиника", entities.FrequencyOccasional))
	require.NoError(t, err)
	assert.Equal(t, "EQ002", second.Equipment.Code)
	assert.Equal(t, 2, f.store.movementCount())
}

func TestRegisterRejectsBlankFieldsWithoutSideEffects(t *testing.T) {
	cases := map[string]dto.RegisterEquipmentDTO{
		"пустое наименование":   registration("", "S1", "Dr. A", entities.FrequencyFrequent),
		"пробелы в серийном":    registration("Laptop", "   ", "Dr. A", entities.FrequencyFrequent),
		"пустой владелец":       registration("Laptop", "S1", "", entities.FrequencyOccasional),
		"всё пустое":            registration("", "", "", ""),
		"неизвестная категория": {Name: "Laptop", Serial: "S1", OwnerName: "Dr. A", Category: "furniture"},
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			f := newMovementFixture(t)

			_, err := f.service.RegisterEquipment(context.Background(), payload)

			require.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Empty(t, f.store.equipments)
			assert.Equal(t, 0, f.store.movementCount())
			assert.Empty(t, f.publisher.published())
		})
	}
}

func TestRegisterRollsBackOnLedgerFailure(t *testing.T) {
	f := newMovementFixture(t)
	f.store.failMovementInsert = errors.New("disk full")

	_, err := f.service.RegisterEquipment(context.Background(), registration("Laptop", "S1", "Dr. A", entities.FrequencyOccasional))

	require.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Empty(t, f.store.equipments)
	assert.Equal(t, 0, f.store.movementCount())
	assert.Empty(t, f.publisher.published())
}

func TestRegisterPublishesRegistration(t *testing.T) {
	f := newMovementFixture(t)

	_, err := f.service.RegisterEquipment(context.Background(), registration("Laptop", "S1", "Dr. A", entities.FrequencyOccasional))
	require.NoError(t, err)

	published := f.publisher.published()
	require.Len(t, published, 1)
	event := published[0].(events.MovementRecordedEvent)
	assert.Equal(t, entities.MovementRegistration, event.Movement.Kind)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MovementsCounter().WithLabelValues("registration")))
}
