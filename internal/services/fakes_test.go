package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"hospital-equipment/internal/entities"
	"hospital-equipment/internal/repositories"
	apperrors "hospital-equipment/pkg/errors"
	"hospital-equipment/pkg/eventbus"

	"github.com/jackc/pgx/v5"
)

// memStore - хранилище в памяти. fakeTxManager держит mu на всю транзакцию,
// это грубее построчной блокировки, но даёт ту же сериализацию переходов.
type memStore struct {
	mu sync.Mutex

	equipments      map[uint64]entities.Equipment
	movements       []entities.Movement
	users           map[uint64]entities.User
	nextEquipmentID uint64
	nextMovementID  uint64

	// failMovementInsert подменяет ошибку вставки в журнал.
	failMovementInsert error
	clock              time.Time
}

func newMemStore() *memStore {
	return &memStore{
		equipments: make(map[uint64]entities.Equipment),
		users:      make(map[uint64]entities.User),
		clock:      time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

type memSnapshot struct {
	equipments      map[uint64]entities.Equipment
	movements       []entities.Movement
	nextEquipmentID uint64
	nextMovementID  uint64
}

func (s *memStore) snapshot() memSnapshot {
	eq := make(map[uint64]entities.Equipment, len(s.equipments))
	for k, v := range s.equipments {
		eq[k] = v
	}
	return memSnapshot{
		equipments:      eq,
		movements:       append([]entities.Movement(nil), s.movements...),
		nextEquipmentID: s.nextEquipmentID,
		nextMovementID:  s.nextMovementID,
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.equipments = snap.equipments
	s.movements = snap.movements
	s.nextEquipmentID = snap.nextEquipmentID
	s.nextMovementID = snap.nextMovementID
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// seedEquipment кладёт оборудование напрямую, минуя сервис.
func (s *memStore) seedEquipment(state entities.LocationState) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEquipmentID++
	id := s.nextEquipmentID
	s.equipments[id] = entities.Equipment{
		ID:            id,
		Code:          fmt.Sprintf("EQ%03d", id),
		Name:          "Аппарат ИВЛ",
		Serial:        fmt.Sprintf("SN-%d", id),
		Category:      entities.CategoryBiomedical,
		OwnerName:     "ООО МедТех",
		OwnerCategory: entities.OwnerSupplier,
		Frequency:     entities.FrequencyOccasional,
		QRCode:        fmt.Sprintf("SN-%d", id),
		LocationState: state,
		IsActive:      true,
	}
	return id
}

func (s *memStore) equipment(id uint64) entities.Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equipments[id]
}

func (s *memStore) movementsOf(id uint64) []entities.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Movement
	for _, m := range s.movements {
		if m.EquipmentID == id {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

type fakeTxManager struct {
	store *memStore
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.store.restore(snap)
			panic(p)
		}
		if err != nil {
			m.store.restore(snap)
		}
	}()

	if err = fn(nil); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}
	return nil
}

// fakeEquipmentRepo: методы *InTx вызываются под mu, остальные берут его сами.
type fakeEquipmentRepo struct {
	store *memStore
}

func (r *fakeEquipmentRepo) CreateInTx(_ context.Context, _ pgx.Tx, e *entities.Equipment) error {
	s := r.store
	if e.Code != "" {
		for _, other := range s.equipments {
			if other.Code == e.Code {
				return apperrors.NewValidationError("Ошибка валидации", map[string]string{"code": "код уже используется"})
			}
		}
	}
	s.nextEquipmentID++
	e.ID = s.nextEquipmentID
	e.IsActive = true
	e.CreatedAt = s.tick()
	e.UpdatedAt = e.CreatedAt
	s.equipments[e.ID] = *e
	return nil
}

func (r *fakeEquipmentRepo) AssignCodeInTx(_ context.Context, _ pgx.Tx, id uint64, code string) error {
	e, ok := r.store.equipments[id]
	if !ok {
		return apperrors.NewNotFoundError("Оборудование", id)
	}
	for otherID, other := range r.store.equipments {
		if otherID != id && other.Code == code {
			return apperrors.NewValidationError("Ошибка валидации", map[string]string{"code": "код уже используется"})
		}
	}
	e.Code = code
	r.store.equipments[id] = e
	return nil
}

func (r *fakeEquipmentRepo) FindForUpdateInTx(_ context.Context, _ pgx.Tx, id uint64) (*entities.Equipment, error) {
	e, ok := r.store.equipments[id]
	if !ok || !e.IsActive {
		return nil, apperrors.NewNotFoundError("Оборудование", id)
	}
	return &e, nil
}

func (r *fakeEquipmentRepo) UpdateLocationInTx(_ context.Context, _ pgx.Tx, id uint64, state entities.LocationState) (time.Time, error) {
	e, ok := r.store.equipments[id]
	if !ok || !e.IsActive {
		return time.Time{}, apperrors.NewNotFoundError("Оборудование", id)
	}
	e.LocationState = state
	e.UpdatedAt = r.store.tick()
	r.store.equipments[id] = e
	return e.UpdatedAt, nil
}

func (r *fakeEquipmentRepo) FindByID(_ context.Context, id uint64) (*entities.Equipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.equipments[id]
	if !ok || !e.IsActive {
		return nil, apperrors.NewNotFoundError("Оборудование", id)
	}
	return &e, nil
}

func (r *fakeEquipmentRepo) FindByQRCode(_ context.Context, qr string) (*entities.Equipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.equipments {
		if e.QRCode == qr && e.IsActive {
			return &e, nil
		}
	}
	return nil, apperrors.NewNotFoundByKeyError("Оборудование", qr)
}

func (r *fakeEquipmentRepo) GetEquipments(_ context.Context, f entities.EquipmentFilter) ([]entities.Equipment, uint64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	items := make([]entities.Equipment, 0)
	for _, e := range r.store.equipments {
		if !e.IsActive {
			continue
		}
		if f.LocationState != "" && e.LocationState != f.LocationState {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Frequency != "" && e.Frequency != f.Frequency {
			continue
		}
		items = append(items, e)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	total := uint64(len(items))
	return page(items, f.Limit, f.Offset), total, nil
}

func (r *fakeEquipmentRepo) Update(_ context.Context, id uint64, c entities.EquipmentChanges) (*entities.Equipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.equipments[id]
	if !ok || !e.IsActive {
		return nil, apperrors.NewNotFoundError("Оборудование", id)
	}
	if c.Name != nil {
		e.Name = *c.Name
	}
	if c.Serial != nil {
		e.Serial = *c.Serial
	}
	if c.OwnerName != nil {
		e.OwnerName = *c.OwnerName
	}
	if c.OwnerCategory != nil {
		e.OwnerCategory = *c.OwnerCategory
	}
	r.store.equipments[id] = e
	return &e, nil
}

func (r *fakeEquipmentRepo) SoftDelete(_ context.Context, id uint64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.equipments[id]
	if !ok || !e.IsActive {
		return apperrors.NewNotFoundError("Оборудование", id)
	}
	e.IsActive = false
	r.store.equipments[id] = e
	return nil
}

type fakeMovementRepo struct {
	store *memStore
}

func (r *fakeMovementRepo) CreateInTx(_ context.Context, _ pgx.Tx, m *entities.Movement) error {
	s := r.store
	if s.failMovementInsert != nil {
		return s.failMovementInsert
	}
	for _, other := range s.movements {
		if other.LogCode == m.LogCode {
			return errors.New("duplicate key value violates unique constraint \"movements_log_code_key\"")
		}
	}
	s.nextMovementID++
	m.ID = s.nextMovementID
	m.CreatedAt = s.tick()
	s.movements = append(s.movements, *m)
	return nil
}

func (r *fakeMovementRepo) view(m entities.Movement) entities.MovementView {
	e := r.store.equipments[m.EquipmentID]
	v := entities.MovementView{
		Movement:        m,
		EquipmentCode:   e.Code,
		EquipmentName:   e.Name,
		EquipmentSerial: e.Serial,
		OwnerName:       e.OwnerName,
		CurrentState:    e.LocationState,
	}
	if m.ResponsibleUserID.Valid {
		if u, ok := r.store.users[uint64(m.ResponsibleUserID.Int64)]; ok {
			v.ResponsibleName.SetValid(u.Name)
		}
	}
	return v
}

func (r *fakeMovementRepo) matching(f entities.MovementFilter) []entities.MovementView {
	items := make([]entities.MovementView, 0)
	for _, m := range r.store.movements {
		if f.DateFrom != nil && m.CreatedAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && !m.CreatedAt.Before(*f.DateTo) {
			continue
		}
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		if f.EquipmentID != 0 && m.EquipmentID != f.EquipmentID {
			continue
		}
		items = append(items, r.view(m))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items
}

func (r *fakeMovementRepo) GetMovements(_ context.Context, f entities.MovementFilter) ([]entities.MovementView, uint64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	items := r.matching(f)
	return page(items, f.Limit, f.Offset), uint64(len(items)), nil
}

func (r *fakeMovementRepo) FindByEquipmentID(ctx context.Context, id uint64, limit, offset int) ([]entities.MovementView, uint64, error) {
	return r.GetMovements(ctx, entities.MovementFilter{EquipmentID: id, Limit: limit, Offset: offset})
}

func (r *fakeMovementRepo) CountByKind(_ context.Context, f entities.MovementFilter) (map[entities.MovementKind]uint64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	counts := make(map[entities.MovementKind]uint64)
	for _, v := range r.matching(f) {
		counts[v.Kind]++
	}
	return counts, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// failingMovementRepo ломает чтение журнала, чтобы проверить перевод в PersistenceError.
type failingMovementRepo struct {
	repositories.MovementRepositoryInterface
	err error
}

func (r *failingMovementRepo) GetMovements(context.Context, entities.MovementFilter) ([]entities.MovementView, uint64, error) {
	return nil, 0, r.err
}

func (r *failingMovementRepo) FindByEquipmentID(context.Context, uint64, int, int) ([]entities.MovementView, uint64, error) {
	return nil, 0, r.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) published() []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventbus.Event(nil), p.events...)
}
