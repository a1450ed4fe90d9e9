package registrations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexwebinar/backend/internal/models"
)

// memStore is an in-memory Store. Tx serializes on a mutex the way the SQL
// implementation serializes on the webinar row lock.
type memStore struct {
	mu       sync.Mutex
	webinars map[uuid.UUID]*WebinarSeat
	regs     []*models.Registration
	inTx     bool
}

func newMemStore() *memStore {
	return &memStore{webinars: make(map[uuid.UUID]*WebinarSeat)}
}

func (m *memStore) Tx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inTx = true
	defer func() { m.inTx = false }()
	return fn(m)
}

func (m *memStore) lockUnlessTx() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) GetWebinar(_ context.Context, id uuid.UUID) (*WebinarSeat, error) {
	defer m.lockUnlessTx()()
	w, ok := m.webinars[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (m *memStore) GetWebinarForUpdate(ctx context.Context, id uuid.UUID) (*WebinarSeat, error) {
	return m.GetWebinar(ctx, id)
}

func (m *memStore) CountActiveConfirmed(_ context.Context, webinarID uuid.UUID) (int, error) {
	defer m.lockUnlessTx()()
	n := 0
	for _, r := range m.regs {
		if r.WebinarID == webinarID && r.Status == models.RegistrationConfirmed && !r.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountByStatus(_ context.Context, webinarID uuid.UUID, status models.RegistrationStatus) (int, error) {
	defer m.lockUnlessTx()()
	n := 0
	for _, r := range m.regs {
		if r.WebinarID == webinarID && r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetActive(_ context.Context, webinarID, userID uuid.UUID) (*models.Registration, error) {
	defer m.lockUnlessTx()()
	for _, r := range m.regs {
		if r.WebinarID == webinarID && r.UserID == userID && !r.IsDeleted {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetLatest(_ context.Context, webinarID, userID uuid.UUID) (*models.Registration, error) {
	defer m.lockUnlessTx()()
	for i := len(m.regs) - 1; i >= 0; i-- {
		r := m.regs[i]
		if r.WebinarID == webinarID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Create(_ context.Context, reg *models.Registration) error {
	defer m.lockUnlessTx()()
	for _, r := range m.regs {
		if r.WebinarID == reg.WebinarID && r.UserID == reg.UserID && !r.IsDeleted {
			return ErrAlreadyRegistered
		}
	}
	reg.ID = uuid.New()
	reg.RegisteredAt = time.Now()
	cp := *reg
	m.regs = append(m.regs, &cp)
	return nil
}

func (m *memStore) Cancel(_ context.Context, id uuid.UUID, at time.Time) error {
	defer m.lockUnlessTx()()
	for _, r := range m.regs {
		if r.ID == id && !r.IsDeleted {
			r.Status = models.RegistrationCanceled
			r.IsDeleted = true
			r.DeletedAt = &at
			return nil
		}
	}
	return ErrRegistrationNotFound
}

func (m *memStore) ListAll(_ context.Context, page, limit int) ([]models.Registration, int, error) {
	defer m.lockUnlessTx()()
	out := make([]models.Registration, 0, len(m.regs))
	for _, r := range m.regs {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (m *memStore) ListByWebinar(_ context.Context, webinarID uuid.UUID) ([]models.Registration, error) {
	defer m.lockUnlessTx()()
	var out []models.Registration
	for _, r := range m.regs {
		if r.WebinarID == webinarID && !r.IsDeleted {
			out = append(out, *r)
		}
	}
	return out, nil
}

type allUsers struct{}

func (allUsers) Exists(context.Context, uuid.UUID) (bool, error) { return true, nil }

type noUsers struct{}

func (noUsers) Exists(context.Context, uuid.UUID) (bool, error) { return false, nil }

func seedWebinar(store *memStore, capacity int, status models.WebinarStatus) uuid.UUID {
	id := uuid.New()
	store.webinars[id] = &WebinarSeat{
		ID:          id,
		Title:       "Actualité du contentieux fiscal",
		DateTime:    time.Now().Add(48 * time.Hour),
		MaxCapacity: capacity,
		Status:      status,
	}
	return id
}

func TestRegisterHappyPath(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, allUsers{})
	webinarID := seedWebinar(store, 10, models.WebinarScheduled)
	userID := uuid.New()

	res, err := svc.Register(context.Background(), webinarID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, res.Registration.Status)
	assert.Equal(t, webinarID, res.Registration.WebinarID)
	assert.Equal(t, "Actualité du contentieux fiscal", res.Webinar.Title)
}

func TestRegisterUnknownUser(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, noUsers{})
	webinarID := seedWebinar(store, 10, models.WebinarScheduled)

	_, err := svc.Register(context.Background(), webinarID, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegisterUnknownWebinar(t *testing.T) {
	svc := NewService(newMemStore(), allUsers{})
	_, err := svc.Register(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrWebinarNotFound)
}

func TestRegisterClosedWebinar(t *testing.T) {
	for _, status := range []models.WebinarStatus{
		models.WebinarOngoing, models.WebinarCompleted, models.WebinarCanceled,
	} {
		t.Run(string(status), func(t *testing.T) {
			store := newMemStore()
			svc := NewService(store, allUsers{})
			webinarID := seedWebinar(store, 10, status)

			_, err := svc.Register(context.Background(), webinarID, uuid.New())
			assert.ErrorIs(t, err, ErrNotOpen)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, allUsers{})
	webinarID := seedWebinar(store, 10, models.WebinarScheduled)
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.Register(ctx, webinarID, userID)
	require.NoError(t, err)
	_, err = svc.Register(ctx, webinarID, userID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestCapacityBoundary(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, allUsers{})
	webinarID := seedWebinar(store, 2, models.WebinarScheduled)
	ctx := context.Background()

	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()

	_, err := svc.Register(ctx, webinarID, userA)
	require.NoError(t, err)
	_, err = svc.Register(ctx, webinarID, userB)
	require.NoError(t, err)

	// seat 3 of 2
	_, err = svc.Register(ctx, webinarID, userC)
	assert.ErrorIs(t, err, ErrCapacityFull)

	// canceling frees the seat
	_, err = svc.Unregister(ctx, webinarID, userA)
	require.NoError(t, err)
	_, err = svc.Register(ctx, webinarID, userC)
	require.NoError(t, err)

	// and the canceled user can come back once a seat opens again
	_, err = svc.Register(ctx, webinarID, userA)
	assert.ErrorIs(t, err, ErrCapacityFull)
	_, err = svc.Unregister(ctx, webinarID, userB)
	require.NoError(t, err)
	_, err = svc.Register(ctx, webinarID, userA)
	require.NoError(t, err)
}

func TestUnregisterStates(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, allUsers{})
	webinarID := seedWebinar(store, 5, models.WebinarScheduled)
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.Unregister(ctx, webinarID, userID)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)

	_, err = svc.Register(ctx, webinarID, userID)
	require.NoError(t, err)

	res, err := svc.Unregister(ctx, webinarID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCanceled, res.Registration.Status)

	_, err = svc.Unregister(ctx, webinarID, userID)
	assert.ErrorIs(t, err, ErrAlreadyCanceled)
}

func TestStats(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, allUsers{})
	webinarID := seedWebinar(store, 5, models.WebinarScheduled)
	ctx := context.Background()

	userA, userB := uuid.New(), uuid.New()
	_, err := svc.Register(ctx, webinarID, userA)
	require.NoError(t, err)
	_, err = svc.Register(ctx, webinarID, userB)
	require.NoError(t, err)
	_, err = svc.Unregister(ctx, webinarID, userB)
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx, webinarID)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.MaxCapacity)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, 1, stats.Canceled)
	assert.Equal(t, 4, stats.SeatsRemaining)
}

func TestConcurrentRegistrationNeverOversells(t *testing.T) {
	const capacity = 5
	const contenders = 20

	store := newMemStore()
	svc := NewService(store, allUsers{})
	webinarID := seedWebinar(store, capacity, models.WebinarScheduled)

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), webinarID, uuid.New())
		}(i)
	}
	wg.Wait()

	succeeded, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrCapacityFull):
			full++
		}
	}
	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, contenders-capacity, full)

	confirmed, err := store.CountActiveConfirmed(context.Background(), webinarID)
	require.NoError(t, err)
	assert.Equal(t, capacity, confirmed)
}
