package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	operatordomain "drone-flight-tracker/internal/operator/domain"
	vehicledomain "drone-flight-tracker/internal/vehicle/domain"
)

// mockOperatorRepo implements operatorrepo.Repository for tests.
type mockOperatorRepo struct {
	mu        sync.Mutex
	operators map[string]*operatordomain.Operator
	creates   int
	getErr    error
}

func newMockOperatorRepo() *mockOperatorRepo {
	return &mockOperatorRepo{operators: map[string]*operatordomain.Operator{}}
}

func (m *mockOperatorRepo) GetByID(ctx context.Context, id string) (*operatordomain.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.operators[id], nil
}

func (m *mockOperatorRepo) Create(ctx context.Context, o *operatordomain.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if _, ok := m.operators[o.ID]; !ok {
		m.operators[o.ID] = o
	}
	return nil
}

// mockVehicleRepo implements vehiclerepo.Repository for tests.
type mockVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[string]*vehicledomain.Vehicle // keyed by external id
	creates  int
}

func newMockVehicleRepo() *mockVehicleRepo {
	return &mockVehicleRepo{vehicles: map[string]*vehicledomain.Vehicle{}}
}

func (m *mockVehicleRepo) GetByExternalID(ctx context.Context, externalID string) (*vehicledomain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vehicles[externalID], nil
}

func (m *mockVehicleRepo) Create(ctx context.Context, v *vehicledomain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	m.vehicles[v.ExternalID] = v
	return nil
}

func (m *mockVehicleRepo) MarkActive(ctx context.Context, id string, at time.Time, operatorID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.ID != id {
			continue
		}
		v.Status = vehicledomain.StatusActive
		if v.LastActiveAt == nil || at.After(*v.LastActiveAt) {
			t := at
			v.LastActiveAt = &t
		}
		if operatorID != nil {
			v.OperatorID = operatorID
		}
	}
	return nil
}

func (m *mockVehicleRepo) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.ID == id {
			v.Status = vehicledomain.StatusInactive
		}
	}
	return nil
}

func (m *mockVehicleRepo) ListStale(ctx context.Context, cutoff time.Time) ([]*vehicledomain.Vehicle, error) {
	return nil, nil
}

func TestResolve_CreatesVehicleAndOperator(t *testing.T) {
	ops := newMockOperatorRepo()
	vehicles := newMockVehicleRepo()
	r := NewResolver(ops, vehicles)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	v, op, err := r.Resolve(context.Background(), "drone_01", "pilot_01", at)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v == nil || v.ExternalID != "drone_01" {
		t.Fatalf("vehicle = %+v, want external id drone_01", v)
	}
	if v.Status != vehicledomain.StatusActive {
		t.Errorf("status = %q, want active", v.Status)
	}
	if v.LastActiveAt == nil || !v.LastActiveAt.Equal(at) {
		t.Errorf("last active = %v, want %v", v.LastActiveAt, at)
	}
	if op == nil || op.ID != "pilot_01" {
		t.Fatalf("operator = %+v, want pilot_01", op)
	}
	if op.Name != "pilot_01" {
		t.Errorf("operator name = %q, want display name defaulting to id", op.Name)
	}
	if v.OperatorID == nil || *v.OperatorID != "pilot_01" {
		t.Errorf("vehicle operator link = %v, want pilot_01", v.OperatorID)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	ops := newMockOperatorRepo()
	vehicles := newMockVehicleRepo()
	r := NewResolver(ops, vehicles)
	at := time.Now().UTC()

	for i := 0; i < 5; i++ {
		if _, _, err := r.Resolve(context.Background(), "drone_01", "pilot_01", at.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
	}
	if len(vehicles.vehicles) != 1 || vehicles.creates != 1 {
		t.Errorf("vehicle rows = %d (creates %d), want exactly 1", len(vehicles.vehicles), vehicles.creates)
	}
	if len(ops.operators) != 1 || ops.creates != 1 {
		t.Errorf("operator rows = %d (creates %d), want exactly 1", len(ops.operators), ops.creates)
	}
}

func TestResolve_NoOperator(t *testing.T) {
	ops := newMockOperatorRepo()
	vehicles := newMockVehicleRepo()
	r := NewResolver(ops, vehicles)

	v, op, err := r.Resolve(context.Background(), "drone_02", "", time.Now().UTC())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if op != nil {
		t.Errorf("operator = %+v, want nil when no pilot id present", op)
	}
	if v.OperatorID != nil {
		t.Errorf("vehicle operator link = %v, want nil", v.OperatorID)
	}
	if len(ops.operators) != 0 {
		t.Errorf("operator rows = %d, want 0", len(ops.operators))
	}
}

func TestResolve_RelinksChangedOperator(t *testing.T) {
	ops := newMockOperatorRepo()
	vehicles := newMockVehicleRepo()
	r := NewResolver(ops, vehicles)
	at := time.Now().UTC()

	if _, _, err := r.Resolve(context.Background(), "drone_01", "pilot_01", at); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	v, _, err := r.Resolve(context.Background(), "drone_01", "pilot_02", at.Add(time.Second))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.OperatorID == nil || *v.OperatorID != "pilot_02" {
		t.Errorf("vehicle operator link = %v, want pilot_02 after relink", v.OperatorID)
	}
	if len(ops.operators) != 2 {
		t.Errorf("operator rows = %d, want 2", len(ops.operators))
	}
}

func TestResolve_LastActiveMonotonic(t *testing.T) {
	ops := newMockOperatorRepo()
	vehicles := newMockVehicleRepo()
	r := NewResolver(ops, vehicles)
	t1 := time.Date(2025, 3, 1, 12, 0, 10, 0, time.UTC)
	t0 := t1.Add(-5 * time.Second)

	if _, _, err := r.Resolve(context.Background(), "drone_01", "", t1); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Late redelivery with an older timestamp must not move last-active backwards.
	v, _, err := r.Resolve(context.Background(), "drone_01", "", t0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.LastActiveAt == nil || !v.LastActiveAt.Equal(t1) {
		t.Errorf("last active = %v, want %v (monotonic)", v.LastActiveAt, t1)
	}
}

func TestResolve_OperatorStoreError(t *testing.T) {
	ops := newMockOperatorRepo()
	ops.getErr = errors.New("connection reset")
	vehicles := newMockVehicleRepo()
	r := NewResolver(ops, vehicles)

	if _, _, err := r.Resolve(context.Background(), "drone_01", "pilot_01", time.Now().UTC()); err == nil {
		t.Fatal("Resolve should propagate store errors")
	}
	if len(vehicles.vehicles) != 0 {
		t.Error("no vehicle should be created when operator resolution fails")
	}
}
