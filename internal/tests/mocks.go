package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"parking/internal/domain"
	"parking/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK SPACE REPOSITORY
// ──────────────────────────────────────────────

// MockSpaceRepository is a mock implementation of SpaceRepository. The
// compare-and-swap runs under the mutex, so it has the same single-winner
// semantics as the conditional UPDATE it stands in for.
type MockSpaceRepository struct {
	mu     sync.RWMutex
	spaces map[string]*domain.Space

	// Counters for verification
	CreateCallCount int32
	CASCallCount    int32

	// Error injection
	CreateError error
	CASError    error
}

// NewMockSpaceRepository creates a new mock space repository.
func NewMockSpaceRepository() *MockSpaceRepository {
	return &MockSpaceRepository{
		spaces: make(map[string]*domain.Space),
	}
}

// AddSpace adds a space to the mock repository.
func (m *MockSpaceRepository) AddSpace(space *domain.Space) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spaces[space.ID] = space
}

func (m *MockSpaceRepository) Create(ctx context.Context, space *domain.Space) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spaces[space.ID] = space
	return nil
}

func (m *MockSpaceRepository) GetByID(ctx context.Context, id string) (*domain.Space, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	space, ok := m.spaces[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *space
	return &copy, nil
}

func (m *MockSpaceRepository) ListAvailable(ctx context.Context, filter repository.SpaceFilter) ([]*domain.Space, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Space
	for _, s := range m.spaces {
		if s.State != domain.SpaceStateUnoccupied {
			continue
		}
		if filter.LotID != "" && s.LotID != filter.LotID {
			continue
		}
		if filter.VehicleClass != "" && s.VehicleClass != filter.VehicleClass {
			continue
		}
		copy := *s
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockSpaceRepository) CompareAndSetState(ctx context.Context, id string, from []domain.SpaceState, to domain.SpaceState) (bool, error) {
	atomic.AddInt32(&m.CASCallCount, 1)
	if m.CASError != nil {
		return false, m.CASError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	space, ok := m.spaces[id]
	if !ok {
		return false, nil
	}
	for _, state := range from {
		if space.State == state {
			space.State = to
			return true, nil
		}
	}
	return false, nil
}

func (m *MockSpaceRepository) CountAvailableByClass(ctx context.Context, lotID string) (map[domain.VehicleClass]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[domain.VehicleClass]int)
	for _, s := range m.spaces {
		if s.LotID == lotID && s.State == domain.SpaceStateUnoccupied {
			counts[s.VehicleClass]++
		}
	}
	return counts, nil
}

// GetSpace returns a space for test assertions.
func (m *MockSpaceRepository) GetSpace(id string) *domain.Space {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.spaces[id]
}

// ──────────────────────────────────────────────
// MOCK LOT REPOSITORY
// ──────────────────────────────────────────────

// MockLotRepository is a mock implementation of LotRepository.
type MockLotRepository struct {
	mu   sync.RWMutex
	lots map[string]*domain.Lot

	CreateError error
	UpdateError error
}

// NewMockLotRepository creates a new mock lot repository.
func NewMockLotRepository() *MockLotRepository {
	return &MockLotRepository{
		lots: make(map[string]*domain.Lot),
	}
}

// AddLot adds a lot to the mock repository.
func (m *MockLotRepository) AddLot(lot *domain.Lot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lots[lot.ID] = lot
}

func (m *MockLotRepository) Create(ctx context.Context, lot *domain.Lot) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lots[lot.ID] = lot
	return nil
}

func (m *MockLotRepository) GetByID(ctx context.Context, id string) (*domain.Lot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lot, ok := m.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *lot
	return &copy, nil
}

func (m *MockLotRepository) GetAll(ctx context.Context) ([]*domain.Lot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Lot, 0, len(m.lots))
	for _, l := range m.lots {
		copy := *l
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockLotRepository) Update(ctx context.Context, lot *domain.Lot) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lots[lot.ID]; !ok {
		return repository.ErrNotFound
	}
	m.lots[lot.ID] = lot
	return nil
}

// ──────────────────────────────────────────────
// MOCK OCCUPANCY REPOSITORY
// ──────────────────────────────────────────────

// MockOccupancyRepository is a mock implementation of OccupancyRepository.
// SpaceLots maps space IDs to lot IDs so ListActive can filter by lot the
// way the SQL join does.
type MockOccupancyRepository struct {
	mu          sync.RWMutex
	occupancies map[string]*domain.Occupancy
	SpaceLots   map[string]string

	CreateCallCount    int32
	StatusCASCallCount int32

	CreateError    error
	StatusCASError error

	// GetByIDHook, when set, runs after each successful read with a copy of
	// the occupancy. Tests use it to interleave concurrent callers.
	GetByIDHook func(occ *domain.Occupancy)
}

// NewMockOccupancyRepository creates a new mock occupancy repository.
func NewMockOccupancyRepository() *MockOccupancyRepository {
	return &MockOccupancyRepository{
		occupancies: make(map[string]*domain.Occupancy),
		SpaceLots:   make(map[string]string),
	}
}

// AddOccupancy adds an occupancy to the mock repository.
func (m *MockOccupancyRepository) AddOccupancy(occ *domain.Occupancy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occupancies[occ.ID] = occ
}

func (m *MockOccupancyRepository) Create(ctx context.Context, occ *domain.Occupancy) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *occ
	m.occupancies[occ.ID] = &copy
	return nil
}

func (m *MockOccupancyRepository) GetByID(ctx context.Context, id string) (*domain.Occupancy, error) {
	m.mu.RLock()
	occ, ok := m.occupancies[id]
	var copy domain.Occupancy
	if ok {
		copy = *occ
	}
	m.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	if m.GetByIDHook != nil {
		m.GetByIDHook(&copy)
	}
	return &copy, nil
}

// UpdateStatusIf performs the conditional write under the mutex, so it has
// the same single-winner semantics as the conditional UPDATE it stands in for.
func (m *MockOccupancyRepository) UpdateStatusIf(ctx context.Context, occ *domain.Occupancy, from domain.OccupancyStatus) (bool, error) {
	atomic.AddInt32(&m.StatusCASCallCount, 1)
	if m.StatusCASError != nil {
		return false, m.StatusCASError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.occupancies[occ.ID]
	if !ok || stored.Status != from {
		return false, nil
	}
	copy := *occ
	m.occupancies[occ.ID] = &copy
	return true, nil
}

func (m *MockOccupancyRepository) ListActive(ctx context.Context, lotID string) ([]*domain.Occupancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Occupancy
	for _, occ := range m.occupancies {
		if occ.Status != domain.OccupancyStatusActive {
			continue
		}
		if lotID != "" && m.SpaceLots[occ.SpaceID] != lotID {
			continue
		}
		copy := *occ
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockOccupancyRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Occupancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Occupancy
	for _, occ := range m.occupancies {
		if occ.UserID == userID {
			copy := *occ
			result = append(result, &copy)
		}
	}
	sortByEntryTime(result)
	return result, nil
}

func (m *MockOccupancyRepository) ListByVehicle(ctx context.Context, vehicleID string) ([]*domain.Occupancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Occupancy
	for _, occ := range m.occupancies {
		if occ.VehicleID == vehicleID {
			copy := *occ
			result = append(result, &copy)
		}
	}
	sortByEntryTime(result)
	return result, nil
}

func (m *MockOccupancyRepository) ListStaleReserved(ctx context.Context, cutoff time.Time) ([]*domain.Occupancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Occupancy
	for _, occ := range m.occupancies {
		if occ.Status == domain.OccupancyStatusReserved && occ.CreatedAt.Before(cutoff) {
			copy := *occ
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetOccupancy returns an occupancy for test assertions.
func (m *MockOccupancyRepository) GetOccupancy(id string) *domain.Occupancy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.occupancies[id]
}

func sortByEntryTime(occupancies []*domain.Occupancy) {
	sort.Slice(occupancies, func(i, j int) bool {
		return occupancies[i].EntryTime.Before(occupancies[j].EntryTime)
	})
}

// ──────────────────────────────────────────────
// MOCK BILL REPOSITORY
// ──────────────────────────────────────────────

// MockBillRepository is a mock implementation of BillRepository.
type MockBillRepository struct {
	mu    sync.RWMutex
	bills map[string]*domain.Bill

	CreateCallCount int32

	CreateError   error
	MarkPaidError error
}

// NewMockBillRepository creates a new mock bill repository.
func NewMockBillRepository() *MockBillRepository {
	return &MockBillRepository{
		bills: make(map[string]*domain.Bill),
	}
}

// AddBill adds a bill to the mock repository.
func (m *MockBillRepository) AddBill(bill *domain.Bill) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills[bill.ID] = bill
}

func (m *MockBillRepository) Create(ctx context.Context, bill *domain.Bill) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *bill
	m.bills[bill.ID] = &copy
	return nil
}

func (m *MockBillRepository) GetByID(ctx context.Context, id string) (*domain.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bill, ok := m.bills[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *bill
	return &copy, nil
}

func (m *MockBillRepository) GetByOccupancyID(ctx context.Context, occupancyID string) (*domain.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bills {
		if b.OccupancyID == occupancyID {
			copy := *b
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockBillRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	if m.MarkPaidError != nil {
		return false, m.MarkPaidError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bill, ok := m.bills[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if bill.Status != domain.PaymentStatusPending {
		return false, nil
	}
	bill.Status = domain.PaymentStatusPaid
	bill.PaymentTime = paidAt
	return true, nil
}

// GetBill returns a bill for test assertions.
func (m *MockBillRepository) GetBill(id string) *domain.Bill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bills[id]
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle

	CreateCallCount int32

	CreateError error
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetByRegistration(ctx context.Context, registration string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.vehicles {
		if v.Registration == registration {
			copy := *v
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockVehicleRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Vehicle
	for _, v := range m.vehicles {
		if v.OwnerID == ownerID {
			copy := *v
			result = append(result, &copy)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface with SetNX
// semantics.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireCallCount int32

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireSpaceLock(ctx context.Context, spaceID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[spaceID] {
		return false, nil
	}
	m.locks[spaceID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseSpaceLock(ctx context.Context, spaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, spaceID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK VERIFICATION STORE
// ──────────────────────────────────────────────

// MockVerificationStore is a mock implementation of VerificationStoreInterface.
type MockVerificationStore struct {
	mu     sync.RWMutex
	checks map[string]map[string]bool

	SetCheckError error

	// GetChecksHook, when set, runs after each read, before the result is
	// returned. Tests use it to interleave concurrent callers.
	GetChecksHook func(occupancyID string)
}

// NewMockVerificationStore creates a new mock verification store.
func NewMockVerificationStore() *MockVerificationStore {
	return &MockVerificationStore{
		checks: make(map[string]map[string]bool),
	}
}

func (m *MockVerificationStore) SetCheck(ctx context.Context, occupancyID, check string, value bool) error {
	if m.SetCheckError != nil {
		return m.SetCheckError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checks[occupancyID] == nil {
		m.checks[occupancyID] = make(map[string]bool)
	}
	m.checks[occupancyID][check] = value
	return nil
}

func (m *MockVerificationStore) GetChecks(ctx context.Context, occupancyID string) (map[string]bool, error) {
	m.mu.RLock()
	result := make(map[string]bool, len(m.checks[occupancyID]))
	for k, v := range m.checks[occupancyID] {
		result[k] = v
	}
	m.mu.RUnlock()
	if m.GetChecksHook != nil {
		m.GetChecksHook(occupancyID)
	}
	return result, nil
}

func (m *MockVerificationStore) Clear(ctx context.Context, occupancyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checks, occupancyID)
	return nil
}

// HasChecks reports whether any checklist state remains for an occupancy.
func (m *MockVerificationStore) HasChecks(occupancyID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checks[occupancyID]) > 0
}
