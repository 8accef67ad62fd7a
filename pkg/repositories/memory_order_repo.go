package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
)

// MemoryOrderRepository keeps orders in process memory. Used when STORAGE_DRIVER=memory and in tests.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	nextID int64
	orders []models.Order
	closed bool
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make([]models.Order, 0)}
}

func (m *MemoryOrderRepository) Create(ctx context.Context, draft models.OrderDraft, createdAt time.Time) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return models.Order{}, pkg.ErrStorageUnavailable
	}
	m.nextID++
	order := models.Order{
		ID:           m.nextID,
		Side:         draft.Side,
		Tenor:        draft.Tenor,
		IssuanceType: draft.IssuanceType,
		Quantity:     draft.Quantity,
		Yield:        draft.Yield,
		Notes:        draft.Notes,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	m.orders = append(m.orders, order)
	return order, nil
}

// FindAll returns a copy; appends happen in id order so the slice is already ascending.
func (m *MemoryOrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, pkg.ErrStorageUnavailable
	}
	out := make([]models.Order, len(m.orders))
	copy(out, m.orders)
	return out, nil
}

func (m *MemoryOrderRepository) FindById(ctx context.Context, id int64) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return models.Order{}, pkg.ErrStorageUnavailable
	}
	if id < 1 || id > int64(len(m.orders)) {
		return models.Order{}, pkg.ErrRecordNotFound
	}
	return m.orders[id-1], nil
}

// Close makes every later call fail with pkg.ErrStorageUnavailable.
func (m *MemoryOrderRepository) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}
