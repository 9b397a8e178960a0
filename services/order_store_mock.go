package services

import (
	"context"
	"sort"
	"sync"

	"github.com/kendall-kelly/order-intake/models"
)

// MockOrderStore is an in-memory OrderStore for tests
type MockOrderStore struct {
	mu             sync.RWMutex
	products       map[uint]models.Product
	paymentMethods []models.PaymentMethod
	inflowSources  []models.InflowSource
	orders         map[uint]*models.Order
	nextID         uint

	// CreateErr, when set, is returned by CreateOrder instead of storing anything
	CreateErr error
}

// NewMockOrderStore creates a mock store holding the given catalog
func NewMockOrderStore(products []models.Product, methods []models.PaymentMethod, sources []models.InflowSource) *MockOrderStore {
	m := &MockOrderStore{
		products:       make(map[uint]models.Product, len(products)),
		paymentMethods: methods,
		inflowSources:  sources,
		orders:         make(map[uint]*models.Order),
		nextID:         1,
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

// SetAsMockForTesting sets this mock as the process-wide store
func (m *MockOrderStore) SetAsMockForTesting() {
	SetOrderStore(m)
}

// SetProductPrice changes a catalog price
func (m *MockOrderStore) SetProductPrice(id uint, price int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.ID = id
	p.Price = price
	m.products[id] = p
}

// DeleteProduct removes a product from the catalog
func (m *MockOrderStore) DeleteProduct(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

// CreateOrder stores a copy of the order
func (m *MockOrderStore) CreateOrder(_ context.Context, header *models.Order, lines []models.OrderProduct, inflowSourceIDs []uint) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	for _, line := range lines {
		if _, ok := m.products[line.ProductID]; !ok {
			return 0, &PersistenceError{Code: CodeProductNotFound, Message: "product no longer exists", Err: ErrNotFound}
		}
	}

	stored := *header
	stored.ID = m.nextID
	m.nextID++
	stored.OrderProducts = make([]models.OrderProduct, len(lines))
	for i, line := range lines {
		stored.OrderProducts[i] = models.OrderProduct{ID: uint(i + 1), OrderID: stored.ID, ProductID: line.ProductID, Quantity: line.Quantity}
	}
	stored.OrderInflowSources = nil
	stored.SetInflowSourceIDs(inflowSourceIDs)
	m.orders[stored.ID] = &stored

	header.ID = stored.ID
	return stored.ID, nil
}

// GetOrder returns a stored order
func (m *MockOrderStore) GetOrder(_ context.Context, id uint) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

// Orders returns every stored order by id
func (m *MockOrderStore) Orders() []*models.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetProduct returns a catalog entry
func (m *MockOrderStore) GetProduct(_ context.Context, id uint) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ListProducts returns the catalog ordered by id
func (m *MockOrderStore) ListProducts(_ context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListPaymentMethods returns the configured payment methods
func (m *MockOrderStore) ListPaymentMethods(_ context.Context) ([]models.PaymentMethod, error) {
	return m.paymentMethods, nil
}

// ListInflowSources returns the configured inflow sources
func (m *MockOrderStore) ListInflowSources(_ context.Context) ([]models.InflowSource, error) {
	return m.inflowSources, nil
}
