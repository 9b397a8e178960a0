package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/order-intake/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// Persistence error codes
const (
	CodeProductNotFound       = "PRODUCT_NOT_FOUND"
	CodePaymentMethodNotFound = "PAYMENT_METHOD_NOT_FOUND"
	CodeInflowSourceNotFound  = "INFLOW_SOURCE_NOT_FOUND"
	CodeDatabaseError         = "DATABASE_ERROR"
)

// PersistenceError means an order could not be committed. Nothing was written.
type PersistenceError struct {
	Code    string
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// OrderStore is the persistence collaborator of the checkout flow
type OrderStore interface {
	// CreateOrder writes the header, its lines and inflow source links in one transaction
	CreateOrder(ctx context.Context, header *models.Order, lines []models.OrderProduct, inflowSourceIDs []uint) (uint, error)

	// GetOrder loads a persisted order with its lines and inflow source links
	GetOrder(ctx context.Context, id uint) (*models.Order, error)

	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	ListInflowSources(ctx context.Context) ([]models.InflowSource, error)
}

// GormOrderStore implements OrderStore on a gorm database
type GormOrderStore struct {
	db *gorm.DB
}

var orderStoreInstance OrderStore

// NewGormOrderStore creates a store backed by db
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

// InitOrderStore installs a gorm-backed store as the process-wide instance
func InitOrderStore(db *gorm.DB) OrderStore {
	orderStoreInstance = NewGormOrderStore(db)
	return orderStoreInstance
}

// GetOrderStore returns the process-wide store
func GetOrderStore() OrderStore {
	return orderStoreInstance
}

// SetOrderStore replaces the process-wide store (primarily for testing)
func SetOrderStore(store OrderStore) {
	orderStoreInstance = store
}

// CreateOrder commits the order or nothing at all
func (s *GormOrderStore) CreateOrder(ctx context.Context, header *models.Order, lines []models.OrderProduct, inflowSourceIDs []uint) (uint, error) {
	origLines, origLinks := header.OrderProducts, header.OrderInflowSources
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := verifyReferences(tx, header, lines, inflowSourceIDs); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(header).Error; err != nil {
			return &PersistenceError{Code: CodeDatabaseError, Message: "failed to create order", Err: err}
		}

		if len(lines) > 0 {
			rows := make([]models.OrderProduct, len(lines))
			for i, line := range lines {
				rows[i] = models.OrderProduct{OrderID: header.ID, ProductID: line.ProductID, Quantity: line.Quantity}
				if rows[i].Quantity == 0 {
					rows[i].Quantity = models.DefaultQuantity
				}
			}
			if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
				return &PersistenceError{Code: CodeDatabaseError, Message: "failed to create order products", Err: err}
			}
			header.OrderProducts = rows
		}

		header.OrderInflowSources = nil
		header.SetInflowSourceIDs(inflowSourceIDs)
		if len(header.OrderInflowSources) > 0 {
			for i := range header.OrderInflowSources {
				header.OrderInflowSources[i].OrderID = header.ID
			}
			if err := tx.Omit(clause.Associations).Create(&header.OrderInflowSources).Error; err != nil {
				return &PersistenceError{Code: CodeDatabaseError, Message: "failed to link inflow sources", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		header.ID = 0
		header.OrderProducts, header.OrderInflowSources = origLines, origLinks
		var perr *PersistenceError
		if errors.As(err, &perr) {
			return 0, perr
		}
		return 0, &PersistenceError{Code: CodeDatabaseError, Message: "failed to commit order", Err: err}
	}
	return header.ID, nil
}

// verifyReferences checks every foreign key inside the transaction so a catalog change
// between confirmation and commit is reported instead of half-written.
func verifyReferences(tx *gorm.DB, header *models.Order, lines []models.OrderProduct, inflowSourceIDs []uint) error {
	if header.PaymentMethodID != nil {
		if err := exists(tx, &models.PaymentMethod{}, *header.PaymentMethodID); err != nil {
			return referenceError(CodePaymentMethodNotFound, "payment method", *header.PaymentMethodID, err)
		}
	}
	for _, line := range lines {
		if err := exists(tx, &models.Product{}, line.ProductID); err != nil {
			return referenceError(CodeProductNotFound, "product", line.ProductID, err)
		}
	}
	for _, id := range inflowSourceIDs {
		if err := exists(tx, &models.InflowSource{}, id); err != nil {
			return referenceError(CodeInflowSourceNotFound, "inflow source", id, err)
		}
	}
	return nil
}

func exists(tx *gorm.DB, model interface{}, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func referenceError(code, what string, id uint, err error) error {
	if errors.Is(err, ErrNotFound) {
		return &PersistenceError{Code: code, Message: fmt.Sprintf("%s %d no longer exists", what, id), Err: err}
	}
	return &PersistenceError{Code: CodeDatabaseError, Message: fmt.Sprintf("failed to look up %s %d", what, id), Err: err}
}

// GetOrder loads an order with lines and inflow links in insertion order
func (s *GormOrderStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("OrderProducts", func(db *gorm.DB) *gorm.DB { return db.Order("order_products.id ASC") }).
		Preload("OrderInflowSources", func(db *gorm.DB) *gorm.DB { return db.Order("order_inflow_sources.id ASC") }).
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// GetProduct returns the current catalog entry for id
func (s *GormOrderStore) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// ListProducts returns the catalog ordered by id
func (s *GormOrderStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListPaymentMethods returns the payment methods ordered by id
func (s *GormOrderStore) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&methods).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return methods, nil
}

// ListInflowSources returns the inflow sources ordered by id
func (s *GormOrderStore) ListInflowSources(ctx context.Context) ([]models.InflowSource, error) {
	var sources []models.InflowSource
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("failed to list inflow sources: %w", err)
	}
	return sources, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
