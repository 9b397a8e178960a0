package models

import (
	"time"
)

// DefaultQuantity is used for a line item whose quantity was left blank
const DefaultQuantity = 1

// Order is a customer order together with its line items and inflow source selections
type Order struct {
	ID                 uint                `gorm:"primaryKey" json:"id"`
	Name               string              `gorm:"not null" json:"name"`
	Email              string              `gorm:"not null" json:"email"`
	Telephone          string              `gorm:"not null" json:"telephone"`
	DeliveryAddress    string              `gorm:"not null" json:"delivery_address"`
	PaymentMethodID    *uint               `gorm:"not null;index" json:"payment_method_id"`
	PaymentMethod      *PaymentMethod      `gorm:"foreignKey:PaymentMethodID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	OtherComment       string              `gorm:"type:text" json:"other_comment"`
	DirectMailEnabled  *bool               `gorm:"not null" json:"direct_mail_enabled"`
	OrderProducts      []OrderProduct      `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"order_products"`
	OrderInflowSources []OrderInflowSource `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// InflowSourceIDs returns the selected inflow sources in selection order
func (o *Order) InflowSourceIDs() []uint {
	ids := make([]uint, 0, len(o.OrderInflowSources))
	for _, link := range o.OrderInflowSources {
		ids = append(ids, link.InflowSourceID)
	}
	return ids
}

// SetInflowSourceIDs replaces the selections, keeping the given order and dropping duplicates
func (o *Order) SetInflowSourceIDs(ids []uint) {
	seen := make(map[uint]bool, len(ids))
	o.OrderInflowSources = o.OrderInflowSources[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		o.OrderInflowSources = append(o.OrderInflowSources, OrderInflowSource{InflowSourceID: id})
	}
}

// OrderProduct is one line of an order. It is owned by its Order and removed with it;
// a Product cannot be deleted while a line references it.
type OrderProduct struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the OrderProduct model
func (OrderProduct) TableName() string {
	return "order_products"
}

// OrderInflowSource links an order to one selected inflow source.
// Rows are kept in insertion order so the selection order survives a round trip.
type OrderInflowSource struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	OrderID        uint          `gorm:"not null;uniqueIndex:idx_order_inflow_source" json:"order_id"`
	InflowSourceID uint          `gorm:"not null;uniqueIndex:idx_order_inflow_source" json:"inflow_source_id"`
	InflowSource   *InflowSource `gorm:"foreignKey:InflowSourceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for the OrderInflowSource model
func (OrderInflowSource) TableName() string {
	return "order_inflow_sources"
}

// AllModels lists every model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&Product{},
		&PaymentMethod{},
		&InflowSource{},
		&Order{},
		&OrderProduct{},
		&OrderInflowSource{},
	}
}
