package models

import "time"

// Product is a catalog entry. Price is in the smallest currency unit.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Price     int64     `gorm:"not null;check:price >= 0" json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// PaymentMethod is a static lookup of accepted payment methods
type PaymentMethod struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

// TableName specifies the table name for the PaymentMethod model
func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// InflowSource is a marketing channel a customer may tick on the order form
type InflowSource struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

// TableName specifies the table name for the InflowSource model
func (InflowSource) TableName() string {
	return "inflow_sources"
}
