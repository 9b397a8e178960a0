package models

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedPaymentMethods = []PaymentMethod{
	{ID: 1, Name: "クレジットカード"},
	{ID: 2, Name: "銀行振込"},
	{ID: 3, Name: "代引き"},
	{ID: 4, Name: "コンビニ払い"},
	{ID: 5, Name: "PayPal"},
}

var seedInflowSources = []InflowSource{
	{ID: 1, Name: "検索エンジン"},
	{ID: 2, Name: "SNS"},
	{ID: 3, Name: "友人・知人"},
	{ID: 4, Name: "広告"},
}

var seedProducts = []Product{
	{ID: 1, Name: "商品A", Price: 100},
	{ID: 2, Name: "商品B", Price: 200},
	{ID: 3, Name: "商品C", Price: 300},
	{ID: 4, Name: "商品D", Price: 400},
	{ID: 5, Name: "商品E", Price: 500},
	{ID: 6, Name: "商品F", Price: 600},
}

// Seed inserts the reference data. Rows that already exist are left untouched.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		methods := append([]PaymentMethod(nil), seedPaymentMethods...)
		sources := append([]InflowSource(nil), seedInflowSources...)
		products := append([]Product(nil), seedProducts...)

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&methods).Error; err != nil {
			return fmt.Errorf("failed to seed payment methods: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sources).Error; err != nil {
			return fmt.Errorf("failed to seed inflow sources: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error; err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
		return nil
	})
}

// Migrate creates or updates the schema for every model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
