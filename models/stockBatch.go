package models

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockBatch records a received lot with an optional expiry date. Batches are
// advisory: the valuation pool lives in StockLevel, batches only feed the
// expiration report and receiving traceability.
type StockBatch struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PropertyId  string          `gorm:"index;not null" json:"property_id"`
	StockItemId int             `gorm:"index;not null" json:"stock_item_id"`
	WarehouseId int             `gorm:"index;not null" json:"warehouse_id"`
	BatchNumber string          `gorm:"size:100" json:"batch_number"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	ExpiryDate  *time.Time      `gorm:"index" json:"expiry_date"`
	ReceivedAt  time.Time       `gorm:"not null" json:"received_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// createStockBatch is called during receiving when a line carries batch data.
func createStockBatch(tx *gorm.DB, propertyId string, stockItemId int, warehouseId int, batchNumber string, quantity decimal.Decimal, expiryDate *time.Time) error {
	batch := StockBatch{
		PropertyId:  propertyId,
		StockItemId: stockItemId,
		WarehouseId: warehouseId,
		BatchNumber: batchNumber,
		Quantity:    utils.RoundQty(quantity),
		ExpiryDate:  expiryDate,
		ReceivedAt:  time.Now().UTC(),
	}
	return tx.Create(&batch).Error
}

// ListExpiringBatches returns batches whose expiry date falls on or before the
// cutoff, soonest first.
func ListExpiringBatches(ctx context.Context, cutoff time.Time) ([]*StockBatch, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var batches []*StockBatch
	err := db.WithContext(ctx).
		Where("property_id = ? AND expiry_date IS NOT NULL AND expiry_date <= ?", propertyId, cutoff).
		Order("expiry_date ASC").
		Find(&batches).Error
	if err != nil {
		return nil, NewPersistenceError("stockBatch.go", "ListExpiringBatches", err)
	}
	return batches, nil
}
