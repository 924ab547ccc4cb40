package models

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockLevel is the single mutable source of truth for "how much, at what
// cost" per (stock item, warehouse). Rows are created lazily on first receipt
// and never deleted; quantity may reach zero.
type StockLevel struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PropertyId  string          `gorm:"index;not null" json:"property_id"`
	StockItemId int             `gorm:"uniqueIndex:idx_stock_level_key;not null" json:"stock_item_id"`
	WarehouseId int             `gorm:"uniqueIndex:idx_stock_level_key;not null" json:"warehouse_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	AverageCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"average_cost"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NextWeightedAverage computes the unit cost after receiving inQty units at
// inCost into a pool of oldQty units carried at oldCost. A zero resulting
// quantity yields the incoming unit cost so the division can never blow up.
func NextWeightedAverage(oldQty, oldCost, inQty, inCost decimal.Decimal) decimal.Decimal {
	totalQty := oldQty.Add(inQty)
	if totalQty.IsZero() {
		return utils.RoundUnitCost(inCost)
	}
	totalValue := oldQty.Mul(oldCost).Add(inQty.Mul(inCost))
	return utils.RoundUnitCost(totalValue.Div(totalQty))
}

// firstOrCreateStockLevelForUpdate locks (or creates) the stock level row for
// the key. Row-level locking is what serializes concurrent mutations on the
// same (item, warehouse); callers must be inside a transaction.
func firstOrCreateStockLevelForUpdate(tx *gorm.DB, propertyId string, stockItemId int, warehouseId int) (*StockLevel, error) {
	level := StockLevel{
		PropertyId:  propertyId,
		StockItemId: stockItemId,
		WarehouseId: warehouseId,
	}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("property_id = ? AND stock_item_id = ? AND warehouse_id = ?",
			propertyId, stockItemId, warehouseId).
		FirstOrCreate(&level)
	if result.Error != nil {
		// Two transactions can both miss the row and race the insert; the
		// loser re-reads the winner's row under lock.
		if isDuplicateKeyErr(result.Error) {
			level = StockLevel{}
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("property_id = ? AND stock_item_id = ? AND warehouse_id = ?",
					propertyId, stockItemId, warehouseId).
				First(&level).Error
			if err != nil {
				return nil, err
			}
			return &level, nil
		}
		return nil, result.Error
	}
	return &level, nil
}

// applyStockReceipt folds an inflow into the weighted-average pool and
// persists the new level. Used by owned receiving, consignment receiving,
// transfer-in and positive adjustments.
func applyStockReceipt(tx *gorm.DB, propertyId string, stockItemId int, warehouseId int, quantity decimal.Decimal, unitCost decimal.Decimal) (*StockLevel, error) {
	level, err := firstOrCreateStockLevelForUpdate(tx, propertyId, stockItemId, warehouseId)
	if err != nil {
		return nil, err
	}

	newCost := NextWeightedAverage(level.Quantity, level.AverageCost, quantity, unitCost)
	newQty := utils.RoundQty(level.Quantity.Add(quantity))

	if err := tx.Model(level).Updates(map[string]interface{}{
		"Quantity":    newQty,
		"AverageCost": newCost,
	}).Error; err != nil {
		return nil, err
	}
	level.Quantity = newQty
	level.AverageCost = newCost
	return level, nil
}

// applyStockDeduction removes an outflow. Outflows never shift the weighted
// average; they only shrink the pool at its current cost. Driving the
// quantity below zero is rejected before anything is written.
func applyStockDeduction(tx *gorm.DB, propertyId string, item *StockItem, warehouseId int, quantity decimal.Decimal) (*StockLevel, error) {
	level, err := firstOrCreateStockLevelForUpdate(tx, propertyId, item.ID, warehouseId)
	if err != nil {
		return nil, err
	}

	if level.Quantity.LessThan(quantity) {
		return nil, NewInsufficientStockError(item.Name, level.Quantity, quantity)
	}

	newQty := utils.RoundQty(level.Quantity.Sub(quantity))
	if err := tx.Model(level).Update("Quantity", newQty).Error; err != nil {
		return nil, err
	}
	level.Quantity = newQty
	return level, nil
}

// GetStockLevel returns the stored level for the key, zero-valued when the
// item has never been received at the warehouse.
func GetStockLevel(ctx context.Context, stockItemId int, warehouseId int) (*StockLevel, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var level StockLevel
	err := db.WithContext(ctx).
		Where("property_id = ? AND stock_item_id = ? AND warehouse_id = ?",
			propertyId, stockItemId, warehouseId).
		First(&level).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &StockLevel{
				PropertyId:  propertyId,
				StockItemId: stockItemId,
				WarehouseId: warehouseId,
				Quantity:    decimal.Zero,
				AverageCost: decimal.Zero,
			}, nil
		}
		return nil, NewPersistenceError("stockLevel.go", "GetStockLevel", err)
	}
	return &level, nil
}

// ListStockLevels returns all levels for a warehouse (or all warehouses when
// warehouseId is nil), ordered for stable display.
func ListStockLevels(ctx context.Context, warehouseId *int) ([]*StockLevel, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if warehouseId != nil && *warehouseId > 0 {
		dbCtx = dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	var levels []*StockLevel
	if err := dbCtx.Order("stock_item_id, warehouse_id").Find(&levels).Error; err != nil {
		return nil, NewPersistenceError("stockLevel.go", "ListStockLevels", err)
	}
	return levels, nil
}

// lockStockLevelsForItem locks every existing level row for a stock item in
// ascending warehouse order. Consignment sales deduct across warehouses in
// this order, exhausting one before the next.
func lockStockLevelsForItem(tx *gorm.DB, propertyId string, stockItemId int) ([]*StockLevel, error) {
	var levels []*StockLevel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("property_id = ? AND stock_item_id = ?", propertyId, stockItemId).
		Order("warehouse_id ASC").
		Find(&levels).Error
	if err != nil {
		return nil, err
	}
	return levels, nil
}

// sumAvailableQuantity totals on-hand stock for an item across the given levels.
func sumAvailableQuantity(levels []*StockLevel) decimal.Decimal {
	total := decimal.Zero
	for _, level := range levels {
		total = total.Add(level.Quantity)
	}
	return total
}
