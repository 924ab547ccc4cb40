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

// ConsignmentSale records units of supplier-owned stock sold to a guest.
// SellingPrice and SupplierCost are snapshots taken from the most recent
// consignment receipt at sale time; later price changes never reprice a sale
// that already happened. SettlementId stays null until the sale is rolled
// into a settlement.
type ConsignmentSale struct {
	ID           int             `gorm:"primary_key" json:"id"`
	PropertyId   string          `gorm:"index;not null" json:"property_id"`
	StockItemId  int             `gorm:"index;not null" json:"stock_item_id"`
	SupplierId   int             `gorm:"index;not null" json:"supplier_id"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"selling_price"`
	SupplierCost decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"supplier_cost"`
	SaleDate     time.Time       `gorm:"index;not null" json:"sale_date"`
	SettlementId *int            `gorm:"index" json:"settlement_id"`
	SettledAt    *time.Time      `json:"settled_at"`
	CreatedById  int             `json:"created_by_id"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewConsignmentSale struct {
	StockItemId int             `json:"stock_item_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	SaleDate    *time.Time      `json:"sale_date"`
}

// RecordConsignmentSale sells supplier-owned stock. Availability is judged
// across all warehouses holding the item, and the deduction walks warehouses
// in ascending id, draining each before moving to the next.
func RecordConsignmentSale(ctx context.Context, input *NewConsignmentSale) (*ConsignmentSale, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if !input.Quantity.IsPositive() {
		return nil, NewValidationError("sale quantity must be positive")
	}
	item, err := utils.FetchModel[StockItem](ctx, propertyId, input.StockItemId)
	if err != nil {
		return nil, NewNotFoundError("stock item")
	}
	if item.IsConsignment == nil || !*item.IsConsignment {
		return nil, NewPreconditionError("stock item %s is not consignment stock", item.Name)
	}
	if item.SupplierId == nil {
		return nil, NewPreconditionError("stock item %s has no consignment supplier", item.Name)
	}

	if err := utils.PropertyLock(ctx, propertyId, "stockLock", "consignmentSale.go", "RecordConsignmentSale"); err != nil {
		return nil, err
	}

	saleDate := time.Now().UTC()
	if input.SaleDate != nil {
		saleDate = *input.SaleDate
	}
	qty := utils.RoundQty(input.Quantity)

	sale := ConsignmentSale{
		PropertyId:  propertyId,
		StockItemId: input.StockItemId,
		SupplierId:  *item.SupplierId,
		Quantity:    qty,
		SaleDate:    saleDate,
		CreatedById: movementUserId(ctx),
	}

	var touchedWarehouses []int
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		touchedWarehouses = touchedWarehouses[:0]
		pricing, perr := latestConsignmentPricing(tx, propertyId, input.StockItemId)
		if perr != nil {
			return perr
		}
		sale.SellingPrice = pricing.SellingPrice
		sale.SupplierCost = pricing.SupplierCost

		levels, lerr := lockStockLevelsForItem(tx, propertyId, input.StockItemId)
		if lerr != nil {
			return lerr
		}
		if sumAvailableQuantity(levels).LessThan(qty) {
			return NewInsufficientStockError(item.Name, sumAvailableQuantity(levels), qty)
		}

		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		remaining := qty
		for _, level := range levels {
			if remaining.IsZero() {
				break
			}
			if !level.Quantity.IsPositive() {
				continue
			}
			take := decimal.Min(level.Quantity, remaining)

			if _, derr := applyStockDeduction(tx, propertyId, item, level.WarehouseId, take); derr != nil {
				return derr
			}
			touchedWarehouses = append(touchedWarehouses, level.WarehouseId)

			warehouseId := level.WarehouseId
			movement := StockMovement{
				PropertyId:        propertyId,
				StockItemId:       input.StockItemId,
				MovementType:      MovementTypeConsumption,
				Quantity:          take,
				UnitCost:          level.AverageCost,
				SourceWarehouseId: &warehouseId,
				ReferenceType:     ReferenceTypeConsignmentSale,
				ReferenceId:       sale.ID,
				CreatedById:       sale.CreatedById,
				MovementDate:      saleDate,
			}
			if err := postStockMovement(tx, &movement); err != nil {
				return err
			}
			remaining = remaining.Sub(take)
		}
		return nil
	})
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, NewPersistenceError("consignmentSale.go", "RecordConsignmentSale", err)
	}

	for _, warehouseId := range touchedWarehouses {
		if err := verifyReplayAfterCommit(ctx, warehouseId, input.StockItemId); err != nil {
			return nil, err
		}
	}
	return &sale, nil
}

// ConsignmentReturn sends unsold supplier-owned stock back to its supplier.
type ConsignmentReturn struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PropertyId  string          `gorm:"index;not null" json:"property_id"`
	StockItemId int             `gorm:"index;not null" json:"stock_item_id"`
	SupplierId  int             `gorm:"index;not null" json:"supplier_id"`
	WarehouseId int             `gorm:"not null" json:"warehouse_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedById int             `json:"created_by_id"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewConsignmentReturn struct {
	StockItemId int             `json:"stock_item_id" binding:"required"`
	WarehouseId int             `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Notes       string          `json:"notes"`
}

// ReturnConsignmentToSupplier removes unsold consignment stock from one
// warehouse. Unlike a sale, the sufficiency check is per warehouse: goods
// are handed back from a specific shelf, not pooled.
func ReturnConsignmentToSupplier(ctx context.Context, input *NewConsignmentReturn) (*ConsignmentReturn, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if !input.Quantity.IsPositive() {
		return nil, NewValidationError("return quantity must be positive")
	}
	item, err := utils.FetchModel[StockItem](ctx, propertyId, input.StockItemId)
	if err != nil {
		return nil, NewNotFoundError("stock item")
	}
	if item.IsConsignment == nil || !*item.IsConsignment {
		return nil, NewPreconditionError("stock item %s is not consignment stock", item.Name)
	}
	if item.SupplierId == nil {
		return nil, NewPreconditionError("stock item %s has no consignment supplier", item.Name)
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, propertyId, input.WarehouseId); err != nil {
		return nil, NewNotFoundError("warehouse")
	}

	if err := utils.PropertyLock(ctx, propertyId, "stockLock", "consignmentSale.go", "ReturnConsignmentToSupplier"); err != nil {
		return nil, err
	}

	ret := ConsignmentReturn{
		PropertyId:  propertyId,
		StockItemId: input.StockItemId,
		SupplierId:  *item.SupplierId,
		WarehouseId: input.WarehouseId,
		Quantity:    utils.RoundQty(input.Quantity),
		Notes:       input.Notes,
		CreatedById: movementUserId(ctx),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level, derr := applyStockDeduction(tx, propertyId, item, input.WarehouseId, ret.Quantity)
		if derr != nil {
			return derr
		}
		ret.UnitCost = level.AverageCost

		if err := tx.Create(&ret).Error; err != nil {
			return err
		}

		movement := StockMovement{
			PropertyId:        propertyId,
			StockItemId:       input.StockItemId,
			MovementType:      MovementTypeReturn,
			Quantity:          ret.Quantity,
			UnitCost:          level.AverageCost,
			SourceWarehouseId: &ret.WarehouseId,
			ReferenceType:     ReferenceTypeConsignmentReturn,
			ReferenceId:       ret.ID,
			CreatedById:       ret.CreatedById,
		}
		return postStockMovement(tx, &movement)
	})
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, NewPersistenceError("consignmentSale.go", "ReturnConsignmentToSupplier", err)
	}

	if err := verifyReplayAfterCommit(ctx, input.WarehouseId, input.StockItemId); err != nil {
		return nil, err
	}
	return &ret, nil
}

// ListUnsettledConsignmentSales returns a supplier's sales not yet attached
// to any settlement, oldest first.
func ListUnsettledConsignmentSales(ctx context.Context, supplierId int) ([]*ConsignmentSale, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var sales []*ConsignmentSale
	err := db.WithContext(ctx).
		Where("property_id = ? AND supplier_id = ? AND settlement_id IS NULL", propertyId, supplierId).
		Order("sale_date ASC, id ASC").
		Find(&sales).Error
	if err != nil {
		return nil, NewPersistenceError("consignmentSale.go", "ListUnsettledConsignmentSales", err)
	}
	return sales, nil
}
