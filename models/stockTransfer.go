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

// StockTransfer moves stock between two warehouses of the same property.
// The moved quantity travels at the source warehouse's average cost and is
// folded into the destination's weighted average, so a transfer never changes
// the property-wide valuation.
type StockTransfer struct {
	ID                     int             `gorm:"primary_key" json:"id"`
	PropertyId             string          `gorm:"index;not null" json:"property_id"`
	StockItemId            int             `gorm:"index;not null" json:"stock_item_id"`
	SourceWarehouseId      int             `gorm:"not null" json:"source_warehouse_id"`
	DestinationWarehouseId int             `gorm:"not null" json:"destination_warehouse_id"`
	Quantity               decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost               decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	Notes                  string          `gorm:"type:text" json:"notes"`
	CreatedById            int             `json:"created_by_id"`
	CreatedAt              time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewStockTransfer struct {
	StockItemId            int             `json:"stock_item_id" binding:"required"`
	SourceWarehouseId      int             `json:"source_warehouse_id" binding:"required"`
	DestinationWarehouseId int             `json:"destination_warehouse_id" binding:"required"`
	Quantity               decimal.Decimal `json:"quantity"`
	Notes                  string          `json:"notes"`
}

func (input *NewStockTransfer) validate(ctx context.Context, propertyId string) (*StockItem, error) {
	if input.SourceWarehouseId == input.DestinationWarehouseId {
		return nil, NewValidationError("source and destination warehouse must differ")
	}
	if !input.Quantity.IsPositive() {
		return nil, NewValidationError("transfer quantity must be positive")
	}

	for _, warehouseId := range []int{input.SourceWarehouseId, input.DestinationWarehouseId} {
		warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, warehouseId)
		if err != nil {
			return nil, NewNotFoundError("warehouse")
		}
		if warehouse.IsActive == nil || !*warehouse.IsActive {
			return nil, NewPreconditionError("warehouse %s is inactive", warehouse.Name)
		}
	}

	item, err := utils.FetchModel[StockItem](ctx, propertyId, input.StockItemId)
	if err != nil {
		return nil, NewNotFoundError("stock item")
	}
	return item, nil
}

// TransferStock deducts from the source at its average cost and receives into
// the destination at that same cost, posting a single Transfer movement that
// names both warehouses.
func TransferStock(ctx context.Context, input *NewStockTransfer) (*StockTransfer, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	item, err := input.validate(ctx, propertyId)
	if err != nil {
		return nil, err
	}

	if err := utils.PropertyLock(ctx, propertyId, "stockLock", "stockTransfer.go", "TransferStock"); err != nil {
		return nil, err
	}

	transfer := StockTransfer{
		PropertyId:             propertyId,
		StockItemId:            input.StockItemId,
		SourceWarehouseId:      input.SourceWarehouseId,
		DestinationWarehouseId: input.DestinationWarehouseId,
		Quantity:               utils.RoundQty(input.Quantity),
		Notes:                  input.Notes,
		CreatedById:            movementUserId(ctx),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, derr := applyStockDeduction(tx, propertyId, item, input.SourceWarehouseId, transfer.Quantity)
		if derr != nil {
			return derr
		}
		transfer.UnitCost = source.AverageCost

		if _, err := applyStockReceipt(tx, propertyId, input.StockItemId, input.DestinationWarehouseId, transfer.Quantity, source.AverageCost); err != nil {
			return err
		}

		if err := tx.Create(&transfer).Error; err != nil {
			return err
		}

		movement := StockMovement{
			PropertyId:             propertyId,
			StockItemId:            input.StockItemId,
			MovementType:           MovementTypeTransfer,
			Quantity:               transfer.Quantity,
			UnitCost:               source.AverageCost,
			SourceWarehouseId:      &transfer.SourceWarehouseId,
			DestinationWarehouseId: &transfer.DestinationWarehouseId,
			ReferenceType:          ReferenceTypeTransferOrder,
			ReferenceId:            transfer.ID,
			CreatedById:            transfer.CreatedById,
		}
		return postStockMovement(tx, &movement)
	})
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, NewPersistenceError("stockTransfer.go", "TransferStock", err)
	}

	for _, warehouseId := range []int{input.SourceWarehouseId, input.DestinationWarehouseId} {
		if err := verifyReplayAfterCommit(ctx, warehouseId, input.StockItemId); err != nil {
			return nil, err
		}
	}
	return &transfer, nil
}

// StockAdjustment is the correction document. Positive quantities add stock,
// negative quantities remove it; the ledger records an offsetting Adjustment
// movement rather than editing history.
type StockAdjustment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PropertyId  string          `gorm:"index;not null" json:"property_id"`
	StockItemId int             `gorm:"index;not null" json:"stock_item_id"`
	WarehouseId int             `gorm:"not null" json:"warehouse_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	Reason      string          `gorm:"size:255;not null" json:"reason"`
	CreatedById int             `json:"created_by_id"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewStockAdjustment struct {
	StockItemId int              `json:"stock_item_id" binding:"required"`
	WarehouseId int              `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	Reason      string           `json:"reason" binding:"required"`
}

// AdjustStock records a signed correction. A positive adjustment folds into
// the weighted average at the given unit cost (current average when omitted);
// a negative adjustment deducts at the current average and must not drive the
// level negative.
func AdjustStock(ctx context.Context, input *NewStockAdjustment) (*StockAdjustment, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if input.Quantity.IsZero() {
		return nil, NewValidationError("adjustment quantity cannot be zero")
	}
	if input.Reason == "" {
		return nil, NewValidationError("adjustment reason is required")
	}
	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return nil, NewValidationError("adjustment unit cost cannot be negative")
	}
	warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, input.WarehouseId)
	if err != nil {
		return nil, NewNotFoundError("warehouse")
	}
	if warehouse.IsActive == nil || !*warehouse.IsActive {
		return nil, NewPreconditionError("warehouse %s is inactive", warehouse.Name)
	}
	item, err := utils.FetchModel[StockItem](ctx, propertyId, input.StockItemId)
	if err != nil {
		return nil, NewNotFoundError("stock item")
	}

	if err := utils.PropertyLock(ctx, propertyId, "stockLock", "stockTransfer.go", "AdjustStock"); err != nil {
		return nil, err
	}

	adjustment := StockAdjustment{
		PropertyId:  propertyId,
		StockItemId: input.StockItemId,
		WarehouseId: input.WarehouseId,
		Quantity:    utils.RoundQty(input.Quantity),
		Reason:      input.Reason,
		CreatedById: movementUserId(ctx),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		absQty := adjustment.Quantity.Abs()
		movement := StockMovement{
			PropertyId:    propertyId,
			StockItemId:   input.StockItemId,
			MovementType:  MovementTypeAdjustment,
			Quantity:      absQty,
			ReferenceType: ReferenceTypeAdjustment,
			Reason:        input.Reason,
			CreatedById:   adjustment.CreatedById,
		}

		if adjustment.Quantity.IsPositive() {
			level, lerr := firstOrCreateStockLevelForUpdate(tx, propertyId, input.StockItemId, input.WarehouseId)
			if lerr != nil {
				return lerr
			}
			unitCost := level.AverageCost
			if input.UnitCost != nil {
				unitCost = utils.RoundUnitCost(*input.UnitCost)
			}
			if _, err := applyStockReceipt(tx, propertyId, input.StockItemId, input.WarehouseId, absQty, unitCost); err != nil {
				return err
			}
			adjustment.UnitCost = unitCost
			movement.UnitCost = unitCost
			movement.DestinationWarehouseId = &adjustment.WarehouseId
		} else {
			level, derr := applyStockDeduction(tx, propertyId, item, input.WarehouseId, absQty)
			if derr != nil {
				return derr
			}
			adjustment.UnitCost = level.AverageCost
			movement.UnitCost = level.AverageCost
			movement.SourceWarehouseId = &adjustment.WarehouseId
		}

		if err := tx.Create(&adjustment).Error; err != nil {
			return err
		}
		movement.ReferenceId = adjustment.ID
		return postStockMovement(tx, &movement)
	})
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, NewPersistenceError("stockTransfer.go", "AdjustStock", err)
	}

	if err := verifyReplayAfterCommit(ctx, input.WarehouseId, input.StockItemId); err != nil {
		return nil, err
	}
	return &adjustment, nil
}

// StockWaste records spoilage, breakage and expiry write-offs. The value is
// deducted at the current average cost so the waste summary report can price
// every gram thrown away.
type StockWaste struct {
	ID          int              `gorm:"primary_key" json:"id"`
	PropertyId  string           `gorm:"index;not null" json:"property_id"`
	WarehouseId int              `gorm:"not null" json:"warehouse_id"`
	Reason      string           `gorm:"size:255;not null" json:"reason"`
	Notes       string           `gorm:"type:text" json:"notes"`
	CreatedById int              `json:"created_by_id"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	Items       []StockWasteItem `gorm:"foreignKey:WasteId" json:"items"`
}

type StockWasteItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	WasteId     int             `gorm:"index;not null" json:"waste_id"`
	StockItemId int             `gorm:"index;not null" json:"stock_item_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
}

type NewStockWasteItem struct {
	StockItemId int             `json:"stock_item_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type NewStockWaste struct {
	WarehouseId int                 `json:"warehouse_id" binding:"required"`
	Reason      string              `json:"reason" binding:"required"`
	Notes       string              `json:"notes"`
	Items       []NewStockWasteItem `json:"items" binding:"required"`
}

// RecordWaste deducts the wasted quantities and posts Waste movements
// carrying the write-off reason.
func RecordWaste(ctx context.Context, input *NewStockWaste) (*StockWaste, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if len(input.Items) == 0 {
		return nil, NewValidationError("waste record requires at least one item")
	}
	if input.Reason == "" {
		return nil, NewValidationError("waste reason is required")
	}
	warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, input.WarehouseId)
	if err != nil {
		return nil, NewNotFoundError("warehouse")
	}
	if warehouse.IsActive == nil || !*warehouse.IsActive {
		return nil, NewPreconditionError("warehouse %s is inactive", warehouse.Name)
	}
	items := make(map[int]*StockItem, len(input.Items))
	for _, line := range input.Items {
		if !line.Quantity.IsPositive() {
			return nil, NewValidationError("waste quantity must be positive")
		}
		item, err := utils.FetchModel[StockItem](ctx, propertyId, line.StockItemId)
		if err != nil {
			return nil, NewNotFoundError("stock item")
		}
		items[line.StockItemId] = item
	}

	if err := utils.PropertyLock(ctx, propertyId, "stockLock", "stockTransfer.go", "RecordWaste"); err != nil {
		return nil, err
	}

	waste := StockWaste{
		PropertyId:  propertyId,
		WarehouseId: input.WarehouseId,
		Reason:      input.Reason,
		Notes:       input.Notes,
		CreatedById: movementUserId(ctx),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&waste).Error; err != nil {
			return err
		}

		for _, line := range input.Items {
			qty := utils.RoundQty(line.Quantity)

			level, derr := applyStockDeduction(tx, propertyId, items[line.StockItemId], input.WarehouseId, qty)
			if derr != nil {
				return derr
			}

			wasteItem := StockWasteItem{
				WasteId:     waste.ID,
				StockItemId: line.StockItemId,
				Quantity:    qty,
				UnitCost:    level.AverageCost,
			}
			if err := tx.Create(&wasteItem).Error; err != nil {
				return err
			}

			movement := StockMovement{
				PropertyId:        propertyId,
				StockItemId:       line.StockItemId,
				MovementType:      MovementTypeWaste,
				Quantity:          qty,
				UnitCost:          level.AverageCost,
				SourceWarehouseId: &waste.WarehouseId,
				ReferenceType:     ReferenceTypeWaste,
				ReferenceId:       waste.ID,
				Reason:            input.Reason,
				CreatedById:       waste.CreatedById,
			}
			if err := postStockMovement(tx, &movement); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, NewPersistenceError("stockTransfer.go", "RecordWaste", err)
	}

	itemIds := make([]int, 0, len(input.Items))
	for _, line := range input.Items {
		itemIds = append(itemIds, line.StockItemId)
	}
	if err := verifyReplayAfterCommit(ctx, input.WarehouseId, itemIds...); err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Preload("Items").First(&waste, waste.ID).Error; err != nil {
		return nil, NewPersistenceError("stockTransfer.go", "RecordWaste", err)
	}
	return &waste, nil
}
