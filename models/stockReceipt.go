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

// StockReceipt is the receiving document for company-owned stock; consignment
// stock comes in through ConsignmentReceipt instead. Immutable once created.
type StockReceipt struct {
	ID          int                `gorm:"primary_key" json:"id"`
	PropertyId  string             `gorm:"index;not null" json:"property_id"`
	WarehouseId int                `gorm:"index;not null" json:"warehouse_id"`
	SupplierId  *int               `gorm:"index" json:"supplier_id"`
	ReceiptDate time.Time          `gorm:"not null" json:"receipt_date"`
	Notes       string             `gorm:"type:text" json:"notes"`
	CreatedById int                `json:"created_by_id"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	Items       []StockReceiptItem `gorm:"foreignKey:ReceiptId" json:"items"`
}

type StockReceiptItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	ReceiptId   int             `gorm:"index;not null" json:"receipt_id"`
	StockItemId int             `gorm:"index;not null" json:"stock_item_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	BatchNumber string          `gorm:"size:100" json:"batch_number"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
}

type NewStockReceiptItem struct {
	StockItemId int             `json:"stock_item_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	BatchNumber string          `json:"batch_number"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
}

type NewStockReceipt struct {
	WarehouseId int                   `json:"warehouse_id" binding:"required"`
	SupplierId  *int                  `json:"supplier_id"`
	ReceiptDate *time.Time            `json:"receipt_date"`
	Notes       string                `json:"notes"`
	Items       []NewStockReceiptItem `json:"items" binding:"required"`
}

func (input *NewStockReceipt) validate(ctx context.Context, propertyId string) error {
	if len(input.Items) == 0 {
		return NewValidationError("receipt requires at least one item")
	}

	warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, input.WarehouseId)
	if err != nil {
		return NewNotFoundError("warehouse")
	}
	if warehouse.IsActive == nil || !*warehouse.IsActive {
		return NewPreconditionError("warehouse %s is inactive", warehouse.Name)
	}

	if input.SupplierId != nil && *input.SupplierId > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, propertyId, *input.SupplierId); err != nil {
			return NewNotFoundError("supplier")
		}
	}

	for _, line := range input.Items {
		if !line.Quantity.IsPositive() {
			return NewValidationError("receipt quantity must be positive")
		}
		if line.UnitCost.IsNegative() {
			return NewValidationError("receipt unit cost cannot be negative")
		}
		item, err := utils.FetchModel[StockItem](ctx, propertyId, line.StockItemId)
		if err != nil {
			return NewNotFoundError("stock item")
		}
		if item.IsActive == nil || !*item.IsActive {
			return NewPreconditionError("stock item %s is inactive", item.Name)
		}
		if item.IsConsignment != nil && *item.IsConsignment {
			return NewPreconditionError("stock item %s is consignment stock; use consignment receiving", item.Name)
		}
	}
	return nil
}

// ReceiveStock creates the receipt document and folds every line into the
// weighted-average pool, posting one Receipt movement per line. The whole
// operation is one transaction: a partially applied receipt never persists.
func ReceiveStock(ctx context.Context, input *NewStockReceipt) (*StockReceipt, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId); err != nil {
		return nil, err
	}

	// Serialize stock writes per property to avoid racy interleavings.
	if err := utils.PropertyLock(ctx, propertyId, "stockLock", "stockReceipt.go", "ReceiveStock"); err != nil {
		return nil, err
	}

	receiptDate := time.Now().UTC()
	if input.ReceiptDate != nil {
		receiptDate = *input.ReceiptDate
	}

	receipt := StockReceipt{
		PropertyId:  propertyId,
		WarehouseId: input.WarehouseId,
		SupplierId:  input.SupplierId,
		ReceiptDate: receiptDate,
		Notes:       input.Notes,
		CreatedById: movementUserId(ctx),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}

		for _, line := range input.Items {
			qty := utils.RoundQty(line.Quantity)
			unitCost := utils.RoundUnitCost(line.UnitCost)

			item := StockReceiptItem{
				ReceiptId:   receipt.ID,
				StockItemId: line.StockItemId,
				Quantity:    qty,
				UnitCost:    unitCost,
				BatchNumber: line.BatchNumber,
				ExpiryDate:  line.ExpiryDate,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			if _, err := applyStockReceipt(tx, propertyId, line.StockItemId, input.WarehouseId, qty, unitCost); err != nil {
				return err
			}

			movement := StockMovement{
				PropertyId:             propertyId,
				StockItemId:            line.StockItemId,
				MovementType:           MovementTypeReceipt,
				Quantity:               qty,
				UnitCost:               unitCost,
				DestinationWarehouseId: &input.WarehouseId,
				ReferenceType:          ReferenceTypeStockReceipt,
				ReferenceId:            receipt.ID,
				CreatedById:            receipt.CreatedById,
				MovementDate:           receiptDate,
			}
			if err := postStockMovement(tx, &movement); err != nil {
				return err
			}

			if line.BatchNumber != "" || line.ExpiryDate != nil {
				if err := createStockBatch(tx, propertyId, line.StockItemId, input.WarehouseId, line.BatchNumber, qty, line.ExpiryDate); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, NewPersistenceError("stockReceipt.go", "ReceiveStock", err)
	}

	itemIds := make([]int, 0, len(input.Items))
	for _, line := range input.Items {
		itemIds = append(itemIds, line.StockItemId)
	}
	if err := verifyReplayAfterCommit(ctx, input.WarehouseId, itemIds...); err != nil {
		return nil, err
	}

	receipt.Items = nil
	if err := db.WithContext(ctx).Preload("Items").First(&receipt, receipt.ID).Error; err != nil {
		return nil, NewPersistenceError("stockReceipt.go", "ReceiveStock", err)
	}
	return &receipt, nil
}

// StockRequisition is the consumption document: a department draws stock for
// use (kitchen prep, housekeeping supplies, maintenance).
type StockRequisition struct {
	ID          int                    `gorm:"primary_key" json:"id"`
	PropertyId  string                 `gorm:"index;not null" json:"property_id"`
	WarehouseId int                    `gorm:"index;not null" json:"warehouse_id"`
	Department  string                 `gorm:"size:100" json:"department"`
	Notes       string                 `gorm:"type:text" json:"notes"`
	CreatedById int                    `json:"created_by_id"`
	CreatedAt   time.Time              `gorm:"autoCreateTime" json:"created_at"`
	Items       []StockRequisitionItem `gorm:"foreignKey:RequisitionId" json:"items"`
}

type StockRequisitionItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	RequisitionId int             `gorm:"index;not null" json:"requisition_id"`
	StockItemId   int             `gorm:"index;not null" json:"stock_item_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
}

type NewStockConsumptionItem struct {
	StockItemId int             `json:"stock_item_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type NewStockConsumption struct {
	WarehouseId int                       `json:"warehouse_id" binding:"required"`
	Department  string                    `json:"department"`
	Notes       string                    `json:"notes"`
	Items       []NewStockConsumptionItem `json:"items" binding:"required"`
}

// ConsumeStock deducts the requested quantities at each item's current
// average cost and posts Consumption movements. Outflows never shift the
// weighted average.
func ConsumeStock(ctx context.Context, input *NewStockConsumption) (*StockRequisition, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if len(input.Items) == 0 {
		return nil, NewValidationError("consumption requires at least one item")
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
			return nil, NewValidationError("consumption quantity must be positive")
		}
		item, err := utils.FetchModel[StockItem](ctx, propertyId, line.StockItemId)
		if err != nil {
			return nil, NewNotFoundError("stock item")
		}
		items[line.StockItemId] = item
	}

	if err := utils.PropertyLock(ctx, propertyId, "stockLock", "stockReceipt.go", "ConsumeStock"); err != nil {
		return nil, err
	}

	requisition := StockRequisition{
		PropertyId:  propertyId,
		WarehouseId: input.WarehouseId,
		Department:  input.Department,
		Notes:       input.Notes,
		CreatedById: movementUserId(ctx),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&requisition).Error; err != nil {
			return err
		}

		for _, line := range input.Items {
			qty := utils.RoundQty(line.Quantity)
			item := items[line.StockItemId]

			level, derr := applyStockDeduction(tx, propertyId, item, input.WarehouseId, qty)
			if derr != nil {
				return derr
			}

			reqItem := StockRequisitionItem{
				RequisitionId: requisition.ID,
				StockItemId:   line.StockItemId,
				Quantity:      qty,
				UnitCost:      level.AverageCost,
			}
			if err := tx.Create(&reqItem).Error; err != nil {
				return err
			}

			movement := StockMovement{
				PropertyId:        propertyId,
				StockItemId:       line.StockItemId,
				MovementType:      MovementTypeConsumption,
				Quantity:          qty,
				UnitCost:          level.AverageCost,
				SourceWarehouseId: &input.WarehouseId,
				ReferenceType:     ReferenceTypeRequisition,
				ReferenceId:       requisition.ID,
				CreatedById:       requisition.CreatedById,
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
		return nil, NewPersistenceError("stockReceipt.go", "ConsumeStock", err)
	}

	itemIds := make([]int, 0, len(input.Items))
	for _, line := range input.Items {
		itemIds = append(itemIds, line.StockItemId)
	}
	if err := verifyReplayAfterCommit(ctx, input.WarehouseId, itemIds...); err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Preload("Items").First(&requisition, requisition.ID).Error; err != nil {
		return nil, NewPersistenceError("stockReceipt.go", "ConsumeStock", err)
	}
	return &requisition, nil
}
