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

// ConsignmentReceipt records supplier-owned goods placed in a warehouse for
// sale. The property pays the supplier only after the goods sell, so every
// line snapshots both the agreed supplier cost and the selling price; later
// sales and settlements price off those snapshots, not the current catalog.
type ConsignmentReceipt struct {
	ID          int                      `gorm:"primary_key" json:"id"`
	PropertyId  string                   `gorm:"index;not null" json:"property_id"`
	SupplierId  int                      `gorm:"index;not null" json:"supplier_id"`
	WarehouseId int                      `gorm:"index;not null" json:"warehouse_id"`
	ReceiptDate time.Time                `gorm:"not null" json:"receipt_date"`
	Notes       string                   `gorm:"type:text" json:"notes"`
	CreatedById int                      `json:"created_by_id"`
	CreatedAt   time.Time                `gorm:"autoCreateTime" json:"created_at"`
	Items       []ConsignmentReceiptItem `gorm:"foreignKey:ReceiptId" json:"items"`
}

type ConsignmentReceiptItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	ReceiptId    int             `gorm:"index;not null" json:"receipt_id"`
	StockItemId  int             `gorm:"index;not null" json:"stock_item_id"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	SupplierCost decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"supplier_cost"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"selling_price"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewConsignmentReceiptItem struct {
	StockItemId  int             `json:"stock_item_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	SupplierCost decimal.Decimal `json:"supplier_cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

type NewConsignmentReceipt struct {
	SupplierId  int                         `json:"supplier_id" binding:"required"`
	WarehouseId int                         `json:"warehouse_id" binding:"required"`
	ReceiptDate *time.Time                  `json:"receipt_date"`
	Notes       string                      `json:"notes"`
	Items       []NewConsignmentReceiptItem `json:"items" binding:"required"`
}

func (input *NewConsignmentReceipt) validate(ctx context.Context, propertyId string) error {
	if len(input.Items) == 0 {
		return NewValidationError("consignment receipt requires at least one item")
	}

	supplier, err := utils.FetchModel[Supplier](ctx, propertyId, input.SupplierId)
	if err != nil {
		return NewNotFoundError("supplier")
	}
	if supplier.IsActive == nil || !*supplier.IsActive {
		return NewPreconditionError("supplier %s is inactive", supplier.Name)
	}

	warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, input.WarehouseId)
	if err != nil {
		return NewNotFoundError("warehouse")
	}
	if warehouse.IsActive == nil || !*warehouse.IsActive {
		return NewPreconditionError("warehouse %s is inactive", warehouse.Name)
	}

	for _, line := range input.Items {
		if !line.Quantity.IsPositive() {
			return NewValidationError("consignment quantity must be positive")
		}
		if !line.SellingPrice.IsPositive() {
			return NewValidationError("consignment selling price must be positive")
		}
		if line.SupplierCost.IsNegative() {
			return NewValidationError("consignment supplier cost cannot be negative")
		}
		item, err := utils.FetchModel[StockItem](ctx, propertyId, line.StockItemId)
		if err != nil {
			return NewNotFoundError("stock item")
		}
		if item.IsConsignment == nil || !*item.IsConsignment {
			return NewPreconditionError("stock item %s is not consignment stock", item.Name)
		}
		if item.SupplierId == nil || *item.SupplierId != input.SupplierId {
			return NewPreconditionError("stock item %s belongs to a different supplier", item.Name)
		}
	}
	return nil
}

// ReceiveConsignment books supplier-owned goods into stock. The goods enter
// the weighted-average pool at the supplier cost so on-hand valuation matches
// the liability owed if everything sells.
func ReceiveConsignment(ctx context.Context, input *NewConsignmentReceipt) (*ConsignmentReceipt, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId); err != nil {
		return nil, err
	}

	if err := utils.PropertyLock(ctx, propertyId, "stockLock", "consignment.go", "ReceiveConsignment"); err != nil {
		return nil, err
	}

	receiptDate := time.Now().UTC()
	if input.ReceiptDate != nil {
		receiptDate = *input.ReceiptDate
	}

	receipt := ConsignmentReceipt{
		PropertyId:  propertyId,
		SupplierId:  input.SupplierId,
		WarehouseId: input.WarehouseId,
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
			supplierCost := utils.RoundUnitCost(line.SupplierCost)

			item := ConsignmentReceiptItem{
				ReceiptId:    receipt.ID,
				StockItemId:  line.StockItemId,
				Quantity:     qty,
				SupplierCost: supplierCost,
				SellingPrice: utils.RoundUnitCost(line.SellingPrice),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			if _, err := applyStockReceipt(tx, propertyId, line.StockItemId, input.WarehouseId, qty, supplierCost); err != nil {
				return err
			}

			movement := StockMovement{
				PropertyId:             propertyId,
				StockItemId:            line.StockItemId,
				MovementType:           MovementTypeReceipt,
				Quantity:               qty,
				UnitCost:               supplierCost,
				DestinationWarehouseId: &input.WarehouseId,
				ReferenceType:          ReferenceTypeConsignmentReceipt,
				ReferenceId:            receipt.ID,
				CreatedById:            receipt.CreatedById,
				MovementDate:           receiptDate,
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
		return nil, NewPersistenceError("consignment.go", "ReceiveConsignment", err)
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
		return nil, NewPersistenceError("consignment.go", "ReceiveConsignment", err)
	}
	return &receipt, nil
}

// latestConsignmentPricing finds the price snapshot a sale of the item should
// use: the most recently received consignment line for that item.
func latestConsignmentPricing(tx *gorm.DB, propertyId string, stockItemId int) (*ConsignmentReceiptItem, error) {
	var line ConsignmentReceiptItem
	err := tx.
		Joins("JOIN consignment_receipts ON consignment_receipts.id = consignment_receipt_items.receipt_id").
		Where("consignment_receipts.property_id = ? AND consignment_receipt_items.stock_item_id = ?", propertyId, stockItemId).
		Order("consignment_receipt_items.id DESC").
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewPreconditionError("no consignment receipt on record for this item")
		}
		return nil, err
	}
	return &line, nil
}
