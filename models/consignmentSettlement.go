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

// ConsignmentSettlement rolls a supplier's unsettled sales over a period into
// one payable document. TotalSales and TotalCost are sums over the linked
// sales' snapshots; TotalCost is what the property owes the supplier.
// A settlement is immutable once generated and flips to paid exactly once.
type ConsignmentSettlement struct {
	ID          int               `gorm:"primary_key" json:"id"`
	PropertyId  string            `gorm:"index;not null" json:"property_id"`
	SupplierId  int               `gorm:"index;not null" json:"supplier_id"`
	PeriodStart time.Time         `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time         `gorm:"not null" json:"period_end"`
	TotalSales  decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"total_sales"`
	TotalCost   decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	GrossMargin decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"gross_margin"`
	SalesCount  int               `gorm:"not null" json:"sales_count"`
	SettledAt   *time.Time        `json:"settled_at"`
	CreatedById int               `json:"created_by_id"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	Sales       []ConsignmentSale `gorm:"foreignKey:SettlementId" json:"sales,omitempty"`
}

func (s *ConsignmentSettlement) IsPaid() bool {
	return s.SettledAt != nil
}

type NewConsignmentSettlement struct {
	SupplierId  int       `json:"supplier_id" binding:"required"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

// GenerateConsignmentSettlement gathers the supplier's unsettled sales inside
// the period, totals them and links them to a new settlement. The link is
// guarded against concurrent settlement runs: a sale claimed by another
// settlement between read and update aborts the whole transaction.
func GenerateConsignmentSettlement(ctx context.Context, input *NewConsignmentSettlement) (*ConsignmentSettlement, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, NewValidationError("settlement period end must not precede period start")
	}
	supplier, err := utils.FetchModel[Supplier](ctx, propertyId, input.SupplierId)
	if err != nil {
		return nil, NewNotFoundError("supplier")
	}

	if err := utils.PropertyLock(ctx, propertyId, "settlementLock", "consignmentSettlement.go", "GenerateConsignmentSettlement"); err != nil {
		return nil, err
	}

	settlement := ConsignmentSettlement{
		PropertyId:  propertyId,
		SupplierId:  supplier.ID,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		CreatedById: movementUserId(ctx),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sales []ConsignmentSale
		err := tx.
			Where("property_id = ? AND supplier_id = ? AND settlement_id IS NULL", propertyId, supplier.ID).
			Where("sale_date >= ? AND sale_date <= ?", input.PeriodStart, input.PeriodEnd).
			Order("id ASC").
			Find(&sales).Error
		if err != nil {
			return err
		}
		if len(sales) == 0 {
			return NewNotFoundError("unsettled consignment sales in period")
		}

		totalSales := decimal.Zero
		totalCost := decimal.Zero
		saleIds := make([]int, 0, len(sales))
		for _, sale := range sales {
			totalSales = totalSales.Add(sale.Quantity.Mul(sale.SellingPrice))
			totalCost = totalCost.Add(sale.Quantity.Mul(sale.SupplierCost))
			saleIds = append(saleIds, sale.ID)
		}
		settlement.TotalSales = utils.RoundAmount(totalSales)
		settlement.TotalCost = utils.RoundAmount(totalCost)
		settlement.GrossMargin = settlement.TotalSales.Sub(settlement.TotalCost)
		settlement.SalesCount = len(sales)

		if err := tx.Create(&settlement).Error; err != nil {
			return err
		}

		// settlement_id IS NULL re-check makes the claim atomic.
		result := tx.Model(&ConsignmentSale{}).
			Where("id IN ? AND settlement_id IS NULL", saleIds).
			Update("settlement_id", settlement.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(saleIds)) {
			return NewPreconditionError("a sale was settled concurrently; settlement aborted")
		}
		return nil
	})
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, NewPersistenceError("consignmentSettlement.go", "GenerateConsignmentSettlement", err)
	}

	if err := db.WithContext(ctx).Preload("Sales").First(&settlement, settlement.ID).Error; err != nil {
		return nil, NewPersistenceError("consignmentSettlement.go", "GenerateConsignmentSettlement", err)
	}
	return &settlement, nil
}

// MarkConsignmentSettlementPaid stamps the payout time on the settlement and
// every linked sale. Paying twice is rejected.
func MarkConsignmentSettlementPaid(ctx context.Context, settlementId int) (*ConsignmentSettlement, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	settlement, err := utils.FetchModel[ConsignmentSettlement](ctx, propertyId, settlementId)
	if err != nil {
		return nil, NewNotFoundError("consignment settlement")
	}
	if settlement.IsPaid() {
		return nil, NewPreconditionError("settlement %d is already paid", settlement.ID)
	}

	if err := utils.PropertyLock(ctx, propertyId, "settlementLock", "consignmentSettlement.go", "MarkConsignmentSettlementPaid"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ConsignmentSettlement{}).
			Where("id = ? AND property_id = ? AND settled_at IS NULL", settlement.ID, propertyId).
			Update("settled_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return NewPreconditionError("settlement %d is already paid", settlement.ID)
		}
		return tx.Model(&ConsignmentSale{}).
			Where("settlement_id = ? AND property_id = ?", settlement.ID, propertyId).
			Update("settled_at", now).Error
	})
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, NewPersistenceError("consignmentSettlement.go", "MarkConsignmentSettlementPaid", err)
	}

	settlement.SettledAt = &now
	return settlement, nil
}

// GetConsignmentSettlement returns one settlement with its linked sales.
func GetConsignmentSettlement(ctx context.Context, settlementId int) (*ConsignmentSettlement, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var settlement ConsignmentSettlement
	err := db.WithContext(ctx).
		Preload("Sales").
		Where("property_id = ?", propertyId).
		First(&settlement, settlementId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("consignment settlement")
		}
		return nil, NewPersistenceError("consignmentSettlement.go", "GetConsignmentSettlement", err)
	}
	return &settlement, nil
}

// ListConsignmentSettlements returns settlements, optionally for one supplier,
// newest first.
func ListConsignmentSettlements(ctx context.Context, supplierId *int) ([]*ConsignmentSettlement, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if supplierId != nil && *supplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	var settlements []*ConsignmentSettlement
	if err := dbCtx.Order("id DESC").Find(&settlements).Error; err != nil {
		return nil, NewPersistenceError("consignmentSettlement.go", "ListConsignmentSettlements", err)
	}
	return settlements, nil
}
