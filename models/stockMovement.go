package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement is the append-only ledger. Every StockLevel mutation is
// paired with exactly one movement row in the same transaction; summing
// movements by (item, warehouse) reproduces the stored level. Rows are never
// edited or deleted; corrections are new offsetting movements.
//
// Quantity is always positive; direction is carried by the warehouse fields:
// a destination receives +qty, a source gives up -qty, a transfer sets both.
type StockMovement struct {
	ID                     int                   `gorm:"primary_key" json:"id"`
	PropertyId             string                `gorm:"index;not null" json:"property_id"`
	StockItemId            int                   `gorm:"index;not null" json:"stock_item_id"`
	MovementType           MovementType          `gorm:"type:enum('RECEIPT','CONSUMPTION','TRANSFER','WASTE','RETURN','ADJUSTMENT');not null" json:"movement_type"`
	Quantity               decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost               decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	TotalCost              decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	SourceWarehouseId      *int                  `gorm:"index" json:"source_warehouse_id"`
	DestinationWarehouseId *int                  `gorm:"index" json:"destination_warehouse_id"`
	ReferenceType          MovementReferenceType `gorm:"type:enum('SR','RQ','TO','ADJ','WS','CGR','CGS','CGT','MNS');not null" json:"reference_type"`
	ReferenceId            int                   `gorm:"index" json:"reference_id"`
	Reason                 string                `gorm:"size:255" json:"reason"`
	CreatedById            int                   `json:"created_by_id"`
	MovementDate           time.Time             `gorm:"index;not null" json:"movement_date"`
	CreatedAt              time.Time             `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeSave enforces ledger invariants; a movement that would break replay
// never reaches the table.
func (m *StockMovement) BeforeSave(tx *gorm.DB) error {
	_ = tx // signature required by gorm; tx may be nil in tests
	if m == nil {
		return nil
	}
	if !m.MovementType.IsValid() {
		return fmt.Errorf("invalid movement type %q", m.MovementType)
	}
	if !m.ReferenceType.IsValid() {
		return fmt.Errorf("invalid movement reference type %q", m.ReferenceType)
	}
	if !m.Quantity.IsPositive() {
		return fmt.Errorf("movement quantity must be positive")
	}
	if m.SourceWarehouseId == nil && m.DestinationWarehouseId == nil {
		return fmt.Errorf("movement requires a source or destination warehouse")
	}
	m.TotalCost = utils.RoundAmount(m.Quantity.Mul(m.UnitCost))
	return nil
}

// postStockMovement appends one ledger row inside the caller's transaction.
func postStockMovement(tx *gorm.DB, m *StockMovement) error {
	if m.MovementDate.IsZero() {
		m.MovementDate = time.Now().UTC()
	}
	return tx.Create(m).Error
}

// movementUserId resolves the acting user for audit fields; zero when absent.
func movementUserId(ctx context.Context) int {
	userId, _ := utils.GetUserIdFromContext(ctx)
	return userId
}

// SignedQuantityAt reports the movement's effect on one warehouse:
// +qty when the warehouse receives, -qty when it gives up, 0 when untouched.
func (m *StockMovement) SignedQuantityAt(warehouseId int) decimal.Decimal {
	if m.DestinationWarehouseId != nil && *m.DestinationWarehouseId == warehouseId {
		return m.Quantity
	}
	if m.SourceWarehouseId != nil && *m.SourceWarehouseId == warehouseId {
		return m.Quantity.Neg()
	}
	return decimal.Zero
}

// LedgerReplay is the result of re-deriving a stock level from its movements.
type LedgerReplay struct {
	StockItemId    int             `json:"stock_item_id"`
	WarehouseId    int             `json:"warehouse_id"`
	ReplayedQty    decimal.Decimal `json:"replayed_qty"`
	StoredQty      decimal.Decimal `json:"stored_qty"`
	Drift          decimal.Decimal `json:"drift"`
	MovementsCount int             `json:"movements_count"`
}

func (r *LedgerReplay) InSync() bool {
	return r.Drift.IsZero()
}

// ReplayStockLevel folds every movement touching (item, warehouse) from zero
// and compares against the stored StockLevel. Used by tests and the
// ledger-verify maintenance command.
func ReplayStockLevel(ctx context.Context, stockItemId int, warehouseId int) (*LedgerReplay, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var movements []*StockMovement
	err := db.WithContext(ctx).
		Where("property_id = ? AND stock_item_id = ? AND (source_warehouse_id = ? OR destination_warehouse_id = ?)",
			propertyId, stockItemId, warehouseId, warehouseId).
		Order("id ASC").
		Find(&movements).Error
	if err != nil {
		return nil, NewPersistenceError("stockMovement.go", "ReplayStockLevel", err)
	}

	replayed := decimal.Zero
	for _, m := range movements {
		replayed = replayed.Add(m.SignedQuantityAt(warehouseId))
	}
	replayed = utils.RoundQty(replayed)

	level, err := GetStockLevel(ctx, stockItemId, warehouseId)
	if err != nil {
		return nil, err
	}

	return &LedgerReplay{
		StockItemId:    stockItemId,
		WarehouseId:    warehouseId,
		ReplayedQty:    replayed,
		StoredQty:      level.Quantity,
		Drift:          level.Quantity.Sub(replayed),
		MovementsCount: len(movements),
	}, nil
}

// verifyReplayAfterCommit re-derives the stored level from the ledger for each
// item at the given warehouse when STRICT_LEDGER_REPLAY_CHECK is enabled.
// Callers invoke it after their transaction commits; drift fails the operation
// loudly instead of letting a broken ledger go unnoticed.
func verifyReplayAfterCommit(ctx context.Context, warehouseId int, stockItemIds ...int) error {
	if !config.StrictLedgerReplayCheck() {
		return nil
	}
	for _, stockItemId := range stockItemIds {
		replay, err := ReplayStockLevel(ctx, stockItemId, warehouseId)
		if err != nil {
			return err
		}
		if !replay.InSync() {
			return NewPersistenceError("stockMovement.go", "verifyReplayAfterCommit",
				fmt.Errorf("ledger drift %s for stock item %d at warehouse %d", replay.Drift, stockItemId, warehouseId))
		}
	}
	return nil
}

// RepairStockLevel rewrites the stored quantity from the ledger when drift is
// found. Cost is left untouched: the ledger carries enough to re-derive
// quantity exactly, while cost repair needs human review.
func RepairStockLevel(ctx context.Context, stockItemId int, warehouseId int) (*LedgerReplay, error) {
	replay, err := ReplayStockLevel(ctx, stockItemId, warehouseId)
	if err != nil {
		return nil, err
	}
	if replay.InSync() {
		return replay, nil
	}

	propertyId, _ := utils.GetPropertyIdFromContext(ctx)
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level, lerr := firstOrCreateStockLevelForUpdate(tx, propertyId, stockItemId, warehouseId)
		if lerr != nil {
			return lerr
		}
		return tx.Model(level).Update("Quantity", replay.ReplayedQty).Error
	})
	if err != nil {
		return nil, NewPersistenceError("stockMovement.go", "RepairStockLevel", err)
	}
	replay.StoredQty = replay.ReplayedQty
	replay.Drift = decimal.Zero
	return replay, nil
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	StockItemId  *int
	WarehouseId  *int
	MovementType *MovementType
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
}

// ListStockMovements returns ledger history, newest first.
func ListStockMovements(ctx context.Context, filter *MovementFilter) ([]*StockMovement, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if filter != nil {
		if filter.StockItemId != nil && *filter.StockItemId > 0 {
			dbCtx = dbCtx.Where("stock_item_id = ?", *filter.StockItemId)
		}
		if filter.WarehouseId != nil && *filter.WarehouseId > 0 {
			dbCtx = dbCtx.Where("(source_warehouse_id = ? OR destination_warehouse_id = ?)", *filter.WarehouseId, *filter.WarehouseId)
		}
		if filter.MovementType != nil {
			if !filter.MovementType.IsValid() {
				return nil, NewValidationError("invalid movement type %q", *filter.MovementType)
			}
			dbCtx = dbCtx.Where("movement_type = ?", *filter.MovementType)
		}
		if filter.FromDate != nil {
			dbCtx = dbCtx.Where("movement_date >= ?", *filter.FromDate)
		}
		if filter.ToDate != nil {
			dbCtx = dbCtx.Where("movement_date <= ?", *filter.ToDate)
		}
		if filter.Limit > 0 {
			dbCtx = dbCtx.Limit(filter.Limit)
		}
	}

	var movements []*StockMovement
	if err := dbCtx.Order("id DESC").Find(&movements).Error; err != nil {
		return nil, NewPersistenceError("stockMovement.go", "ListStockMovements", err)
	}
	return movements, nil
}
