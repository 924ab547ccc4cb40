package models_test

import (
	"testing"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/models"
	"github.com/shopspring/decimal"
)

// End to end ledger scenario against real MySQL and Redis: receipts blend the
// weighted average, consumptions deduct at average without shifting it, a
// transfer carries value unchanged, and the movement ledger replays back to
// the stored level.
func TestStockLedgerLifecycle(t *testing.T) {
	ctx := setupIntegration(t)

	kitchen := mustCreateWarehouse(t, ctx, "Kitchen Store")
	bar := mustCreateWarehouse(t, ctx, "Pool Bar")
	rice := mustCreateStockItem(t, ctx, &models.NewStockItem{
		Name:     "Jasmine Rice",
		SKU:      "RICE-001",
		Category: models.StockItemCategoryFood,
		Unit:     "kg",
	})

	// 10 kg @ 2.00, then 30 kg @ 4.00: average must land on 3.50.
	for _, rcpt := range []struct {
		qty  string
		cost string
	}{
		{"10", "2.00"},
		{"30", "4.00"},
	} {
		_, err := models.ReceiveStock(ctx, &models.NewStockReceipt{
			WarehouseId: kitchen.ID,
			Items: []models.NewStockReceiptItem{
				{StockItemId: rice.ID, Quantity: dec(rcpt.qty), UnitCost: dec(rcpt.cost)},
			},
		})
		if err != nil {
			t.Fatalf("ReceiveStock(%s @ %s): %v", rcpt.qty, rcpt.cost, err)
		}
	}

	level, err := models.GetStockLevel(ctx, rice.ID, kitchen.ID)
	if err != nil {
		t.Fatalf("GetStockLevel after receipts: %v", err)
	}
	if !level.Quantity.Equal(dec("40")) {
		t.Errorf("quantity after receipts = %s, want 40", level.Quantity)
	}
	if !level.AverageCost.Equal(dec("3.5")) {
		t.Errorf("average cost after receipts = %s, want 3.5", level.AverageCost)
	}

	// Consuming must deduct quantity but leave the average untouched.
	_, err = models.ConsumeStock(ctx, &models.NewStockConsumption{
		WarehouseId: kitchen.ID,
		Department:  "Kitchen",
		Items: []models.NewStockConsumptionItem{
			{StockItemId: rice.ID, Quantity: dec("15")},
		},
	})
	if err != nil {
		t.Fatalf("ConsumeStock: %v", err)
	}

	level, err = models.GetStockLevel(ctx, rice.ID, kitchen.ID)
	if err != nil {
		t.Fatalf("GetStockLevel after consumption: %v", err)
	}
	if !level.Quantity.Equal(dec("25")) {
		t.Errorf("quantity after consumption = %s, want 25", level.Quantity)
	}
	if !level.AverageCost.Equal(dec("3.5")) {
		t.Errorf("average cost shifted on outflow: %s, want 3.5", level.AverageCost)
	}

	// Transfer 5 kg to the bar: value leaves at 3.50 and arrives at 3.50.
	transfer, err := models.TransferStock(ctx, &models.NewStockTransfer{
		StockItemId:            rice.ID,
		SourceWarehouseId:      kitchen.ID,
		DestinationWarehouseId: bar.ID,
		Quantity:               dec("5"),
	})
	if err != nil {
		t.Fatalf("TransferStock: %v", err)
	}
	if !transfer.UnitCost.Equal(dec("3.5")) {
		t.Errorf("transfer unit cost = %s, want 3.5", transfer.UnitCost)
	}

	barLevel, err := models.GetStockLevel(ctx, rice.ID, bar.ID)
	if err != nil {
		t.Fatalf("GetStockLevel at bar: %v", err)
	}
	if !barLevel.Quantity.Equal(dec("5")) || !barLevel.AverageCost.Equal(dec("3.5")) {
		t.Errorf("bar level = %s @ %s, want 5 @ 3.5", barLevel.Quantity, barLevel.AverageCost)
	}

	// The ledger must replay to the stored levels at both warehouses.
	for _, warehouseId := range []int{kitchen.ID, bar.ID} {
		replay, err := models.ReplayStockLevel(ctx, rice.ID, warehouseId)
		if err != nil {
			t.Fatalf("ReplayStockLevel(warehouse %d): %v", warehouseId, err)
		}
		if !replay.InSync() {
			t.Errorf("warehouse %d: replayed %s vs stored %s, drift %s",
				warehouseId, replay.ReplayedQty, replay.StoredQty, replay.Drift)
		}
	}
}

func TestStockDeductionCannotGoNegative(t *testing.T) {
	ctx := setupIntegration(t)

	store := mustCreateWarehouse(t, ctx, "Dry Store")
	flour := mustCreateStockItem(t, ctx, &models.NewStockItem{
		Name:     "Plain Flour",
		SKU:      "FLR-001",
		Category: models.StockItemCategoryFood,
		Unit:     "kg",
	})

	_, err := models.ReceiveStock(ctx, &models.NewStockReceipt{
		WarehouseId: store.ID,
		Items: []models.NewStockReceiptItem{
			{StockItemId: flour.ID, Quantity: dec("8"), UnitCost: dec("1.20")},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveStock: %v", err)
	}

	_, err = models.ConsumeStock(ctx, &models.NewStockConsumption{
		WarehouseId: store.ID,
		Items: []models.NewStockConsumptionItem{
			{StockItemId: flour.ID, Quantity: dec("8.001")},
		},
	})
	if !models.IsInsufficientStock(err) {
		t.Fatalf("over-consumption error = %v, want insufficient stock", err)
	}

	// The failed transaction must not have touched the level.
	level, err := models.GetStockLevel(ctx, flour.ID, store.ID)
	if err != nil {
		t.Fatalf("GetStockLevel: %v", err)
	}
	if !level.Quantity.Equal(dec("8")) {
		t.Errorf("quantity after rejected consumption = %s, want 8", level.Quantity)
	}
}

func TestAdjustmentCorrectsLevelAndLedger(t *testing.T) {
	ctx := setupIntegration(t)

	store := mustCreateWarehouse(t, ctx, "Cellar")
	wine := mustCreateStockItem(t, ctx, &models.NewStockItem{
		Name:     "House Red",
		SKU:      "WINE-001",
		Category: models.StockItemCategoryBeverage,
		Unit:     "bottle",
	})

	_, err := models.ReceiveStock(ctx, &models.NewStockReceipt{
		WarehouseId: store.ID,
		Items: []models.NewStockReceiptItem{
			{StockItemId: wine.ID, Quantity: dec("24"), UnitCost: dec("6.50")},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveStock: %v", err)
	}

	// Stocktake found two bottles broken.
	_, err = models.AdjustStock(ctx, &models.NewStockAdjustment{
		StockItemId: wine.ID,
		WarehouseId: store.ID,
		Quantity:    dec("-2"),
		Reason:      "stocktake: breakage",
	})
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}

	level, err := models.GetStockLevel(ctx, wine.ID, store.ID)
	if err != nil {
		t.Fatalf("GetStockLevel: %v", err)
	}
	if !level.Quantity.Equal(dec("22")) {
		t.Errorf("quantity after adjustment = %s, want 22", level.Quantity)
	}
	if !level.AverageCost.Equal(dec("6.5")) {
		t.Errorf("average cost after negative adjustment = %s, want 6.5", level.AverageCost)
	}

	replay, err := models.ReplayStockLevel(ctx, wine.ID, store.ID)
	if err != nil {
		t.Fatalf("ReplayStockLevel: %v", err)
	}
	if !replay.InSync() {
		t.Errorf("ledger out of sync after adjustment: drift %s", replay.Drift)
	}
	if replay.MovementsCount != 2 {
		t.Errorf("movements count = %d, want 2", replay.MovementsCount)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// With strict replay checking enabled, a mutating operation that would leave
// the stored level out of step with the ledger fails loudly instead of
// returning success.
func TestStrictReplayCheckFlagsDrift(t *testing.T) {
	ctx := setupIntegration(t)
	t.Setenv("STRICT_LEDGER_REPLAY_CHECK", "true")

	store := mustCreateWarehouse(t, ctx, "Dry Store")
	flour := mustCreateStockItem(t, ctx, &models.NewStockItem{
		Name:     "Bread Flour",
		SKU:      "FLOUR-001",
		Category: models.StockItemCategoryFood,
		Unit:     "kg",
	})

	// A clean operation passes the post-commit verification.
	if _, err := models.ReceiveStock(ctx, &models.NewStockReceipt{
		WarehouseId: store.ID,
		Items: []models.NewStockReceiptItem{
			{StockItemId: flour.ID, Quantity: dec("20"), UnitCost: dec("1.80")},
		},
	}); err != nil {
		t.Fatalf("ReceiveStock with strict check on: %v", err)
	}

	// Corrupt the stored quantity behind the ledger's back.
	err := config.GetDB().Model(&models.StockLevel{}).
		Where("stock_item_id = ? AND warehouse_id = ?", flour.ID, store.ID).
		Update("quantity", dec("500")).Error
	if err != nil {
		t.Fatalf("corrupting stock level: %v", err)
	}

	_, err = models.ConsumeStock(ctx, &models.NewStockConsumption{
		WarehouseId: store.ID,
		Department:  "Kitchen",
		Items: []models.NewStockConsumptionItem{
			{StockItemId: flour.ID, Quantity: dec("5")},
		},
	})
	if models.ErrKindOf(err) != models.ErrorKindPersistence {
		t.Fatalf("ConsumeStock on drifted level: err = %v, want persistence error", err)
	}
}
