package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/lagoonpms/resort_backend/models"
)

func setupConsignmentFixture(t *testing.T) (ctx context.Context, supplierId, warehouseId, itemId int) {
	c := setupIntegration(t)

	supplier := mustCreateSupplier(t, c, "Island Breweries")
	warehouse := mustCreateWarehouse(t, c, "Beach Bar")
	item := mustCreateStockItem(t, c, &models.NewStockItem{
		Name:          "Craft Lager 330ml",
		SKU:           "CSG-LAGER",
		Category:      models.StockItemCategoryBeverage,
		Unit:          "bottle",
		IsConsignment: true,
		SupplierId:    &supplier.ID,
	})

	_, err := models.ReceiveConsignment(c, &models.NewConsignmentReceipt{
		SupplierId:  supplier.ID,
		WarehouseId: warehouse.ID,
		Items: []models.NewConsignmentReceiptItem{
			{StockItemId: item.ID, Quantity: dec("48"), SupplierCost: dec("1.10"), SellingPrice: dec("3.00")},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveConsignment: %v", err)
	}
	return c, supplier.ID, warehouse.ID, item.ID
}

func TestConsignmentSaleSnapshotsLatestPricing(t *testing.T) {
	ctx, supplierId, warehouseId, itemId := setupConsignmentFixture(t)

	sale, err := models.RecordConsignmentSale(ctx, &models.NewConsignmentSale{
		StockItemId: itemId,
		Quantity:    dec("6"),
	})
	if err != nil {
		t.Fatalf("RecordConsignmentSale: %v", err)
	}
	if !sale.SellingPrice.Equal(dec("3")) || !sale.SupplierCost.Equal(dec("1.1")) {
		t.Errorf("sale snapshot = %s / %s, want 3 / 1.1", sale.SellingPrice, sale.SupplierCost)
	}
	if sale.SettlementId != nil {
		t.Errorf("fresh sale already linked to settlement %d", *sale.SettlementId)
	}

	// A new receipt with new prices must govern subsequent sales only.
	_, err = models.ReceiveConsignment(ctx, &models.NewConsignmentReceipt{
		SupplierId:  supplierId,
		WarehouseId: warehouseId,
		Items: []models.NewConsignmentReceiptItem{
			{StockItemId: itemId, Quantity: dec("24"), SupplierCost: dec("1.25"), SellingPrice: dec("3.50")},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveConsignment (repricing): %v", err)
	}

	later, err := models.RecordConsignmentSale(ctx, &models.NewConsignmentSale{
		StockItemId: itemId,
		Quantity:    dec("2"),
	})
	if err != nil {
		t.Fatalf("RecordConsignmentSale after repricing: %v", err)
	}
	if !later.SellingPrice.Equal(dec("3.5")) || !later.SupplierCost.Equal(dec("1.25")) {
		t.Errorf("repriced sale snapshot = %s / %s, want 3.5 / 1.25", later.SellingPrice, later.SupplierCost)
	}
	if !sale.SellingPrice.Equal(dec("3")) {
		t.Errorf("earlier sale snapshot mutated to %s", sale.SellingPrice)
	}
}

func TestConsignmentSettlementLinksAndPaysOnce(t *testing.T) {
	ctx, supplierId, _, itemId := setupConsignmentFixture(t)

	for i := 0; i < 3; i++ {
		_, err := models.RecordConsignmentSale(ctx, &models.NewConsignmentSale{
			StockItemId: itemId,
			Quantity:    dec("4"),
		})
		if err != nil {
			t.Fatalf("RecordConsignmentSale #%d: %v", i+1, err)
		}
	}

	now := time.Now()
	settlement, err := models.GenerateConsignmentSettlement(ctx, &models.NewConsignmentSettlement{
		SupplierId:  supplierId,
		PeriodStart: now.Add(-24 * time.Hour),
		PeriodEnd:   now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("GenerateConsignmentSettlement: %v", err)
	}
	if settlement.SalesCount != 3 {
		t.Errorf("sales count = %d, want 3", settlement.SalesCount)
	}
	// 12 bottles at 3.00 selling, 1.10 cost.
	if !settlement.TotalSales.Equal(dec("36")) {
		t.Errorf("total sales = %s, want 36", settlement.TotalSales)
	}
	if !settlement.TotalCost.Equal(dec("13.2")) {
		t.Errorf("total cost = %s, want 13.2", settlement.TotalCost)
	}
	if !settlement.GrossMargin.Equal(dec("22.8")) {
		t.Errorf("gross margin = %s, want 22.8", settlement.GrossMargin)
	}

	unsettled, err := models.ListUnsettledConsignmentSales(ctx, supplierId)
	if err != nil {
		t.Fatalf("ListUnsettledConsignmentSales: %v", err)
	}
	if len(unsettled) != 0 {
		t.Errorf("%d sales left unsettled after settlement", len(unsettled))
	}

	// A second run over the same period has nothing left to settle.
	_, err = models.GenerateConsignmentSettlement(ctx, &models.NewConsignmentSettlement{
		SupplierId:  supplierId,
		PeriodStart: now.Add(-24 * time.Hour),
		PeriodEnd:   now.Add(time.Hour),
	})
	if models.ErrKindOf(err) != models.ErrorKindNotFound {
		t.Errorf("re-settlement error = %v, want not found", err)
	}

	paid, err := models.MarkConsignmentSettlementPaid(ctx, settlement.ID)
	if err != nil {
		t.Fatalf("MarkConsignmentSettlementPaid: %v", err)
	}
	if !paid.IsPaid() {
		t.Error("settlement not marked paid")
	}

	// Payment stamps every linked sale in the same transaction.
	full, err := models.GetConsignmentSettlement(ctx, settlement.ID)
	if err != nil {
		t.Fatalf("GetConsignmentSettlement: %v", err)
	}
	for _, sale := range full.Sales {
		if sale.SettledAt == nil {
			t.Errorf("sale %d not stamped settled", sale.ID)
		}
	}

	_, err = models.MarkConsignmentSettlementPaid(ctx, settlement.ID)
	if models.ErrKindOf(err) != models.ErrorKindPrecondition {
		t.Errorf("double payment error = %v, want precondition", err)
	}
}

func TestConsignmentSaleDrainsWarehousesAscending(t *testing.T) {
	ctx, supplierId, firstWarehouseId, itemId := setupConsignmentFixture(t)

	second := mustCreateWarehouse(t, ctx, "Lobby Bar")
	_, err := models.ReceiveConsignment(ctx, &models.NewConsignmentReceipt{
		SupplierId:  supplierId,
		WarehouseId: second.ID,
		Items: []models.NewConsignmentReceiptItem{
			{StockItemId: itemId, Quantity: dec("12"), SupplierCost: dec("1.10"), SellingPrice: dec("3.00")},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveConsignment at second warehouse: %v", err)
	}

	// 50 sold against 48 + 12 on hand: drains the lower id fully, then takes
	// the remainder from the next.
	_, err = models.RecordConsignmentSale(ctx, &models.NewConsignmentSale{
		StockItemId: itemId,
		Quantity:    dec("50"),
	})
	if err != nil {
		t.Fatalf("RecordConsignmentSale spanning warehouses: %v", err)
	}

	firstLevel, err := models.GetStockLevel(ctx, itemId, firstWarehouseId)
	if err != nil {
		t.Fatalf("GetStockLevel first: %v", err)
	}
	if !firstLevel.Quantity.IsZero() {
		t.Errorf("first warehouse not drained: %s left", firstLevel.Quantity)
	}
	secondLevel, err := models.GetStockLevel(ctx, itemId, second.ID)
	if err != nil {
		t.Fatalf("GetStockLevel second: %v", err)
	}
	if !secondLevel.Quantity.Equal(dec("10")) {
		t.Errorf("second warehouse = %s, want 10", secondLevel.Quantity)
	}

	// 11 more against 10 remaining must fail across the whole pool.
	_, err = models.RecordConsignmentSale(ctx, &models.NewConsignmentSale{
		StockItemId: itemId,
		Quantity:    dec("11"),
	})
	if !models.IsInsufficientStock(err) {
		t.Errorf("oversell error = %v, want insufficient stock", err)
	}
}

func TestConsignmentReturnIsPerWarehouse(t *testing.T) {
	ctx, _, warehouseId, itemId := setupConsignmentFixture(t)

	_, err := models.ReturnConsignmentToSupplier(ctx, &models.NewConsignmentReturn{
		StockItemId: itemId,
		WarehouseId: warehouseId,
		Quantity:    dec("48.5"),
	})
	if !models.IsInsufficientStock(err) {
		t.Fatalf("over-return error = %v, want insufficient stock", err)
	}

	ret, err := models.ReturnConsignmentToSupplier(ctx, &models.NewConsignmentReturn{
		StockItemId: itemId,
		WarehouseId: warehouseId,
		Quantity:    dec("10"),
	})
	if err != nil {
		t.Fatalf("ReturnConsignmentToSupplier: %v", err)
	}
	if !ret.Quantity.Equal(dec("10")) {
		t.Errorf("return quantity = %s, want 10", ret.Quantity)
	}

	level, err := models.GetStockLevel(ctx, itemId, warehouseId)
	if err != nil {
		t.Fatalf("GetStockLevel: %v", err)
	}
	if !level.Quantity.Equal(dec("38")) {
		t.Errorf("quantity after return = %s, want 38", level.Quantity)
	}
}
