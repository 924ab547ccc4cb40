package models_test

import (
	"context"
	"testing"

	"github.com/lagoonpms/resort_backend/models"
)

// Builds the standard kitchen fixture: a warehouse stocked with two
// ingredients at known average costs, a recipe yielding four portions and a
// menu item priced at 12.00.
func setupMenuFixture(t *testing.T) (ctx context.Context, warehouseId, menuItemId, recipeId int) {
	c := setupIntegration(t)

	kitchen := mustCreateWarehouse(t, c, "Kitchen Store")
	chicken := mustCreateStockItem(t, c, &models.NewStockItem{
		Name: "Chicken Thigh", SKU: "CHI-001", Category: models.StockItemCategoryFood, Unit: "kg",
	})
	rice := mustCreateStockItem(t, c, &models.NewStockItem{
		Name: "Jasmine Rice", SKU: "RICE-001", Category: models.StockItemCategoryFood, Unit: "kg",
	})

	_, err := models.ReceiveStock(c, &models.NewStockReceipt{
		WarehouseId: kitchen.ID,
		Items: []models.NewStockReceiptItem{
			{StockItemId: chicken.ID, Quantity: dec("20"), UnitCost: dec("5.00")},
			{StockItemId: rice.ID, Quantity: dec("50"), UnitCost: dec("2.00")},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveStock: %v", err)
	}

	// Four portions: 2 kg chicken (10.00) + 1 kg rice (2.00) = 12.00 total,
	// 3.00 per portion.
	recipe, err := models.CreateRecipe(c, &models.NewRecipe{
		Name:          "Chicken Rice",
		YieldQuantity: dec("4"),
		YieldUnit:     "portion",
		Ingredients: []models.NewRecipeIngredient{
			{StockItemId: chicken.ID, Quantity: dec("2"), Unit: "kg"},
			{StockItemId: rice.ID, Quantity: dec("1"), Unit: "kg"},
		},
	})
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	menuItem, err := models.CreateMenuItem(c, &models.NewMenuItem{
		Name:     "Chicken Rice",
		Category: "Mains",
		Price:    dec("12.00"),
		RecipeId: &recipe.ID,
	})
	if err != nil {
		t.Fatalf("CreateMenuItem: %v", err)
	}
	return c, kitchen.ID, menuItem.ID, recipe.ID
}

func TestRecipeCostAndFoodCostPercent(t *testing.T) {
	ctx, _, menuItemId, recipeId := setupMenuFixture(t)

	cost, err := models.CalculateRecipeCost(ctx, recipeId, nil)
	if err != nil {
		t.Fatalf("CalculateRecipeCost: %v", err)
	}
	if !cost.TotalCost.Equal(dec("12")) {
		t.Errorf("recipe total cost = %s, want 12", cost.TotalCost)
	}
	if !cost.CostPerYield.Equal(dec("3")) {
		t.Errorf("cost per portion = %s, want 3", cost.CostPerYield)
	}
	if len(cost.Lines) != 2 {
		t.Errorf("cost lines = %d, want 2", len(cost.Lines))
	}

	// 3.00 portion cost on a 12.00 price: 25%, under the 35% default target.
	foodCost, err := models.GetMenuItemFoodCost(ctx, menuItemId)
	if err != nil {
		t.Fatalf("GetMenuItemFoodCost: %v", err)
	}
	if !foodCost.PortionCost.Equal(dec("3")) {
		t.Errorf("portion cost = %s, want 3", foodCost.PortionCost)
	}
	if !foodCost.FoodCostPercent.Equal(dec("25")) {
		t.Errorf("food cost percent = %s, want 25", foodCost.FoodCostPercent)
	}
	if foodCost.IsAboveTargetCost {
		t.Error("25% flagged above the 35% target")
	}
}

func TestMenuSaleSnapshotsCOGSImmutably(t *testing.T) {
	ctx, warehouseId, menuItemId, _ := setupMenuFixture(t)

	record, err := models.RecordMenuItemSale(ctx, &models.NewMenuItemSale{
		MenuItemId:  menuItemId,
		WarehouseId: warehouseId,
		Quantity:    dec("2"),
	})
	if err != nil {
		t.Fatalf("RecordMenuItemSale: %v", err)
	}
	if !record.UnitCogs.Equal(dec("3")) {
		t.Errorf("unit cogs = %s, want 3", record.UnitCogs)
	}
	if !record.TotalCogs.Equal(dec("6")) {
		t.Errorf("total cogs = %s, want 6", record.TotalCogs)
	}
	if !record.SalePrice.Equal(dec("12")) {
		t.Errorf("sale price snapshot = %s, want 12", record.SalePrice)
	}
	if !record.FoodCostPercent.Equal(dec("25")) {
		t.Errorf("food cost percent snapshot = %s, want 25", record.FoodCostPercent)
	}

	// Two portions of a four portion recipe draw down half the recipe.
	// 20 kg chicken minus 1 kg, 50 kg rice minus 0.5 kg.
	for _, want := range []struct {
		name string
		sku  string
		qty  string
	}{
		{"Chicken Thigh", "CHI-001", "19"},
		{"Jasmine Rice", "RICE-001", "49.5"},
	} {
		items, err := models.ListStockItem(ctx, &want.name, nil)
		if err != nil || len(items) == 0 {
			t.Fatalf("ListStockItem(%s): %v", want.name, err)
		}
		level, err := models.GetStockLevel(ctx, items[0].ID, warehouseId)
		if err != nil {
			t.Fatalf("GetStockLevel(%s): %v", want.name, err)
		}
		if !level.Quantity.Equal(dec(want.qty)) {
			t.Errorf("%s level = %s, want %s", want.name, level.Quantity, want.qty)
		}
	}

	// A later cost change must not disturb the recorded snapshot. Receive
	// chicken at a much higher cost, then re-read the record.
	items, err := models.ListStockItem(ctx, ptr("Chicken Thigh"), nil)
	if err != nil || len(items) == 0 {
		t.Fatalf("ListStockItem: %v", err)
	}
	_, err = models.ReceiveStock(ctx, &models.NewStockReceipt{
		WarehouseId: warehouseId,
		Items: []models.NewStockReceiptItem{
			{StockItemId: items[0].ID, Quantity: dec("10"), UnitCost: dec("9.00")},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveStock (cost shift): %v", err)
	}

	records, err := models.ListCOGSRecords(ctx, &menuItemId, nil, nil)
	if err != nil {
		t.Fatalf("ListCOGSRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("cogs records = %d, want 1", len(records))
	}
	if !records[0].UnitCogs.Equal(dec("3")) {
		t.Errorf("snapshot drifted after cost change: %s, want 3", records[0].UnitCogs)
	}
}

func TestMenuSaleRejectsShortStockAndUnavailableItem(t *testing.T) {
	ctx, warehouseId, menuItemId, _ := setupMenuFixture(t)

	// 20 kg chicken supports 40 portions; 41 must fail and leave levels
	// untouched.
	_, err := models.RecordMenuItemSale(ctx, &models.NewMenuItemSale{
		MenuItemId:  menuItemId,
		WarehouseId: warehouseId,
		Quantity:    dec("41"),
	})
	if !models.IsInsufficientStock(err) {
		t.Fatalf("oversell error = %v, want insufficient stock", err)
	}

	availability, err := models.CheckMenuItemAvailability(ctx, menuItemId, warehouseId, dec("41"))
	if err != nil {
		t.Fatalf("CheckMenuItemAvailability: %v", err)
	}
	if availability.CanPrepare {
		t.Error("41 portions reported available against 40 portions of chicken")
	}
	if len(availability.Shortages) == 0 {
		t.Error("no shortages reported for oversell")
	}

	if _, err := models.SetMenuItemAvailability(ctx, menuItemId, false, "kitchen closed"); err != nil {
		t.Fatalf("SetMenuItemAvailability: %v", err)
	}
	_, err = models.RecordMenuItemSale(ctx, &models.NewMenuItemSale{
		MenuItemId:  menuItemId,
		WarehouseId: warehouseId,
		Quantity:    dec("1"),
	})
	if models.ErrKindOf(err) != models.ErrorKindPrecondition {
		t.Errorf("sale of unavailable item error = %v, want precondition", err)
	}
}

func ptr[T any](v T) *T { return &v }
