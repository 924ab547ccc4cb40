package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/models"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
)

// seed-demo provisions a property with a small working catalog so a fresh
// environment has something to poke at: two warehouses, a supplier, a few
// stock items, a recipe and a menu item.
func main() {
	name := flag.String("name", "Demo Resort", "Property name")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	property, err := models.CreateProperty(ctx, &models.NewProperty{Name: *name, Timezone: "UTC"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create property: %v\n", err)
		os.Exit(1)
	}
	ctx = utils.SetPropertyIdInContext(ctx, property.ID.String())
	fmt.Printf("property %s (%s)\n", property.Name, property.ID)

	kitchen, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Kitchen Store", Location: "Main Building"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create warehouse: %v\n", err)
		os.Exit(1)
	}

	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		Name:  "Island Farms",
		Email: "orders@islandfarms.example",
		Phone: "+66 76 000 111",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create supplier: %v\n", err)
		os.Exit(1)
	}

	type seedItem struct {
		name     string
		sku      string
		category models.StockItemCategory
		unit     string
		qty      string
		cost     string
	}
	items := []seedItem{
		{"Jasmine Rice", "FD-0001", models.StockItemCategoryFood, "kg", "120", "1.85"},
		{"Chicken Breast", "FD-0002", models.StockItemCategoryFood, "kg", "45", "6.40"},
		{"Coconut Milk", "FD-0003", models.StockItemCategoryFood, "l", "60", "2.10"},
		{"Bath Towel", "LN-0001", models.StockItemCategoryLinen, "pc", "200", "4.75"},
	}

	var receiptLines []models.NewStockReceiptItem
	ingredients := map[string]int{}
	for _, s := range items {
		item, err := models.CreateStockItem(ctx, &models.NewStockItem{
			Name:     s.name,
			SKU:      s.sku,
			Category: s.category,
			Unit:     s.unit,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create stock item %s: %v\n", s.name, err)
			os.Exit(1)
		}
		ingredients[s.name] = item.ID
		receiptLines = append(receiptLines, models.NewStockReceiptItem{
			StockItemId: item.ID,
			Quantity:    decimal.RequireFromString(s.qty),
			UnitCost:    decimal.RequireFromString(s.cost),
		})
	}

	if _, err := models.ReceiveStock(ctx, &models.NewStockReceipt{
		WarehouseId: kitchen.ID,
		SupplierId:  &supplier.ID,
		Notes:       "opening stock",
		Items:       receiptLines,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "opening receipt: %v\n", err)
		os.Exit(1)
	}

	recipe, err := models.CreateRecipe(ctx, &models.NewRecipe{
		Name:          "Khao Man Gai",
		YieldQuantity: decimal.NewFromInt(1),
		YieldUnit:     "portion",
		Ingredients: []models.NewRecipeIngredient{
			{StockItemId: ingredients["Jasmine Rice"], Quantity: decimal.RequireFromString("0.2"), Unit: "kg"},
			{StockItemId: ingredients["Chicken Breast"], Quantity: decimal.RequireFromString("0.18"), Unit: "kg"},
			{StockItemId: ingredients["Coconut Milk"], Quantity: decimal.RequireFromString("0.05"), Unit: "l"},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create recipe: %v\n", err)
		os.Exit(1)
	}

	menuItem, err := models.CreateMenuItem(ctx, &models.NewMenuItem{
		Name:     "Khao Man Gai",
		Category: "Mains",
		Price:    decimal.RequireFromString("9.50"),
		RecipeId: &recipe.ID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create menu item: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded warehouse=%d supplier=%d items=%d recipe=%d menuItem=%d\n",
		kitchen.ID, supplier.ID, len(items), recipe.ID, menuItem.ID)
}
