package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/models"
	"github.com/lagoonpms/resort_backend/utils"
)

// ledger-verify replays the movement ledger for one key or a whole property
// and reports drift between the ledger and the stored stock levels. With
// --repair it rewrites drifted quantities from the ledger.
func main() {
	propertyID := flag.String("property-id", "", "Required: property id (uuid)")
	stockItemID := flag.Int("stock-item-id", 0, "Optional: stock item id")
	warehouseID := flag.Int("warehouse-id", 0, "Optional: warehouse id")
	repair := flag.Bool("repair", false, "Rewrite drifted quantities from the ledger")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing keys and continue verifying others")
	flag.Parse()

	if strings.TrimSpace(*propertyID) == "" {
		fmt.Fprintln(os.Stderr, "--property-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := utils.SetPropertyIdInContext(context.Background(), *propertyID)

	type key struct {
		StockItemId int
		WarehouseId int
	}
	var keys []key

	if *stockItemID > 0 && *warehouseID > 0 {
		keys = append(keys, key{*stockItemID, *warehouseID})
	} else {
		if err := db.Raw(`
			SELECT stock_item_id, warehouse_id
			FROM stock_levels
			WHERE property_id = ?
			ORDER BY stock_item_id, warehouse_id
		`, *propertyID).Scan(&keys).Error; err != nil {
			fmt.Fprintf(os.Stderr, "discover keys: %v\n", err)
			os.Exit(1)
		}
	}

	drifted := 0
	for _, k := range keys {
		replay, err := models.ReplayStockLevel(ctx, k.StockItemId, k.WarehouseId)
		if err != nil {
			fmt.Fprintf(os.Stderr, "item=%d warehouse=%d: %v\n", k.StockItemId, k.WarehouseId, err)
			if *continueOnError {
				continue
			}
			os.Exit(1)
		}
		if !replay.InSync() {
			drifted++
			fmt.Printf("DRIFT item=%d warehouse=%d stored=%s replayed=%s drift=%s movements=%d\n",
				replay.StockItemId, replay.WarehouseId,
				replay.StoredQty.String(), replay.ReplayedQty.String(),
				replay.Drift.String(), replay.MovementsCount)
			if *repair {
				if _, err := models.RepairStockLevel(ctx, k.StockItemId, k.WarehouseId); err != nil {
					fmt.Fprintf(os.Stderr, "repair item=%d warehouse=%d: %v\n", k.StockItemId, k.WarehouseId, err)
					if !*continueOnError {
						os.Exit(1)
					}
					continue
				}
				fmt.Printf("REPAIRED item=%d warehouse=%d quantity=%s\n",
					k.StockItemId, k.WarehouseId, replay.ReplayedQty.String())
			}
		}
	}

	fmt.Printf("checked %d key(s), %d drifted\n", len(keys), drifted)
	if drifted > 0 && !*repair {
		os.Exit(2)
	}
}
