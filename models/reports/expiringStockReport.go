package reports

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
)

type ExpiringStockResponse struct {
	BatchId       int             `json:"batchId"`
	BatchNumber   string          `json:"batchNumber"`
	StockItemId   int             `json:"stockItemId"`
	StockItemName string          `json:"stockItemName"`
	WarehouseId   int             `json:"warehouseId"`
	WarehouseName string          `json:"warehouseName"`
	Quantity      decimal.Decimal `json:"quantity"`
	ExpiryDate    time.Time       `json:"expiryDate"`
	DaysLeft      int             `json:"daysLeft"`
}

// GetExpiringStockReport lists batches expiring on or before the cutoff,
// soonest first. Batches already past expiry report negative days left.
func GetExpiringStockReport(ctx context.Context, withinDays int) ([]*ExpiringStockResponse, error) {
	sql := `
SELECT
    sb.id AS batch_id,
    sb.batch_number,
    sb.stock_item_id,
    si.name AS stock_item_name,
    sb.warehouse_id,
    w.name AS warehouse_name,
    sb.quantity,
    sb.expiry_date,
    DATEDIFF(sb.expiry_date, @today) AS days_left
FROM stock_batches sb
    JOIN stock_items si ON si.id = sb.stock_item_id
    JOIN warehouses w ON w.id = sb.warehouse_id
WHERE sb.property_id = @propertyId
  AND sb.expiry_date IS NOT NULL
  AND sb.expiry_date <= @cutoff
ORDER BY sb.expiry_date ASC;
`
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}
	if withinDays <= 0 {
		withinDays = 30
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	cutoff := today.AddDate(0, 0, withinDays)

	var results []*ExpiringStockResponse
	db := config.GetDB()
	args := map[string]interface{}{
		"propertyId": propertyId,
		"today":      today,
		"cutoff":     cutoff,
	}
	if err := db.WithContext(ctx).Raw(sql, args).Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
