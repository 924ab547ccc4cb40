package reports

import (
	"context"
	"errors"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
)

type LowStockResponse struct {
	StockItemId   int             `json:"stockItemId"`
	StockItemName string          `json:"stockItemName"`
	Sku           string          `json:"sku"`
	Category      string          `json:"category"`
	OnHand        decimal.Decimal `json:"onHand"`
	ReorderLevel  decimal.Decimal `json:"reorderLevel"`
	Shortfall     decimal.Decimal `json:"shortfall"`
}

// GetLowStockReport lists active items whose property-wide on-hand quantity
// has fallen to or below their reorder level. Items without a reorder level
// never appear.
func GetLowStockReport(ctx context.Context) ([]*LowStockResponse, error) {
	sql := `
SELECT
    si.id AS stock_item_id,
    si.name AS stock_item_name,
    si.sku,
    si.category,
    COALESCE(SUM(sl.quantity), 0) AS on_hand,
    si.reorder_level,
    si.reorder_level - COALESCE(SUM(sl.quantity), 0) AS shortfall
FROM stock_items si
    LEFT JOIN stock_levels sl ON sl.stock_item_id = si.id
WHERE si.property_id = @propertyId
  AND si.is_active = 1
  AND si.reorder_level > 0
GROUP BY si.id, si.name, si.sku, si.category, si.reorder_level
HAVING COALESCE(SUM(sl.quantity), 0) <= si.reorder_level
ORDER BY shortfall DESC;
`
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	var results []*LowStockResponse
	db := config.GetDB()
	args := map[string]interface{}{"propertyId": propertyId}
	if err := db.WithContext(ctx).Raw(sql, args).Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
