package reports

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
)

type WasteSummaryResponse struct {
	StockItemId   int             `json:"stockItemId"`
	StockItemName string          `json:"stockItemName"`
	Reason        string          `json:"reason"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	Occurrences   int             `json:"occurrences"`
}

// GetWasteSummaryReport totals write-offs per item and reason over the
// period, valued at the average cost each write-off carried.
func GetWasteSummaryReport(ctx context.Context, fromDate, toDate time.Time) ([]*WasteSummaryResponse, error) {
	sql := `
SELECT
    sm.stock_item_id,
    si.name AS stock_item_name,
    sm.reason,
    SUM(sm.quantity) AS total_quantity,
    SUM(sm.total_cost) AS total_value,
    COUNT(sm.id) AS occurrences
FROM stock_movements sm
    JOIN stock_items si ON si.id = sm.stock_item_id
WHERE sm.property_id = @propertyId
  AND sm.movement_type = 'WASTE'
  AND sm.movement_date >= @fromDate
  AND sm.movement_date <= @toDate
GROUP BY sm.stock_item_id, si.name, sm.reason
ORDER BY total_value DESC;
`
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}
	if toDate.Before(fromDate) {
		return nil, errors.New("invalid date range")
	}

	var results []*WasteSummaryResponse
	db := config.GetDB()
	args := map[string]interface{}{
		"propertyId": propertyId,
		"fromDate":   fromDate,
		"toDate":     toDate,
	}
	if err := db.WithContext(ctx).Raw(sql, args).Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
