package reports

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
)

type MenuProfitabilityResponse struct {
	MenuItemId     int             `json:"menuItemId"`
	MenuItemName   string          `json:"menuItemName"`
	Category       string          `json:"category"`
	UnitsSold      decimal.Decimal `json:"unitsSold"`
	Revenue        decimal.Decimal `json:"revenue"`
	TotalCogs      decimal.Decimal `json:"totalCogs"`
	GrossMargin    decimal.Decimal `json:"grossMargin"`
	AvgFoodCostPct decimal.Decimal `json:"avgFoodCostPct"`
}

// GetMenuProfitabilityReport aggregates recorded sales per menu item over the
// period. Revenue and COGS come from the immutable sale snapshots, so the
// report reads the same no matter how ingredient prices moved since.
func GetMenuProfitabilityReport(ctx context.Context, fromDate, toDate time.Time) ([]*MenuProfitabilityResponse, error) {
	sql := `
SELECT
    cr.menu_item_id,
    mi.name AS menu_item_name,
    mi.category,
    SUM(cr.quantity) AS units_sold,
    ROUND(SUM(cr.quantity * cr.sale_price), 2) AS revenue,
    ROUND(SUM(cr.total_cogs), 2) AS total_cogs,
    ROUND(SUM(cr.quantity * cr.sale_price) - SUM(cr.total_cogs), 2) AS gross_margin,
    ROUND(AVG(cr.food_cost_percent), 2) AS avg_food_cost_pct
FROM cogs_records cr
    JOIN menu_items mi ON mi.id = cr.menu_item_id
WHERE cr.property_id = @propertyId
  AND cr.sale_date >= @fromDate
  AND cr.sale_date <= @toDate
GROUP BY cr.menu_item_id, mi.name, mi.category
ORDER BY gross_margin DESC;
`
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}
	if toDate.Before(fromDate) {
		return nil, errors.New("invalid date range")
	}

	var results []*MenuProfitabilityResponse
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
