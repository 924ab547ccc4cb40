package reports

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
)

type MovementHistoryResponse struct {
	MovementId           int             `json:"movementId"`
	StockItemId          int             `json:"stockItemId"`
	StockItemName        string          `json:"stockItemName"`
	MovementType         string          `json:"movementType"`
	Quantity             decimal.Decimal `json:"quantity"`
	UnitCost             decimal.Decimal `json:"unitCost"`
	TotalCost            decimal.Decimal `json:"totalCost"`
	SourceWarehouse      *string         `json:"sourceWarehouse"`
	DestinationWarehouse *string         `json:"destinationWarehouse"`
	ReferenceType        string          `json:"referenceType"`
	ReferenceId          int             `json:"referenceId"`
	Reason               string          `json:"reason"`
	MovementDate         time.Time       `json:"movementDate"`
}

// GetMovementHistoryReport lists ledger entries with resolved item and
// warehouse names, newest first.
func GetMovementHistoryReport(ctx context.Context, stockItemId *int, warehouseId *int, fromDate, toDate *time.Time, limit int) ([]*MovementHistoryResponse, error) {
	sqlT := `
SELECT
    sm.id AS movement_id,
    sm.stock_item_id,
    si.name AS stock_item_name,
    sm.movement_type,
    sm.quantity,
    sm.unit_cost,
    sm.total_cost,
    sw.name AS source_warehouse,
    dw.name AS destination_warehouse,
    sm.reference_type,
    sm.reference_id,
    sm.reason,
    sm.movement_date
FROM stock_movements sm
    JOIN stock_items si ON si.id = sm.stock_item_id
    LEFT JOIN warehouses sw ON sw.id = sm.source_warehouse_id
    LEFT JOIN warehouses dw ON dw.id = sm.destination_warehouse_id
WHERE sm.property_id = @propertyId
  {{- if .stockItemId }} AND sm.stock_item_id = @stockItemId {{- end }}
  {{- if .warehouseId }} AND (sm.source_warehouse_id = @warehouseId OR sm.destination_warehouse_id = @warehouseId) {{- end }}
  {{- if .fromDate }} AND sm.movement_date >= @fromDate {{- end }}
  {{- if .toDate }} AND sm.movement_date <= @toDate {{- end }}
ORDER BY sm.id DESC
LIMIT @limit;
`
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"stockItemId": utils.DereferencePtr(stockItemId),
		"warehouseId": utils.DereferencePtr(warehouseId),
		"fromDate":    fromDate != nil,
		"toDate":      toDate != nil,
	})
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"propertyId": propertyId,
		"limit":      limit,
	}
	if stockItemId != nil && *stockItemId != 0 {
		args["stockItemId"] = stockItemId
	}
	if warehouseId != nil && *warehouseId != 0 {
		args["warehouseId"] = warehouseId
	}
	if fromDate != nil {
		args["fromDate"] = fromDate
	}
	if toDate != nil {
		args["toDate"] = toDate
	}

	var results []*MovementHistoryResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, args).Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
