package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/models"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type StockValuationRowResponse struct {
	StockItemId   int             `json:"stockItemId"`
	StockItemName string          `json:"stockItemName"`
	Sku           string          `json:"sku"`
	Category      string          `json:"category"`
	WarehouseId   int             `json:"warehouseId"`
	WarehouseName string          `json:"warehouseName"`
	Quantity      decimal.Decimal `json:"quantity"`
	AverageCost   decimal.Decimal `json:"averageCost"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

type StockValuationSummaryResponse struct {
	Rows       []*StockValuationRowResponse `json:"rows"`
	GrandTotal decimal.Decimal              `json:"grandTotal"`
}

// GetStockValuationSummaryReport values the current on-hand stock at average
// cost, per (item, warehouse), with a property-wide grand total. Zero-quantity
// rows are excluded.
func GetStockValuationSummaryReport(ctx context.Context, warehouseId *int) (*StockValuationSummaryResponse, error) {
	sqlT := `
SELECT
    sl.stock_item_id,
    si.name AS stock_item_name,
    si.sku,
    si.category,
    sl.warehouse_id,
    w.name AS warehouse_name,
    sl.quantity,
    sl.average_cost,
    ROUND(sl.quantity * sl.average_cost, 2) AS total_value
FROM stock_levels sl
    JOIN stock_items si ON si.id = sl.stock_item_id
    JOIN warehouses w ON w.id = sl.warehouse_id
WHERE sl.property_id = @propertyId
  AND sl.quantity <> 0
  {{- if .warehouseId }} AND sl.warehouse_id = @warehouseId {{- end }}
ORDER BY si.name, sl.warehouse_id;
`
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if warehouseId != nil && *warehouseId > 0 {
		if err := utils.ValidateResourceId[models.Warehouse](ctx, propertyId, *warehouseId); err != nil {
			return nil, errors.New("warehouse not found")
		}
	}

	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"warehouseId": utils.DereferencePtr(warehouseId),
	})
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"propertyId": propertyId,
	}
	if warehouseId != nil && *warehouseId != 0 {
		args["warehouseId"] = warehouseId
	}

	var rows []*StockValuationRowResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, args).Scan(&rows).Error; err != nil {
		return nil, err
	}

	grandTotal := decimal.Zero
	for _, row := range rows {
		grandTotal = grandTotal.Add(row.TotalValue)
	}

	return &StockValuationSummaryResponse{
		Rows:       rows,
		GrandTotal: utils.RoundAmount(grandTotal),
	}, nil
}

// ExportStockValuationExcel streams the valuation report as an xlsx download.
func ExportStockValuationExcel(ctx context.Context, w http.ResponseWriter, warehouseId *int) error {
	report, err := GetStockValuationSummaryReport(ctx, warehouseId)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Item", "SKU", "Category", "Warehouse", "Quantity", "AverageCost", "TotalValue"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, row := range report.Rows {
		rowNo := i + 2
		f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), row.StockItemName)
		f.SetCellValue(sheet, "B"+fmt.Sprint(rowNo), row.Sku)
		f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), row.Category)
		f.SetCellValue(sheet, "D"+fmt.Sprint(rowNo), row.WarehouseName)
		f.SetCellValue(sheet, "E"+fmt.Sprint(rowNo), row.Quantity.InexactFloat64())
		f.SetCellValue(sheet, "F"+fmt.Sprint(rowNo), row.AverageCost.InexactFloat64())
		f.SetCellValue(sheet, "G"+fmt.Sprint(rowNo), row.TotalValue.InexactFloat64())
	}
	totalRow := len(report.Rows) + 2
	f.SetCellValue(sheet, "A"+fmt.Sprint(totalRow), "Grand Total")
	f.SetCellValue(sheet, "G"+fmt.Sprint(totalRow), report.GrandTotal.InexactFloat64())

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=stock_valuation.xlsx")
	return f.Write(w)
}
