package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lagoonpms/resort_backend/models"
	"github.com/lagoonpms/resort_backend/models/reports"
)

func registerReportRoutes(r gin.IRoutes) {
	r.GET("/reports/stock-valuation", stockValuationReportHandler)
	r.GET("/reports/stock-valuation/export", stockValuationExportHandler)
	r.GET("/reports/movement-history", movementHistoryReportHandler)
	r.GET("/reports/low-stock", lowStockReportHandler)
	r.GET("/reports/expiring-stock", expiringStockReportHandler)
	r.GET("/reports/waste-summary", wasteSummaryReportHandler)
	r.GET("/reports/menu-profitability", menuProfitabilityReportHandler)
	r.GET("/reports/ledger-replay", ledgerReplayHandler)
}

func stockValuationReportHandler(c *gin.Context) {
	report, err := reports.GetStockValuationSummaryReport(c.Request.Context(), queryInt(c, "warehouseId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

func stockValuationExportHandler(c *gin.Context) {
	if err := reports.ExportStockValuationExcel(c.Request.Context(), c.Writer, queryInt(c, "warehouseId")); err != nil {
		respondError(c, err)
	}
}

func movementHistoryReportHandler(c *gin.Context) {
	limit := 0
	if l := queryInt(c, "limit"); l != nil {
		limit = *l
	}
	report, err := reports.GetMovementHistoryReport(c.Request.Context(),
		queryInt(c, "stockItemId"), queryInt(c, "warehouseId"),
		queryDate(c, "from"), queryEndDate(c, "to"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

func lowStockReportHandler(c *gin.Context) {
	report, err := reports.GetLowStockReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

func expiringStockReportHandler(c *gin.Context) {
	days := 30
	if d := queryInt(c, "withinDays"); d != nil {
		days = *d
	}
	report, err := reports.GetExpiringStockReport(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

func reportDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from := queryDate(c, "from")
	to := queryEndDate(c, "to")
	if to == nil {
		now := time.Now().UTC()
		to = &now
	}
	if from == nil {
		start := to.AddDate(0, -1, 0)
		from = &start
	}
	if to.Before(*from) {
		return time.Time{}, time.Time{}, false
	}
	return *from, *to, true
}

func wasteSummaryReportHandler(c *gin.Context) {
	from, to, ok := reportDateRange(c)
	if !ok {
		respondError(c, models.NewValidationError("invalid date range"))
		return
	}
	report, err := reports.GetWasteSummaryReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

func menuProfitabilityReportHandler(c *gin.Context) {
	from, to, ok := reportDateRange(c)
	if !ok {
		respondError(c, models.NewValidationError("invalid date range"))
		return
	}
	report, err := reports.GetMenuProfitabilityReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

func ledgerReplayHandler(c *gin.Context) {
	stockItemId := queryInt(c, "stockItemId")
	warehouseId := queryInt(c, "warehouseId")
	if stockItemId == nil || warehouseId == nil {
		respondError(c, models.NewValidationError("stockItemId and warehouseId query parameters are required"))
		return
	}
	replay, err := models.ReplayStockLevel(c.Request.Context(), *stockItemId, *warehouseId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, replay)
}
