package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lagoonpms/resort_backend/models"
)

func registerConsignmentRoutes(r gin.IRoutes) {
	r.POST("/consignments/receipts", receiveConsignmentHandler)
	r.POST("/consignments/sales", recordConsignmentSaleHandler)
	r.POST("/consignments/returns", returnConsignmentHandler)
	r.GET("/consignments/sales/unsettled", listUnsettledSalesHandler)
	r.POST("/consignments/settlements", generateSettlementHandler)
	r.GET("/consignments/settlements", listSettlementsHandler)
	r.GET("/consignments/settlements/:id", getSettlementHandler)
	r.PUT("/consignments/settlements/:id/paid", markSettlementPaidHandler)
}

func receiveConsignmentHandler(c *gin.Context) {
	var input models.NewConsignmentReceipt
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	receipt, err := models.ReceiveConsignment(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, receipt)
}

func recordConsignmentSaleHandler(c *gin.Context) {
	var input models.NewConsignmentSale
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	sale, err := models.RecordConsignmentSale(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, sale)
}

func returnConsignmentHandler(c *gin.Context) {
	var input models.NewConsignmentReturn
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	ret, err := models.ReturnConsignmentToSupplier(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, ret)
}

func listUnsettledSalesHandler(c *gin.Context) {
	supplierId := queryInt(c, "supplierId")
	if supplierId == nil {
		respondError(c, models.NewValidationError("supplierId query parameter is required"))
		return
	}
	sales, err := models.ListUnsettledConsignmentSales(c.Request.Context(), *supplierId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, sales)
}

func generateSettlementHandler(c *gin.Context) {
	var input struct {
		SupplierId  int    `json:"supplier_id" binding:"required"`
		PeriodStart string `json:"period_start" binding:"required"`
		PeriodEnd   string `json:"period_end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	start, err := parseDateField(input.PeriodStart)
	if err != nil {
		respondError(c, models.NewValidationError("invalid period_start"))
		return
	}
	end, err := parseDateField(input.PeriodEnd)
	if err != nil {
		respondError(c, models.NewValidationError("invalid period_end"))
		return
	}
	// Period end covers the whole day when given as a bare date.
	if len(input.PeriodEnd) == len("2006-01-02") {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	settlement, serr := models.GenerateConsignmentSettlement(c.Request.Context(), &models.NewConsignmentSettlement{
		SupplierId:  input.SupplierId,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if serr != nil {
		respondError(c, serr)
		return
	}
	respondData(c, http.StatusCreated, settlement)
}

func parseDateField(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func listSettlementsHandler(c *gin.Context) {
	settlements, err := models.ListConsignmentSettlements(c.Request.Context(), queryInt(c, "supplierId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, settlements)
}

func getSettlementHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid settlement id"))
		return
	}
	settlement, err := models.GetConsignmentSettlement(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, settlement)
}

func markSettlementPaidHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid settlement id"))
		return
	}
	settlement, err := models.MarkConsignmentSettlementPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, settlement)
}
