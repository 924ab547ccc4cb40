package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lagoonpms/resort_backend/models"
)

func registerInventoryRoutes(r gin.IRoutes) {
	r.POST("/warehouses", createWarehouseHandler)
	r.GET("/warehouses", listWarehousesHandler)
	r.PUT("/warehouses/:id", updateWarehouseHandler)
	r.DELETE("/warehouses/:id", deleteWarehouseHandler)

	r.POST("/suppliers", createSupplierHandler)
	r.GET("/suppliers", listSuppliersHandler)
	r.PUT("/suppliers/:id", updateSupplierHandler)
	r.PUT("/suppliers/:id/active", toggleSupplierHandler)

	r.POST("/stock-items", createStockItemHandler)
	r.GET("/stock-items", listStockItemsHandler)
	r.GET("/stock-items/:id", getStockItemHandler)
	r.PUT("/stock-items/:id", updateStockItemHandler)
	r.PUT("/stock-items/:id/active", toggleStockItemHandler)

	r.GET("/stock-levels", listStockLevelsHandler)
	r.GET("/stock-movements", listStockMovementsHandler)

	r.POST("/stock/receipts", receiveStockHandler)
	r.POST("/stock/consumptions", consumeStockHandler)
	r.POST("/stock/transfers", transferStockHandler)
	r.POST("/stock/adjustments", adjustStockHandler)
	r.POST("/stock/waste", recordWasteHandler)
}

func createWarehouseHandler(c *gin.Context) {
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	warehouse, err := models.CreateWarehouse(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, warehouse)
}

func listWarehousesHandler(c *gin.Context) {
	name := c.Query("name")
	warehouses, err := models.ListWarehouse(c.Request.Context(), &name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, warehouses)
}

func updateWarehouseHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid warehouse id"))
		return
	}
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	warehouse, err := models.UpdateWarehouse(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, warehouse)
}

func deleteWarehouseHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid warehouse id"))
		return
	}
	warehouse, err := models.DeleteWarehouse(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, warehouse)
}

func createSupplierHandler(c *gin.Context) {
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	supplier, err := models.CreateSupplier(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, supplier)
}

func listSuppliersHandler(c *gin.Context) {
	name := c.Query("name")
	suppliers, err := models.ListSupplier(c.Request.Context(), &name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, suppliers)
}

func updateSupplierHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid supplier id"))
		return
	}
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	supplier, err := models.UpdateSupplier(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, supplier)
}

type toggleActiveInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func toggleSupplierHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid supplier id"))
		return
	}
	var input toggleActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	supplier, err := models.ToggleActiveSupplier(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, supplier)
}

func toggleStockItemHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid stock item id"))
		return
	}
	var input toggleActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	item, err := models.ToggleActiveStockItem(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

func createStockItemHandler(c *gin.Context) {
	var input models.NewStockItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	item, err := models.CreateStockItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, item)
}

func listStockItemsHandler(c *gin.Context) {
	name := c.Query("name")
	category := models.StockItemCategory(c.Query("category"))
	items, err := models.ListStockItem(c.Request.Context(), &name, &category)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, items)
}

func getStockItemHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid stock item id"))
		return
	}
	item, err := models.GetStockItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

func updateStockItemHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid stock item id"))
		return
	}
	var input models.NewStockItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	item, err := models.UpdateStockItem(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

func listStockLevelsHandler(c *gin.Context) {
	levels, err := models.ListStockLevels(c.Request.Context(), queryInt(c, "warehouseId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, levels)
}

func listStockMovementsHandler(c *gin.Context) {
	filter := models.MovementFilter{
		StockItemId: queryInt(c, "stockItemId"),
		WarehouseId: queryInt(c, "warehouseId"),
		FromDate:    queryDate(c, "from"),
		ToDate:      queryEndDate(c, "to"),
	}
	if t := c.Query("movementType"); t != "" {
		mt := models.MovementType(t)
		filter.MovementType = &mt
	}
	if limit := queryInt(c, "limit"); limit != nil {
		filter.Limit = *limit
	}
	movements, err := models.ListStockMovements(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, movements)
}

func receiveStockHandler(c *gin.Context) {
	var input models.NewStockReceipt
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	receipt, err := models.ReceiveStock(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, receipt)
}

func consumeStockHandler(c *gin.Context) {
	var input models.NewStockConsumption
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	requisition, err := models.ConsumeStock(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, requisition)
}

func transferStockHandler(c *gin.Context) {
	var input models.NewStockTransfer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	transfer, err := models.TransferStock(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, transfer)
}

func adjustStockHandler(c *gin.Context) {
	var input models.NewStockAdjustment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	adjustment, err := models.AdjustStock(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, adjustment)
}

func recordWasteHandler(c *gin.Context) {
	var input models.NewStockWaste
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	waste, err := models.RecordWaste(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, waste)
}
