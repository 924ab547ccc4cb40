package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lagoonpms/resort_backend/models"
	"github.com/lagoonpms/resort_backend/utils"
)

func registerMenuRoutes(r gin.IRoutes) {
	r.POST("/recipes", createRecipeHandler)
	r.GET("/recipes", listRecipesHandler)
	r.GET("/recipes/:id", getRecipeHandler)
	r.PUT("/recipes/:id", updateRecipeHandler)
	r.DELETE("/recipes/:id", deleteRecipeHandler)
	r.GET("/recipes/:id/cost", recipeCostHandler)

	r.POST("/menu-items", createMenuItemHandler)
	r.GET("/menu-items", listMenuItemsHandler)
	r.GET("/menu-items/:id", getMenuItemHandler)
	r.PUT("/menu-items/:id", updateMenuItemHandler)
	r.DELETE("/menu-items/:id", deleteMenuItemHandler)
	r.PUT("/menu-items/:id/availability", setMenuItemAvailabilityHandler)
	r.GET("/menu-items/:id/food-cost", menuItemFoodCostHandler)
	r.GET("/menu-items/:id/check", checkMenuItemHandler)
	r.POST("/menu-sales", recordMenuItemSaleHandler)
	r.GET("/menu-sales", listCOGSRecordsHandler)
}

func createRecipeHandler(c *gin.Context) {
	var input models.NewRecipe
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	recipe, err := models.CreateRecipe(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, recipe)
}

func listRecipesHandler(c *gin.Context) {
	recipes, err := models.ListRecipes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, recipes)
}

func getRecipeHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid recipe id"))
		return
	}
	recipe, err := models.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, recipe)
}

func updateRecipeHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid recipe id"))
		return
	}
	var input models.NewRecipe
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	recipe, err := models.UpdateRecipe(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, recipe)
}

func deleteRecipeHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid recipe id"))
		return
	}
	if err := models.DeleteRecipe(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": id})
}

func recipeCostHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid recipe id"))
		return
	}
	warehouseId := queryInt(c, "warehouseId")
	cost, err := models.CalculateRecipeCost(c.Request.Context(), id, warehouseId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, cost)
}

func createMenuItemHandler(c *gin.Context) {
	var input models.NewMenuItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	item, err := models.CreateMenuItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, item)
}

func listMenuItemsHandler(c *gin.Context) {
	category := c.Query("category")
	items, err := models.ListMenuItems(c.Request.Context(), &category)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, items)
}

func getMenuItemHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid menu item id"))
		return
	}
	item, err := models.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

func updateMenuItemHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid menu item id"))
		return
	}
	var input models.NewMenuItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	item, err := models.UpdateMenuItem(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

func deleteMenuItemHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid menu item id"))
		return
	}
	if err := models.DeleteMenuItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": id})
}

func setMenuItemAvailabilityHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid menu item id"))
		return
	}
	var input struct {
		IsAvailable *bool  `json:"is_available" binding:"required"`
		Reason      string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	item, err := models.SetMenuItemAvailability(c.Request.Context(), id, *input.IsAvailable, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

func menuItemFoodCostHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid menu item id"))
		return
	}
	cost, err := models.GetMenuItemFoodCost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, cost)
}

func checkMenuItemHandler(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		respondError(c, models.NewValidationError("invalid menu item id"))
		return
	}
	warehouseId := queryInt(c, "warehouseId")
	if warehouseId == nil {
		respondError(c, models.NewValidationError("warehouseId query parameter is required"))
		return
	}
	qty, err := utils.ParseDecimal(c.DefaultQuery("quantity", "1"))
	if err != nil {
		respondError(c, models.NewValidationError("invalid quantity"))
		return
	}
	result, err := models.CheckMenuItemAvailability(c.Request.Context(), id, *warehouseId, qty)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

func recordMenuItemSaleHandler(c *gin.Context) {
	var input models.NewMenuItemSale
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %s", err.Error()))
		return
	}
	record, err := models.RecordMenuItemSale(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, record)
}

func listCOGSRecordsHandler(c *gin.Context) {
	records, err := models.ListCOGSRecords(c.Request.Context(),
		queryInt(c, "menuItemId"), queryDate(c, "from"), queryEndDate(c, "to"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, records)
}
