package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is a sellable dish or drink. An item without a recipe can be
// listed and priced but cannot be cost-analyzed or sold through the ledger.
type MenuItem struct {
	ID                int             `gorm:"primary_key" json:"id"`
	PropertyId        string          `gorm:"index;not null" json:"property_id"`
	Name              string          `gorm:"size:255;not null" json:"name"`
	Category          string          `gorm:"size:100" json:"category"`
	Price             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	RecipeId          *int            `gorm:"index" json:"recipe_id"`
	IsAvailable       *bool           `gorm:"default:true" json:"is_available"`
	UnavailableReason string          `gorm:"size:255" json:"unavailable_reason"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMenuItem struct {
	Name              string          `json:"name" binding:"required"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	RecipeId          *int            `json:"recipe_id"`
	IsAvailable       *bool           `json:"is_available"`
	UnavailableReason string          `json:"unavailable_reason"`
}

func (input *NewMenuItem) validate(ctx context.Context, propertyId string, menuItemId int) error {
	if input.Name == "" {
		return NewValidationError("menu item name is required")
	}
	if input.Price.IsNegative() {
		return NewValidationError("menu item price cannot be negative")
	}
	if err := utils.ValidateUnique[MenuItem](ctx, propertyId, "name", input.Name, menuItemId); err != nil {
		return NewValidationError("menu item name %s is already in use", input.Name)
	}
	if input.RecipeId != nil && *input.RecipeId > 0 {
		if err := utils.ValidateResourceId[Recipe](ctx, propertyId, *input.RecipeId); err != nil {
			return NewNotFoundError("recipe")
		}
	}
	if input.IsAvailable != nil && !*input.IsAvailable && strings.TrimSpace(input.UnavailableReason) == "" {
		return NewValidationError("unavailable menu items need a reason")
	}
	return nil
}

func CreateMenuItem(ctx context.Context, input *NewMenuItem) (*MenuItem, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId, 0); err != nil {
		return nil, err
	}

	available := utils.NewTrue()
	if input.IsAvailable != nil {
		available = input.IsAvailable
	}
	reason := ""
	if !*available {
		reason = input.UnavailableReason
	}

	item := MenuItem{
		PropertyId:        propertyId,
		Name:              input.Name,
		Category:          input.Category,
		Price:             utils.RoundAmount(input.Price),
		RecipeId:          input.RecipeId,
		IsAvailable:       available,
		UnavailableReason: reason,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, NewPersistenceError("menuItem.go", "CreateMenuItem", err)
	}
	return &item, nil
}

func UpdateMenuItem(ctx context.Context, menuItemId int, input *NewMenuItem) (*MenuItem, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	item, err := utils.FetchModel[MenuItem](ctx, propertyId, menuItemId)
	if err != nil {
		return nil, NewNotFoundError("menu item")
	}
	if err := input.validate(ctx, propertyId, menuItemId); err != nil {
		return nil, err
	}

	available := item.IsAvailable
	if input.IsAvailable != nil {
		available = input.IsAvailable
	}
	reason := ""
	if available != nil && !*available {
		reason = input.UnavailableReason
		if reason == "" {
			reason = item.UnavailableReason
		}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(item).Updates(map[string]interface{}{
		"Name":              input.Name,
		"Category":          input.Category,
		"Price":             utils.RoundAmount(input.Price),
		"RecipeId":          input.RecipeId,
		"IsAvailable":       available,
		"UnavailableReason": reason,
	}).Error
	if err != nil {
		return nil, NewPersistenceError("menuItem.go", "UpdateMenuItem", err)
	}
	_ = utils.RemoveRedisInstance[MenuItem](menuItemId, propertyId)
	return item, nil
}

// SetMenuItemAvailability flips availability; going unavailable requires a reason.
func SetMenuItemAvailability(ctx context.Context, menuItemId int, available bool, reason string) (*MenuItem, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	item, err := utils.FetchModel[MenuItem](ctx, propertyId, menuItemId)
	if err != nil {
		return nil, NewNotFoundError("menu item")
	}
	if !available && strings.TrimSpace(reason) == "" {
		return nil, NewValidationError("unavailable menu items need a reason")
	}
	if available {
		reason = ""
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(item).Updates(map[string]interface{}{
		"IsAvailable":       available,
		"UnavailableReason": reason,
	}).Error
	if err != nil {
		return nil, NewPersistenceError("menuItem.go", "SetMenuItemAvailability", err)
	}
	_ = utils.RemoveRedisInstance[MenuItem](menuItemId, propertyId)
	item.IsAvailable = &available
	item.UnavailableReason = reason
	return item, nil
}

func DeleteMenuItem(ctx context.Context, menuItemId int) error {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return errors.New("property id is required")
	}

	item, err := utils.FetchModel[MenuItem](ctx, propertyId, menuItemId)
	if err != nil {
		return NewNotFoundError("menu item")
	}

	count, err := utils.ResourceCountWhere[COGSRecord](ctx, propertyId, "menu_item_id = ?", menuItemId)
	if err != nil {
		return NewPersistenceError("menuItem.go", "DeleteMenuItem", err)
	}
	if count > 0 {
		return NewPreconditionError("menu item %s has recorded sales; mark it unavailable instead", item.Name)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(item).Error; err != nil {
		return NewPersistenceError("menuItem.go", "DeleteMenuItem", err)
	}
	_ = utils.RemoveRedisInstance[MenuItem](menuItemId, propertyId)
	return nil
}

func GetMenuItem(ctx context.Context, menuItemId int) (*MenuItem, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if cached, err := utils.RetrieveRedis[MenuItem](menuItemId); err == nil && cached != nil && cached.PropertyId == propertyId {
		return cached, nil
	}

	item, err := utils.FetchModel[MenuItem](ctx, propertyId, menuItemId)
	if err != nil {
		return nil, NewNotFoundError("menu item")
	}
	_ = utils.StoreRedis[MenuItem](item, menuItemId)
	return item, nil
}

func ListMenuItems(ctx context.Context, category *string) ([]*MenuItem, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if category != nil && *category != "" {
		dbCtx = dbCtx.Where("category = ?", *category)
	}
	var items []*MenuItem
	if err := dbCtx.Order("name").Find(&items).Error; err != nil {
		return nil, NewPersistenceError("menuItem.go", "ListMenuItems", err)
	}
	return items, nil
}

// MenuItemFoodCost is the margin picture for one menu item at current costs.
type MenuItemFoodCost struct {
	MenuItemId        int             `json:"menu_item_id"`
	MenuItemName      string          `json:"menu_item_name"`
	Price             decimal.Decimal `json:"price"`
	PortionCost       decimal.Decimal `json:"portion_cost"`
	FoodCostPercent   decimal.Decimal `json:"food_cost_percent"`
	TargetPercent     decimal.Decimal `json:"target_percent"`
	IsAboveTargetCost bool            `json:"is_above_target_cost"`
}

// foodCostPercent prices a portion cost against the selling price in whole
// percent, two places. A non-positive price yields zero rather than a
// division error.
func foodCostPercent(portionCost, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return portionCost.Div(price).Mul(decimal.NewFromInt(100)).Round(2)
}

// newMenuItemFoodCost assembles the margin picture. Sitting exactly on target
// is not above it.
func newMenuItemFoodCost(item *MenuItem, portionCost, target decimal.Decimal) *MenuItemFoodCost {
	pct := foodCostPercent(portionCost, item.Price)
	return &MenuItemFoodCost{
		MenuItemId:        item.ID,
		MenuItemName:      item.Name,
		Price:             item.Price,
		PortionCost:       portionCost,
		FoodCostPercent:   pct,
		TargetPercent:     target,
		IsAboveTargetCost: pct.GreaterThan(target),
	}
}

// GetMenuItemFoodCost prices one portion off the linked recipe and compares
// the food cost percentage against the configured target. A zero price yields
// zero percent.
func GetMenuItemFoodCost(ctx context.Context, menuItemId int) (*MenuItemFoodCost, error) {
	item, err := GetMenuItem(ctx, menuItemId)
	if err != nil {
		return nil, err
	}
	if item.RecipeId == nil || *item.RecipeId == 0 {
		return nil, NewPreconditionError("menu item %s has no recipe", item.Name)
	}

	recipeCost, err := CalculateRecipeCost(ctx, *item.RecipeId, nil)
	if err != nil {
		return nil, err
	}

	return newMenuItemFoodCost(item, recipeCost.CostPerYield, config.FoodCostTargetPercent()), nil
}

// IngredientShortage names an ingredient that blocks preparing the requested
// portions from one warehouse.
type IngredientShortage struct {
	StockItemId   int             `json:"stock_item_id"`
	StockItemName string          `json:"stock_item_name"`
	Required      decimal.Decimal `json:"required"`
	Available     decimal.Decimal `json:"available"`
}

type MenuItemAvailability struct {
	MenuItemId int                  `json:"menu_item_id"`
	Quantity   decimal.Decimal      `json:"quantity"`
	CanPrepare bool                 `json:"can_prepare"`
	Shortages  []IngredientShortage `json:"shortages,omitempty"`
}

// CheckMenuItemAvailability reports whether the warehouse holds enough of
// every ingredient to prepare the requested portions, naming each shortage.
func CheckMenuItemAvailability(ctx context.Context, menuItemId int, warehouseId int, quantity decimal.Decimal) (*MenuItemAvailability, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if !quantity.IsPositive() {
		return nil, NewValidationError("quantity must be positive")
	}
	item, err := GetMenuItem(ctx, menuItemId)
	if err != nil {
		return nil, err
	}

	result := MenuItemAvailability{
		MenuItemId: menuItemId,
		Quantity:   quantity,
		CanPrepare: true,
	}

	// Without a recipe there is no stock to check; the manual flag decides.
	if item.RecipeId == nil || *item.RecipeId == 0 {
		result.CanPrepare = item.IsAvailable != nil && *item.IsAvailable
		return &result, nil
	}
	recipe, err := GetRecipe(ctx, *item.RecipeId)
	if err != nil {
		return nil, err
	}

	portionFactor := quantity
	if recipe.YieldQuantity.IsPositive() {
		portionFactor = quantity.Div(recipe.YieldQuantity)
	}
	for _, ing := range recipe.Ingredients {
		required := utils.RoundQty(ing.Quantity.Mul(portionFactor))
		level, err := GetStockLevel(ctx, ing.StockItemId, warehouseId)
		if err != nil {
			return nil, err
		}
		if level.Quantity.LessThan(required) {
			stockItem, ferr := utils.FetchModel[StockItem](ctx, propertyId, ing.StockItemId)
			name := ""
			if ferr == nil {
				name = stockItem.Name
			}
			result.CanPrepare = false
			result.Shortages = append(result.Shortages, IngredientShortage{
				StockItemId:   ing.StockItemId,
				StockItemName: name,
				Required:      required,
				Available:     level.Quantity,
			})
		}
	}
	return &result, nil
}

// COGSRecord snapshots the cost of goods sold at the moment a menu item sale
// is posted. Later ingredient price moves never rewrite it; the row is the
// historical truth of what that plate cost when it left the kitchen.
type COGSRecord struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PropertyId      string          `gorm:"index;not null" json:"property_id"`
	MenuItemId      int             `gorm:"index;not null" json:"menu_item_id"`
	RecipeId        int             `gorm:"index;not null" json:"recipe_id"`
	WarehouseId     int             `gorm:"not null" json:"warehouse_id"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	SalePrice       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"sale_price"`
	UnitCogs        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cogs"`
	TotalCogs       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_cogs"`
	FoodCostPercent decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"food_cost_percent"`
	SaleDate        time.Time       `gorm:"index;not null" json:"sale_date"`
	CreatedById     int             `json:"created_by_id"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewMenuItemSale struct {
	MenuItemId  int             `json:"menu_item_id" binding:"required"`
	WarehouseId int             `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	SaleDate    *time.Time      `json:"sale_date"`
}

// RecordMenuItemSale posts a menu item sale: it snapshots the COGS at current
// average costs and draws the recipe's ingredients down from the warehouse.
// Ingredients never stocked at that warehouse are skipped; ingredients that
// are stocked but short fail the sale.
func RecordMenuItemSale(ctx context.Context, input *NewMenuItemSale) (*COGSRecord, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if !input.Quantity.IsPositive() {
		return nil, NewValidationError("sale quantity must be positive")
	}
	item, err := utils.FetchModel[MenuItem](ctx, propertyId, input.MenuItemId)
	if err != nil {
		return nil, NewNotFoundError("menu item")
	}
	if item.IsAvailable == nil || !*item.IsAvailable {
		return nil, NewPreconditionError("menu item %s is unavailable: %s", item.Name, item.UnavailableReason)
	}
	if item.RecipeId == nil || *item.RecipeId == 0 {
		return nil, NewPreconditionError("menu item %s has no recipe", item.Name)
	}
	warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, input.WarehouseId)
	if err != nil {
		return nil, NewNotFoundError("warehouse")
	}
	if warehouse.IsActive == nil || !*warehouse.IsActive {
		return nil, NewPreconditionError("warehouse %s is inactive", warehouse.Name)
	}
	recipe, err := GetRecipe(ctx, *item.RecipeId)
	if err != nil {
		return nil, err
	}

	if err := utils.PropertyLock(ctx, propertyId, "stockLock", "menuItem.go", "RecordMenuItemSale"); err != nil {
		return nil, err
	}

	saleDate := time.Now().UTC()
	if input.SaleDate != nil {
		saleDate = *input.SaleDate
	}
	qty := utils.RoundQty(input.Quantity)

	record := COGSRecord{
		PropertyId:  propertyId,
		MenuItemId:  item.ID,
		RecipeId:    recipe.ID,
		WarehouseId: input.WarehouseId,
		Quantity:    qty,
		SalePrice:   item.Price,
		SaleDate:    saleDate,
		CreatedById: movementUserId(ctx),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		portionFactor := qty
		if recipe.YieldQuantity.IsPositive() {
			portionFactor = qty.Div(recipe.YieldQuantity)
		}

		totalCogs := decimal.Zero
		type deductionPlan struct {
			item     *StockItem
			quantity decimal.Decimal
			unitCost decimal.Decimal
		}
		var plans []deductionPlan

		for _, ing := range recipe.Ingredients {
			needed := utils.RoundQty(ing.Quantity.Mul(portionFactor))
			if needed.IsZero() {
				continue
			}

			var level StockLevel
			lerr := tx.
				Where("property_id = ? AND stock_item_id = ? AND warehouse_id = ?",
					propertyId, ing.StockItemId, input.WarehouseId).
				First(&level).Error
			if lerr != nil {
				if errors.Is(lerr, gorm.ErrRecordNotFound) {
					continue
				}
				return lerr
			}

			stockItem, ferr := utils.FetchModel[StockItem](ctx, propertyId, ing.StockItemId)
			if ferr != nil {
				return ferr
			}
			plans = append(plans, deductionPlan{
				item:     stockItem,
				quantity: needed,
				unitCost: level.AverageCost,
			})
			totalCogs = totalCogs.Add(needed.Mul(level.AverageCost))
		}

		record.TotalCogs = utils.RoundAmount(totalCogs)
		if qty.IsPositive() {
			record.UnitCogs = utils.RoundUnitCost(record.TotalCogs.Div(qty))
		}
		record.FoodCostPercent = foodCostPercent(record.UnitCogs, item.Price)

		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		for _, plan := range plans {
			if _, derr := applyStockDeduction(tx, propertyId, plan.item, input.WarehouseId, plan.quantity); derr != nil {
				return derr
			}
			movement := StockMovement{
				PropertyId:        propertyId,
				StockItemId:       plan.item.ID,
				MovementType:      MovementTypeConsumption,
				Quantity:          plan.quantity,
				UnitCost:          plan.unitCost,
				SourceWarehouseId: &input.WarehouseId,
				ReferenceType:     ReferenceTypeMenuSale,
				ReferenceId:       record.ID,
				CreatedById:       record.CreatedById,
				MovementDate:      saleDate,
			}
			if err := postStockMovement(tx, &movement); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, NewPersistenceError("menuItem.go", "RecordMenuItemSale", err)
	}

	ingredientIds := make([]int, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		ingredientIds = append(ingredientIds, ing.StockItemId)
	}
	if err := verifyReplayAfterCommit(ctx, input.WarehouseId, ingredientIds...); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListCOGSRecords returns sale cost snapshots, optionally filtered by menu
// item and date range, newest first.
func ListCOGSRecords(ctx context.Context, menuItemId *int, from, to *time.Time) ([]*COGSRecord, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if menuItemId != nil && *menuItemId > 0 {
		dbCtx = dbCtx.Where("menu_item_id = ?", *menuItemId)
	}
	if from != nil {
		dbCtx = dbCtx.Where("sale_date >= ?", *from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("sale_date <= ?", *to)
	}
	var records []*COGSRecord
	if err := dbCtx.Order("id DESC").Find(&records).Error; err != nil {
		return nil, NewPersistenceError("menuItem.go", "ListCOGSRecords", err)
	}
	return records, nil
}
