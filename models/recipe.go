package models

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe maps a kitchen preparation to the stock items it consumes.
// YieldQuantity is how many portions one run of the recipe produces.
type Recipe struct {
	ID            int                `gorm:"primary_key" json:"id"`
	PropertyId    string             `gorm:"index;not null" json:"property_id"`
	Name          string             `gorm:"size:255;not null" json:"name"`
	YieldQuantity decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"yield_quantity"`
	YieldUnit     string             `gorm:"size:50" json:"yield_unit"`
	Instructions  string             `gorm:"type:text" json:"instructions"`
	IsActive      *bool              `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	Ingredients   []RecipeIngredient `gorm:"foreignKey:RecipeId" json:"ingredients"`
}

type RecipeIngredient struct {
	ID          int             `gorm:"primary_key" json:"id"`
	RecipeId    int             `gorm:"index;not null" json:"recipe_id"`
	StockItemId int             `gorm:"index;not null" json:"stock_item_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Unit        string          `gorm:"size:50" json:"unit"`
}

type NewRecipeIngredient struct {
	StockItemId int             `json:"stock_item_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

type NewRecipe struct {
	Name          string                `json:"name" binding:"required"`
	YieldQuantity decimal.Decimal       `json:"yield_quantity"`
	YieldUnit     string                `json:"yield_unit"`
	Instructions  string                `json:"instructions"`
	Ingredients   []NewRecipeIngredient `json:"ingredients"`
}

func (input *NewRecipe) validate(ctx context.Context, propertyId string, recipeId int) error {
	if input.Name == "" {
		return NewValidationError("recipe name is required")
	}
	if !input.YieldQuantity.IsPositive() {
		return NewValidationError("recipe yield must be positive")
	}
	if err := utils.ValidateUnique[Recipe](ctx, propertyId, "name", input.Name, recipeId); err != nil {
		return NewValidationError("recipe name %s is already in use", input.Name)
	}
	seen := make(map[int]bool, len(input.Ingredients))
	for _, ing := range input.Ingredients {
		if !ing.Quantity.IsPositive() {
			return NewValidationError("ingredient quantity must be positive")
		}
		if seen[ing.StockItemId] {
			return NewValidationError("duplicate ingredient in recipe")
		}
		seen[ing.StockItemId] = true
		if err := utils.ValidateResourceId[StockItem](ctx, propertyId, ing.StockItemId); err != nil {
			return NewNotFoundError("stock item")
		}
	}
	return nil
}

func CreateRecipe(ctx context.Context, input *NewRecipe) (*Recipe, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId, 0); err != nil {
		return nil, err
	}

	recipe := Recipe{
		PropertyId:    propertyId,
		Name:          input.Name,
		YieldQuantity: utils.RoundQty(input.YieldQuantity),
		YieldUnit:     input.YieldUnit,
		Instructions:  input.Instructions,
		IsActive:      utils.NewTrue(),
	}
	for _, ing := range input.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, RecipeIngredient{
			StockItemId: ing.StockItemId,
			Quantity:    utils.RoundQty(ing.Quantity),
			Unit:        ing.Unit,
		})
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&recipe).Error; err != nil {
		return nil, NewPersistenceError("recipe.go", "CreateRecipe", err)
	}
	_ = utils.RemoveRedisInstance[Recipe](recipe.ID, propertyId)
	return &recipe, nil
}

// UpdateRecipe replaces the recipe header and its full ingredient list.
func UpdateRecipe(ctx context.Context, recipeId int, input *NewRecipe) (*Recipe, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	recipe, err := utils.FetchModel[Recipe](ctx, propertyId, recipeId)
	if err != nil {
		return nil, NewNotFoundError("recipe")
	}
	if err := input.validate(ctx, propertyId, recipeId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Updates(map[string]interface{}{
			"Name":          input.Name,
			"YieldQuantity": utils.RoundQty(input.YieldQuantity),
			"YieldUnit":     input.YieldUnit,
			"Instructions":  input.Instructions,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeId).Delete(&RecipeIngredient{}).Error; err != nil {
			return err
		}
		for _, ing := range input.Ingredients {
			row := RecipeIngredient{
				RecipeId:    recipeId,
				StockItemId: ing.StockItemId,
				Quantity:    utils.RoundQty(ing.Quantity),
				Unit:        ing.Unit,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewPersistenceError("recipe.go", "UpdateRecipe", err)
	}

	_ = utils.RemoveRedisInstance[Recipe](recipeId, propertyId)
	return GetRecipe(ctx, recipeId)
}

// DeleteRecipe refuses while any menu item still points at the recipe.
func DeleteRecipe(ctx context.Context, recipeId int) error {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return errors.New("property id is required")
	}

	recipe, err := utils.FetchModel[Recipe](ctx, propertyId, recipeId)
	if err != nil {
		return NewNotFoundError("recipe")
	}

	count, err := utils.ResourceCountWhere[MenuItem](ctx, propertyId, "recipe_id = ?", recipeId)
	if err != nil {
		return NewPersistenceError("recipe.go", "DeleteRecipe", err)
	}
	if count > 0 {
		return NewPreconditionError("recipe %s is used by %d menu item(s)", recipe.Name, count)
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeId).Delete(&RecipeIngredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		return NewPersistenceError("recipe.go", "DeleteRecipe", err)
	}
	_ = utils.RemoveRedisInstance[Recipe](recipeId, propertyId)
	return nil
}

func GetRecipe(ctx context.Context, recipeId int) (*Recipe, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var recipe Recipe
	err := db.WithContext(ctx).
		Preload("Ingredients").
		Where("property_id = ?", propertyId).
		First(&recipe, recipeId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("recipe")
		}
		return nil, NewPersistenceError("recipe.go", "GetRecipe", err)
	}
	return &recipe, nil
}

func ListRecipes(ctx context.Context) ([]*Recipe, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var recipes []*Recipe
	err := db.WithContext(ctx).
		Preload("Ingredients").
		Where("property_id = ?", propertyId).
		Order("name").
		Find(&recipes).Error
	if err != nil {
		return nil, NewPersistenceError("recipe.go", "ListRecipes", err)
	}
	return recipes, nil
}

// itemAverageCost values one unit of a stock item for costing: the on-hand
// weighted mean across warehouses. An item with no stock anywhere (or no
// level rows at all) costs zero, which leaves obvious gaps in food cost
// reports rather than inventing a price.
func itemAverageCost(ctx context.Context, propertyId string, stockItemId int) (decimal.Decimal, error) {
	db := config.GetDB()
	var levels []*StockLevel
	err := db.WithContext(ctx).
		Where("property_id = ? AND stock_item_id = ?", propertyId, stockItemId).
		Find(&levels).Error
	if err != nil {
		return decimal.Zero, err
	}

	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for _, level := range levels {
		if !level.Quantity.IsPositive() {
			continue
		}
		totalQty = totalQty.Add(level.Quantity)
		totalValue = totalValue.Add(level.Quantity.Mul(level.AverageCost))
	}
	if totalQty.IsZero() {
		for _, level := range levels {
			if !level.AverageCost.IsZero() {
				return level.AverageCost, nil
			}
		}
		return decimal.Zero, nil
	}
	return utils.RoundUnitCost(totalValue.Div(totalQty)), nil
}

// RecipeCost is the valued bill of materials for one run of a recipe.
type RecipeCost struct {
	RecipeId      int              `json:"recipe_id"`
	RecipeName    string           `json:"recipe_name"`
	YieldQuantity decimal.Decimal  `json:"yield_quantity"`
	TotalCost     decimal.Decimal  `json:"total_cost"`
	CostPerYield  decimal.Decimal  `json:"cost_per_yield"`
	Lines         []RecipeCostLine `json:"lines"`
}

type RecipeCostLine struct {
	StockItemId int             `json:"stock_item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineCost    decimal.Decimal `json:"line_cost"`
}

// CalculateRecipeCost prices the recipe at current average costs. With a
// warehouse pinned, each ingredient is valued at that warehouse's average
// cost; otherwise at the cross-warehouse mean. Ingredients with no stock
// level contribute zero.
func CalculateRecipeCost(ctx context.Context, recipeId int, warehouseId *int) (*RecipeCost, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	recipe, err := GetRecipe(ctx, recipeId)
	if err != nil {
		return nil, err
	}

	cost := RecipeCost{
		RecipeId:      recipe.ID,
		RecipeName:    recipe.Name,
		YieldQuantity: recipe.YieldQuantity,
		TotalCost:     decimal.Zero,
	}
	for _, ing := range recipe.Ingredients {
		var unitCost decimal.Decimal
		if warehouseId != nil && *warehouseId > 0 {
			level, err := GetStockLevel(ctx, ing.StockItemId, *warehouseId)
			if err != nil {
				return nil, err
			}
			unitCost = level.AverageCost
		} else {
			unitCost, err = itemAverageCost(ctx, propertyId, ing.StockItemId)
			if err != nil {
				return nil, NewPersistenceError("recipe.go", "CalculateRecipeCost", err)
			}
		}
		lineCost := utils.RoundAmount(ing.Quantity.Mul(unitCost))
		cost.Lines = append(cost.Lines, RecipeCostLine{
			StockItemId: ing.StockItemId,
			Quantity:    ing.Quantity,
			UnitCost:    unitCost,
			LineCost:    lineCost,
		})
		cost.TotalCost = cost.TotalCost.Add(lineCost)
	}
	cost.TotalCost = utils.RoundAmount(cost.TotalCost)
	if recipe.YieldQuantity.IsPositive() {
		cost.CostPerYield = utils.RoundAmount(cost.TotalCost.Div(recipe.YieldQuantity))
	}
	return &cost, nil
}
