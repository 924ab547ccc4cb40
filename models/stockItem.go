package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"github.com/shopspring/decimal"
)

// StockItem is a trackable good: food, beverage, linen, amenity, retail.
// A consignment item is supplier-owned stock; its cost pool tracks the
// supplier cost, never the company-owned average.
type StockItem struct {
	ID            int               `gorm:"primary_key" json:"id"`
	PropertyId    string            `gorm:"index;not null" json:"property_id"`
	Name          string            `gorm:"index;size:100;not null" json:"name" binding:"required"`
	SKU           string            `gorm:"size:100;not null" json:"sku" binding:"required"`
	Category      StockItemCategory `gorm:"size:50" json:"category"`
	Unit          string            `gorm:"size:20;not null" json:"unit"`
	IsConsignment *bool             `gorm:"not null;default:false" json:"is_consignment"`
	SupplierId    *int              `gorm:"index" json:"supplier_id"`
	ReorderLevel  decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"reorder_level"`
	IsActive      *bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStockItem struct {
	Name          string            `json:"name" binding:"required"`
	SKU           string            `json:"sku" binding:"required"`
	Category      StockItemCategory `json:"category"`
	Unit          string            `json:"unit"`
	IsConsignment bool              `json:"is_consignment"`
	SupplierId    *int              `json:"supplier_id"`
	ReorderLevel  decimal.Decimal   `json:"reorder_level"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewStockItem) validate(ctx context.Context, propertyId string, id int) error {
	if strings.TrimSpace(input.Name) == "" {
		return NewValidationError("stock item name is required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return NewValidationError("stock item sku is required")
	}
	if input.ReorderLevel.IsNegative() {
		return NewValidationError("reorder level cannot be negative")
	}
	if err := utils.ValidateUnique[StockItem](ctx, propertyId, "sku", input.SKU, id); err != nil {
		return NewValidationError("%s", err.Error())
	}
	// a consignment item always belongs to a supplier
	if input.IsConsignment {
		if input.SupplierId == nil || *input.SupplierId <= 0 {
			return NewValidationError("consignment item requires a supplier")
		}
	}
	if input.SupplierId != nil && *input.SupplierId > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, propertyId, *input.SupplierId); err != nil {
			return NewNotFoundError("supplier")
		}
	}
	return nil
}

func CreateStockItem(ctx context.Context, input *NewStockItem) (*StockItem, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId, 0); err != nil {
		return nil, err
	}

	item := StockItem{
		PropertyId:    propertyId,
		Name:          input.Name,
		SKU:           input.SKU,
		Category:      input.Category,
		Unit:          input.Unit,
		IsConsignment: &input.IsConsignment,
		SupplierId:    input.SupplierId,
		ReorderLevel:  utils.RoundQty(input.ReorderLevel),
		IsActive:      utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, NewPersistenceError("stockItem.go", "CreateStockItem", err)
	}
	return &item, nil
}

func UpdateStockItem(ctx context.Context, id int, input *NewStockItem) (*StockItem, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId, id); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[StockItem](ctx, propertyId, id)
	if err != nil {
		return nil, NewNotFoundError("stock item")
	}

	// flipping the ownership model of an item that already has ledger
	// history would corrupt its cost pool
	if *item.IsConsignment != input.IsConsignment {
		var count int64
		db := config.GetDB()
		if err := db.WithContext(ctx).Model(&StockMovement{}).
			Where("stock_item_id = ?", id).Count(&count).Error; err != nil {
			return nil, NewPersistenceError("stockItem.go", "UpdateStockItem", err)
		}
		if count > 0 {
			return nil, NewPreconditionError("cannot change consignment flag: item has stock movements")
		}
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&item).Updates(map[string]interface{}{
		"Name":          input.Name,
		"SKU":           input.SKU,
		"Category":      input.Category,
		"Unit":          input.Unit,
		"IsConsignment": input.IsConsignment,
		"SupplierId":    input.SupplierId,
		"ReorderLevel":  utils.RoundQty(input.ReorderLevel),
	}).Error
	if err != nil {
		return nil, NewPersistenceError("stockItem.go", "UpdateStockItem", err)
	}
	if err := utils.RemoveRedisInstance[StockItem](id, propertyId); err != nil {
		config.LogError(config.GetLogger(), "stockItem.go", "UpdateStockItem", "cache invalidate", id, err)
	}

	return item, nil
}

func GetStockItem(ctx context.Context, id int) (*StockItem, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	// find in redis
	result, err := utils.RetrieveRedis[StockItem](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchModel[StockItem](ctx, propertyId, id)
		if err != nil {
			return nil, NewNotFoundError("stock item")
		}
		if err := utils.StoreRedis[StockItem](result, id); err != nil {
			return nil, err
		}
	} else if result.PropertyId != propertyId {
		return nil, errors.New("cannot access resource owned by other property")
	}

	return result, nil
}

func ListStockItem(ctx context.Context, name *string, category *StockItemCategory) ([]*StockItem, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var results []*StockItem
	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if category != nil && len(*category) > 0 {
		dbCtx = dbCtx.Where("category = ?", *category)
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, NewPersistenceError("stockItem.go", "ListStockItem", err)
	}
	return results, nil
}

func ToggleActiveStockItem(ctx context.Context, id int, isActive bool) (*StockItem, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}
	item, err := utils.FetchModel[StockItem](ctx, propertyId, id)
	if err != nil {
		return nil, NewNotFoundError("stock item")
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&item).Update("IsActive", isActive).Error; err != nil {
		return nil, NewPersistenceError("stockItem.go", "ToggleActiveStockItem", err)
	}
	if err := utils.RemoveRedisInstance[StockItem](id, propertyId); err != nil {
		config.LogError(config.GetLogger(), "stockItem.go", "ToggleActiveStockItem", "cache invalidate", id, err)
	}
	return item, nil
}
