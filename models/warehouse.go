package models

import (
	"context"
	"errors"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
)

type Warehouse struct {
	ID         int       `gorm:"primary_key" json:"id"`
	PropertyId string    `gorm:"index;not null" json:"property_id"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Location   string    `gorm:"size:255" json:"location"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouse struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewWarehouse) validate(ctx context.Context, propertyId string, id int) error {
	if err := utils.ValidateUnique[Warehouse](ctx, propertyId, "name", input.Name, id); err != nil {
		return NewValidationError("%s", err.Error())
	}
	return nil
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId, 0); err != nil {
		return nil, err
	}

	warehouse := Warehouse{
		PropertyId: propertyId,
		Name:       input.Name,
		Location:   input.Location,
		IsActive:   utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&warehouse).Error
	if err != nil {
		return nil, NewPersistenceError("warehouse.go", "CreateWarehouse", err)
	}
	return &warehouse, nil
}

func UpdateWarehouse(ctx context.Context, id int, input *NewWarehouse) (*Warehouse, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId, id); err != nil {
		return nil, err
	}

	warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, id)
	if err != nil {
		return nil, NewNotFoundError("warehouse")
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&warehouse).Updates(map[string]interface{}{
		"Name":     input.Name,
		"Location": input.Location,
	}).Error
	if err != nil {
		return nil, NewPersistenceError("warehouse.go", "UpdateWarehouse", err)
	}

	return warehouse, nil
}

func DeleteWarehouse(ctx context.Context, id int) (*Warehouse, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, id)
	if err != nil {
		return nil, NewNotFoundError("warehouse")
	}

	// a warehouse that has ever held stock keeps its ledger
	var count int64
	if err := db.WithContext(ctx).Model(&StockLevel{}).
		Where("warehouse_id = ?", id).Count(&count).Error; err != nil {
		return nil, NewPersistenceError("warehouse.go", "DeleteWarehouse", err)
	}
	if count > 0 {
		return nil, NewPreconditionError("warehouse has stock records")
	}

	// db action
	err = db.WithContext(ctx).Delete(&warehouse).Error
	if err != nil {
		return nil, NewPersistenceError("warehouse.go", "DeleteWarehouse", err)
	}
	return warehouse, nil
}

func GetWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}
	warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, id)
	if err != nil {
		return nil, NewNotFoundError("warehouse")
	}
	return warehouse, nil
}

func ListWarehouse(ctx context.Context, name *string) ([]*Warehouse, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var results []*Warehouse

	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	// db query
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, NewPersistenceError("warehouse.go", "ListWarehouse", err)
	}
	return results, nil
}

func ToggleActiveWarehouse(ctx context.Context, id int, isActive bool) (*Warehouse, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}
	warehouse, err := utils.FetchModel[Warehouse](ctx, propertyId, id)
	if err != nil {
		return nil, NewNotFoundError("warehouse")
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&warehouse).Update("IsActive", isActive).Error; err != nil {
		return nil, NewPersistenceError("warehouse.go", "ToggleActiveWarehouse", err)
	}
	return warehouse, nil
}
