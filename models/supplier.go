package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
)

type Supplier struct {
	ID         int       `gorm:"primary_key" json:"id"`
	PropertyId string    `gorm:"index;not null" json:"property_id"`
	Name       string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Email      string    `gorm:"size:255" json:"email"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Address    string    `gorm:"type:text" json:"address"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (input *NewSupplier) validate(ctx context.Context, propertyId string, id int) error {
	if strings.TrimSpace(input.Name) == "" {
		return NewValidationError("supplier name is required")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return NewValidationError("invalid supplier: %v", utils.ProcessValidationErrors(err))
	}
	if err := utils.ValidateUnique[Supplier](ctx, propertyId, "name", input.Name, id); err != nil {
		return NewValidationError("%s", err.Error())
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		PropertyId: propertyId,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Address:    input.Address,
		IsActive:   utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, NewPersistenceError("supplier.go", "CreateSupplier", err)
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {

	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	if err := input.validate(ctx, propertyId, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, propertyId, id)
	if err != nil {
		return nil, NewNotFoundError("supplier")
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&supplier).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Email":   input.Email,
		"Phone":   input.Phone,
		"Address": input.Address,
	}).Error
	if err != nil {
		return nil, NewPersistenceError("supplier.go", "UpdateSupplier", err)
	}

	return supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}
	supplier, err := utils.FetchModel[Supplier](ctx, propertyId, id)
	if err != nil {
		return nil, NewNotFoundError("supplier")
	}
	return supplier, nil
}

func ListSupplier(ctx context.Context, name *string) ([]*Supplier, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var results []*Supplier
	dbCtx := db.WithContext(ctx).Where("property_id = ?", propertyId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, NewPersistenceError("supplier.go", "ListSupplier", err)
	}
	return results, nil
}

func ToggleActiveSupplier(ctx context.Context, id int, isActive bool) (*Supplier, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}
	supplier, err := utils.FetchModel[Supplier](ctx, propertyId, id)
	if err != nil {
		return nil, NewNotFoundError("supplier")
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&supplier).Update("IsActive", isActive).Error; err != nil {
		return nil, NewPersistenceError("supplier.go", "ToggleActiveSupplier", err)
	}
	return supplier, nil
}
