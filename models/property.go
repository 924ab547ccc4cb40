package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lagoonpms/resort_backend/config"
	"github.com/lagoonpms/resort_backend/utils"
	"gorm.io/gorm"
)

// Property is the tenant: one hotel/resort. Every inventory row below is
// scoped to a property via property_id.
type Property struct {
	ID        uuid.UUID `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	Country   string    `gorm:"size:100" json:"country"`
	City      string    `gorm:"size:100" json:"city"`
	Timezone  string    `gorm:"size:50" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProperty struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
}

// CreateProperty creates the tenant and seeds its default warehouse in one
// transaction.
func CreateProperty(ctx context.Context, input *NewProperty) (*Property, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, NewValidationError("property name is required")
	}

	property := Property{
		ID:       uuid.New(),
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		Country:  input.Country,
		City:     input.City,
		Timezone: input.Timezone,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&property).Error; err != nil {
			return err
		}
		mainStore := Warehouse{
			PropertyId: property.ID.String(),
			Name:       "Main Store",
			IsActive:   utils.NewTrue(),
		}
		return tx.Create(&mainStore).Error
	})
	if err != nil {
		return nil, NewPersistenceError("property.go", "CreateProperty", err)
	}
	return &property, nil
}

func GetProperty(ctx context.Context) (*Property, error) {
	propertyId, ok := utils.GetPropertyIdFromContext(ctx)
	if !ok || propertyId == "" {
		return nil, errors.New("property id is required")
	}

	db := config.GetDB()
	var property Property
	if err := db.WithContext(ctx).Where("id = ?", propertyId).First(&property).Error; err != nil {
		return nil, NewNotFoundError("property")
	}
	return &property, nil
}
