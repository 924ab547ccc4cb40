package models

import "github.com/lagoonpms/resort_backend/config"

// MigrateTable keeps the schema in step with the models on boot.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Property{},
		&Warehouse{},
		&Supplier{},
		&StockItem{},
		&StockLevel{},
		&StockMovement{},
		&StockBatch{},
		&StockReceipt{},
		&StockReceiptItem{},
		&StockRequisition{},
		&StockRequisitionItem{},
		&StockTransfer{},
		&StockAdjustment{},
		&StockWaste{},
		&StockWasteItem{},
		&ConsignmentReceipt{},
		&ConsignmentReceiptItem{},
		&ConsignmentSale{},
		&ConsignmentReturn{},
		&ConsignmentSettlement{},
		&Recipe{},
		&RecipeIngredient{},
		&MenuItem{},
		&COGSRecord{},
	)
}
