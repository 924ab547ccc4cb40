package models

// MovementType is the closed set of stock movement kinds the ledger records.
type MovementType string

const (
	MovementTypeReceipt     MovementType = "RECEIPT"
	MovementTypeConsumption MovementType = "CONSUMPTION"
	MovementTypeTransfer    MovementType = "TRANSFER"
	MovementTypeWaste       MovementType = "WASTE"
	MovementTypeReturn      MovementType = "RETURN"
	MovementTypeAdjustment  MovementType = "ADJUSTMENT"
)

func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeReceipt, MovementTypeConsumption, MovementTypeTransfer,
		MovementTypeWaste, MovementTypeReturn, MovementTypeAdjustment:
		return true
	}
	return false
}

// IsOutflow reports whether the movement reduces stock at its source warehouse.
func (t MovementType) IsOutflow() bool {
	switch t {
	case MovementTypeConsumption, MovementTypeWaste, MovementTypeReturn:
		return true
	}
	return false
}

// MovementReferenceType links a movement back to the business event that caused it.
type MovementReferenceType string

const (
	ReferenceTypeStockReceipt       MovementReferenceType = "SR"
	ReferenceTypeRequisition        MovementReferenceType = "RQ"
	ReferenceTypeTransferOrder      MovementReferenceType = "TO"
	ReferenceTypeAdjustment         MovementReferenceType = "ADJ"
	ReferenceTypeWaste              MovementReferenceType = "WS"
	ReferenceTypeConsignmentReceipt MovementReferenceType = "CGR"
	ReferenceTypeConsignmentSale    MovementReferenceType = "CGS"
	ReferenceTypeConsignmentReturn  MovementReferenceType = "CGT"
	ReferenceTypeMenuSale           MovementReferenceType = "MNS"
)

func (t MovementReferenceType) IsValid() bool {
	switch t {
	case ReferenceTypeStockReceipt, ReferenceTypeRequisition, ReferenceTypeTransferOrder,
		ReferenceTypeAdjustment, ReferenceTypeWaste, ReferenceTypeConsignmentReceipt,
		ReferenceTypeConsignmentSale, ReferenceTypeConsignmentReturn, ReferenceTypeMenuSale:
		return true
	}
	return false
}

// StockItemCategory is advisory grouping for reporting; free additions are
// deliberate so properties can organize their own catalogs.
type StockItemCategory string

const (
	StockItemCategoryFood      StockItemCategory = "Food"
	StockItemCategoryBeverage  StockItemCategory = "Beverage"
	StockItemCategoryLinen     StockItemCategory = "Linen"
	StockItemCategoryAmenity   StockItemCategory = "Amenity"
	StockItemCategoryCleaning  StockItemCategory = "Cleaning"
	StockItemCategoryRetail    StockItemCategory = "Retail"
	StockItemCategoryOperating StockItemCategory = "Operating"
)
