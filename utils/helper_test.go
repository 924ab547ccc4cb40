package utils

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundingPrecision(t *testing.T) {
	qty := RoundQty(decimal.RequireFromString("1.23456"))
	if qty.String() != "1.235" {
		t.Errorf("RoundQty = %s, want 1.235", qty)
	}
	cost := RoundUnitCost(decimal.RequireFromString("3.141592"))
	if cost.String() != "3.1416" {
		t.Errorf("RoundUnitCost = %s, want 3.1416", cost)
	}
	amount := RoundAmount(decimal.RequireFromString("10.005"))
	if amount.String() != "10.01" {
		t.Errorf("RoundAmount = %s, want 10.01", amount)
	}
}

func TestParseDecimal(t *testing.T) {
	v, err := ParseDecimal("  12.50 ")
	if err != nil {
		t.Fatalf("ParseDecimal: %v", err)
	}
	if !v.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("ParseDecimal = %s, want 12.5", v)
	}

	if _, err := ParseDecimal(""); err == nil {
		t.Error("empty string accepted")
	}
	if _, err := ParseDecimal("twelve"); err == nil {
		t.Error("non-numeric string accepted")
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("UniqueSlice = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("UniqueSlice[%d] = %d, want %d (order must be preserved)", i, got[i], want[i])
		}
	}
}

func TestDereferencePtr(t *testing.T) {
	v := 7
	if got := DereferencePtr(&v); got != 7 {
		t.Errorf("DereferencePtr(&7) = %d", got)
	}
	if got := DereferencePtr[int](nil); got != 0 {
		t.Errorf("DereferencePtr(nil) = %d, want 0", got)
	}
	if got := DereferencePtr[int](nil, 42); got != 42 {
		t.Errorf("DereferencePtr(nil, 42) = %d, want 42", got)
	}
}

func TestExecTemplateConditionalClause(t *testing.T) {
	query := `SELECT * FROM stock_movements WHERE property_id = @propertyId
{{if .warehouseId}}AND warehouse_id = @warehouseId{{end}}`

	withFilter, err := ExecTemplate(query, map[string]interface{}{"warehouseId": 3})
	if err != nil {
		t.Fatalf("ExecTemplate: %v", err)
	}
	if !strings.Contains(withFilter, "AND warehouse_id = @warehouseId") {
		t.Errorf("filter clause missing: %s", withFilter)
	}

	withoutFilter, err := ExecTemplate(query, map[string]interface{}{})
	if err != nil {
		t.Fatalf("ExecTemplate (no filter): %v", err)
	}
	if strings.Contains(withoutFilter, "warehouse_id") {
		t.Errorf("filter clause rendered without data: %s", withoutFilter)
	}

	if _, err := ExecTemplate("{{if}}", nil); err == nil {
		t.Error("malformed template accepted")
	}
}
