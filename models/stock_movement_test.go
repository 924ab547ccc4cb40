package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func TestSignedQuantityAtDirections(t *testing.T) {
	m := &StockMovement{
		Quantity:               d("4"),
		SourceWarehouseId:      intPtr(1),
		DestinationWarehouseId: intPtr(2),
	}
	if got := m.SignedQuantityAt(1); !got.Equal(d("-4")) {
		t.Fatalf("source side: expected -4, got %s", got)
	}
	if got := m.SignedQuantityAt(2); !got.Equal(d("4")) {
		t.Fatalf("destination side: expected 4, got %s", got)
	}
	if got := m.SignedQuantityAt(3); !got.IsZero() {
		t.Fatalf("unrelated warehouse: expected 0, got %s", got)
	}
}

func TestMovementBeforeSaveRejectsBadRows(t *testing.T) {
	cases := []struct {
		name string
		m    StockMovement
		want string
	}{
		{
			name: "invalid type",
			m: StockMovement{
				MovementType:      "TELEPORT",
				ReferenceType:     ReferenceTypeStockReceipt,
				Quantity:          d("1"),
				SourceWarehouseId: intPtr(1),
			},
			want: "invalid movement type",
		},
		{
			name: "invalid reference type",
			m: StockMovement{
				MovementType:      MovementTypeReceipt,
				ReferenceType:     "XX",
				Quantity:          d("1"),
				SourceWarehouseId: intPtr(1),
			},
			want: "invalid movement reference type",
		},
		{
			name: "zero quantity",
			m: StockMovement{
				MovementType:      MovementTypeWaste,
				ReferenceType:     ReferenceTypeWaste,
				Quantity:          decimal.Zero,
				SourceWarehouseId: intPtr(1),
			},
			want: "quantity must be positive",
		},
		{
			name: "negative quantity",
			m: StockMovement{
				MovementType:      MovementTypeWaste,
				ReferenceType:     ReferenceTypeWaste,
				Quantity:          d("-2"),
				SourceWarehouseId: intPtr(1),
			},
			want: "quantity must be positive",
		},
		{
			name: "no warehouse",
			m: StockMovement{
				MovementType:  MovementTypeReceipt,
				ReferenceType: ReferenceTypeStockReceipt,
				Quantity:      d("1"),
			},
			want: "source or destination warehouse",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.BeforeSave(nil)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestMovementBeforeSaveComputesTotalCost(t *testing.T) {
	m := StockMovement{
		MovementType:           MovementTypeReceipt,
		ReferenceType:          ReferenceTypeStockReceipt,
		Quantity:               d("3.333"),
		UnitCost:               d("2.4999"),
		DestinationWarehouseId: intPtr(1),
	}
	if err := m.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	// 3.333 * 2.4999 = 8.33316... rounds to 8.33 at money precision
	if !m.TotalCost.Equal(d("8.33")) {
		t.Fatalf("expected total cost 8.33, got %s", m.TotalCost)
	}
}

func TestMovementTypeOutflows(t *testing.T) {
	for _, mt := range []MovementType{MovementTypeConsumption, MovementTypeWaste, MovementTypeReturn} {
		if !mt.IsOutflow() {
			t.Fatalf("%s should be an outflow", mt)
		}
	}
	for _, mt := range []MovementType{MovementTypeReceipt, MovementTypeTransfer, MovementTypeAdjustment} {
		if mt.IsOutflow() {
			t.Fatalf("%s should not be an outflow", mt)
		}
	}
}
