package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestNextWeightedAverageEmptyPoolTakesIncomingCost(t *testing.T) {
	got := NextWeightedAverage(decimal.Zero, decimal.Zero, d("10"), d("2.5"))
	if !got.Equal(d("2.5")) {
		t.Fatalf("expected 2.5, got %s", got)
	}
}

func TestNextWeightedAverageBlendsByQuantity(t *testing.T) {
	// 10 @ 2.00 + 30 @ 4.00 => (20 + 120) / 40 = 3.50
	got := NextWeightedAverage(d("10"), d("2"), d("30"), d("4"))
	if !got.Equal(d("3.5")) {
		t.Fatalf("expected 3.5, got %s", got)
	}
}

func TestNextWeightedAverageSameCostIsStable(t *testing.T) {
	got := NextWeightedAverage(d("7.25"), d("1.1"), d("3"), d("1.1"))
	if !got.Equal(d("1.1")) {
		t.Fatalf("expected 1.1, got %s", got)
	}
}

func TestNextWeightedAverageRoundsToUnitCostPlaces(t *testing.T) {
	// (1*1 + 2*2) / 3 = 1.666666... => 1.6667 at 4 places
	got := NextWeightedAverage(d("1"), d("1"), d("2"), d("2"))
	if !got.Equal(d("1.6667")) {
		t.Fatalf("expected 1.6667, got %s", got)
	}
}

func TestNextWeightedAverageZeroTotalFallsBackToIncoming(t *testing.T) {
	// A correcting receipt of -5 against a pool of 5 empties the pool; the
	// incoming cost wins rather than dividing by zero.
	got := NextWeightedAverage(d("5"), d("3"), d("-5"), d("2"))
	if !got.Equal(d("2")) {
		t.Fatalf("expected 2, got %s", got)
	}
}

func TestSumAvailableQuantity(t *testing.T) {
	levels := []*StockLevel{
		{WarehouseId: 1, Quantity: d("3.5")},
		{WarehouseId: 2, Quantity: d("0")},
		{WarehouseId: 3, Quantity: d("1.25")},
	}
	if got := sumAvailableQuantity(levels); !got.Equal(d("4.75")) {
		t.Fatalf("expected 4.75, got %s", got)
	}
}
