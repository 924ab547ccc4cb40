package models

import (
	"testing"
)

func TestFoodCostPercentZeroPriceReportsZero(t *testing.T) {
	if got := foodCostPercent(d("3.00"), d("0")); !got.IsZero() {
		t.Fatalf("expected 0 for zero price, got %s", got)
	}
	if got := foodCostPercent(d("3.00"), d("-1")); !got.IsZero() {
		t.Fatalf("expected 0 for negative price, got %s", got)
	}
}

func TestFoodCostPercentRoundsToTwoPlaces(t *testing.T) {
	// 1 / 3 * 100 = 33.333... => 33.33
	if got := foodCostPercent(d("1"), d("3")); !got.Equal(d("33.33")) {
		t.Fatalf("expected 33.33, got %s", got)
	}
}

func TestMenuItemFoodCostZeroPriceIsNotAboveTarget(t *testing.T) {
	item := &MenuItem{ID: 7, Name: "Staff Meal", Price: d("0")}
	cost := newMenuItemFoodCost(item, d("4.20"), d("35"))
	if !cost.FoodCostPercent.IsZero() {
		t.Errorf("food cost percent = %s, want 0", cost.FoodCostPercent)
	}
	if cost.IsAboveTargetCost {
		t.Error("zero-price item flagged above target")
	}
}

func TestMenuItemFoodCostExactlyOnTargetIsNotAbove(t *testing.T) {
	// 3.50 portion cost at 10.00 lands exactly on the 35% target.
	item := &MenuItem{ID: 8, Name: "Grilled Snapper", Price: d("10.00")}

	onTarget := newMenuItemFoodCost(item, d("3.50"), d("35"))
	if !onTarget.FoodCostPercent.Equal(d("35")) {
		t.Fatalf("food cost percent = %s, want 35", onTarget.FoodCostPercent)
	}
	if onTarget.IsAboveTargetCost {
		t.Error("exactly on target flagged as above target")
	}

	overTarget := newMenuItemFoodCost(item, d("3.51"), d("35"))
	if !overTarget.IsAboveTargetCost {
		t.Errorf("%s%% vs target 35%% not flagged as above", overTarget.FoodCostPercent)
	}
}
