package config

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// defaultFoodCostTargetPct is the food-cost threshold used when no override is configured.
var defaultFoodCostTargetPct = decimal.NewFromInt(35)

// FoodCostTargetPercent returns the food-cost percentage above which a menu
// item is flagged as over target.
//
// Set via env:
// - FOOD_COST_TARGET_PCT=35
func FoodCostTargetPercent() decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv("FOOD_COST_TARGET_PCT"))
	if raw == "" {
		return defaultFoodCostTargetPct
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return defaultFoodCostTargetPct
	}
	return v
}

// StrictLedgerReplayCheck makes mutating stock operations verify the movement
// ledger against the stock level after commit (slow; diagnostics only).
//
// Set via env:
// - STRICT_LEDGER_REPLAY_CHECK=true
func StrictLedgerReplayCheck() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_LEDGER_REPLAY_CHECK")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
