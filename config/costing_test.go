package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFoodCostTargetPercent(t *testing.T) {
	cases := []struct {
		name string
		env  string
		want string
	}{
		{"default", "", "35"},
		{"override", "28.5", "28.5"},
		{"padded", " 40 ", "40"},
		{"invalid falls back", "forty", "35"},
		{"negative falls back", "-10", "35"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("FOOD_COST_TARGET_PCT", tc.env)
			got := FoodCostTargetPercent()
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("FoodCostTargetPercent() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStrictLedgerReplayCheck(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " y "} {
		t.Setenv("STRICT_LEDGER_REPLAY_CHECK", v)
		if !StrictLedgerReplayCheck() {
			t.Errorf("StrictLedgerReplayCheck() = false for %q", v)
		}
	}
	for _, v := range []string{"", "0", "false", "no"} {
		t.Setenv("STRICT_LEDGER_REPLAY_CHECK", v)
		if StrictLedgerReplayCheck() {
			t.Errorf("StrictLedgerReplayCheck() = true for %q", v)
		}
	}
}
