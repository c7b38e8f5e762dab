package bar

import (
	"math"
	"testing"

	"boneyard.bar/internal/sim/catalogs"
)

func TestUpgradeCostCurve(t *testing.T) {
	def := catalogs.UpgradeDef{ID: "x", BaseCost: 100, CostMultiplier: 1.5}
	cases := []struct {
		level int
		want  float64
	}{
		{0, 100},
		{1, 150},
		{2, 225},
		{3, 337},
	}
	for _, tc := range cases {
		if got := UpgradeCost(def, tc.level); got != tc.want {
			t.Fatalf("cost at level %d: got %v want %v", tc.level, got, tc.want)
		}
	}
}

func TestUpgradeCostSustainableDiscount(t *testing.T) {
	b := newTestBar(t, 1)
	def := b.cats.Upgrades.ByID["tap_speed"]
	base := UpgradeCost(def, 0)

	b.upgrades["sustainable_practices"] = 2
	discounted := b.upgradeCost(def)
	want := math.Floor(base * (1 - float64(2)*0.05))
	if discounted != want {
		t.Fatalf("discounted cost: got %v want %v", discounted, want)
	}

	// The discount covers sustainable_practices itself as well.
	sp := b.cats.Upgrades.ByID["sustainable_practices"]
	own := b.upgradeCost(sp)
	if own >= UpgradeCost(sp, 2) {
		t.Fatalf("sustainable upgrade not discounted: %v", own)
	}
}
