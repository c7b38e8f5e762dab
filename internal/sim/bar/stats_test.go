package bar

import (
	"math"
	"testing"
)

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("%s: got %v want %v", name, got, want)
	}
}

func TestComputeStatsBaseline(t *testing.T) {
	b := newTestBar(t, 1)
	s := b.computeStats()

	// Morale 70 sits in the second tier: 1.25 / 1.2 / 1.15.
	approx(t, "tap interval", s.TapIntervalMs, 1000/1.15)
	approx(t, "tap per tick", s.TapPerTick, 1.25)
	approx(t, "price", s.PricePerGlass, 4*1.2)
	approx(t, "auto sell interval", s.AutoSellIntervalMs, 4000/1.15)
	approx(t, "auto sell batch", s.AutoSellBatch, 4*1.15)
	approx(t, "moral effective", s.MoralEffective, 70)
	approx(t, "prestige mult", s.PrestigeMult, 1)
	approx(t, "capacity", s.DrinkCapacity, 20)
}

func TestComputeStatsTapSpeedAppliesTwice(t *testing.T) {
	b := newTestBar(t, 1)
	b.upgrades["tap_speed"] = 2
	s := b.computeStats()
	// 1000 * 0.9 (production) * 0.9 (interval) = 810, then the tier divisor.
	approx(t, "tap interval", s.TapIntervalMs, 810/1.15)
}

func TestComputeStatsTapIntervalFloor(t *testing.T) {
	b := newTestBar(t, 1)
	b.upgrades["tap_speed"] = 10
	s := b.computeStats()
	// 1000*0.5*0.5 = 250 floors at 300 before the tier divisor.
	approx(t, "tap interval", s.TapIntervalMs, 300/1.15)
}

func TestComputeStatsMoralEffective(t *testing.T) {
	b := newTestBar(t, 1)
	b.upgrades["staff_training"] = 2
	b.upgrades["watered_down"] = 3
	b.upgrades["tip_stealing"] = 1
	s := b.computeStats()
	// 70 + 2*4 - 3*1 - 1*2 = 73
	approx(t, "moral effective", s.MoralEffective, 73)
}

func TestComputeStatsPrestigeMultiplier(t *testing.T) {
	b := newTestBar(t, 1)
	b.prestigePoints = 5
	s := b.computeStats()
	approx(t, "prestige mult", s.PrestigeMult, 1.5)
	approx(t, "tap per tick", s.TapPerTick, 1.25*1.5)
	approx(t, "price", s.PricePerGlass, 4*1.2*1.5)
}

func TestMoralTierBoundaries(t *testing.T) {
	cases := []struct {
		effective         float64
		moral, price, eff float64
	}{
		{95, 1.5, 1.4, 1.3},
		{90, 1.5, 1.4, 1.3},
		{89.9, 1.25, 1.2, 1.15},
		{70, 1.25, 1.2, 1.15},
		{69.9, 1.0, 1.0, 1.0},
		{50, 1.0, 1.0, 1.0},
		{49.9, 0.8, 0.75, 0.85},
		{30, 0.8, 0.75, 0.85},
		{29.9, 0.6, 0.5, 0.7},
		{0, 0.6, 0.5, 0.7},
	}
	for _, tc := range cases {
		m, p, e := moralTier(tc.effective)
		if m != tc.moral || p != tc.price || e != tc.eff {
			t.Fatalf("tier(%v): got %v/%v/%v want %v/%v/%v", tc.effective, m, p, e, tc.moral, tc.price, tc.eff)
		}
	}
}

func TestComputeStatsTapIntervalFallsBackToBase(t *testing.T) {
	b := newTestBar(t, 1)
	b.cfg.Tuning.Base.TapIntervalMs = 1600
	def := b.cats.Drinks.ByID["bier"]
	def.ProductionTimeMs = 0
	b.cats.Drinks.ByID["bier"] = def
	s := b.computeStats()
	// A drink without a production time pours at the tuned base interval.
	approx(t, "tap interval", s.TapIntervalMs, 1600/1.15)
}

func TestComputeStatsSellIntervalFloor(t *testing.T) {
	b := newTestBar(t, 1)
	b.upgrades["auto_seller"] = 20
	s := b.computeStats()
	// The shrink factor floors at 0.3. Twenty seller levels also drag
	// effective morale to 30, which lands in the 0.85 efficiency tier.
	approx(t, "moral effective", s.MoralEffective, 30)
	approx(t, "auto sell interval", s.AutoSellIntervalMs, 4000*0.3/0.85)
}
