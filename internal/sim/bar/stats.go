package bar

import "boneyard.bar/internal/sim/bar/logic/sanitize"

// Stats is the derived per-tick view of the upgrade table, morale and
// prestige. Everything downstream (production, auto-sell, pricing, patron
// order values) reads from here; nothing writes back.
type Stats struct {
	TapIntervalMs      float64
	TapPerTick         float64
	PricePerGlass      float64
	AutoSellIntervalMs float64
	AutoSellBatch      float64
	MoralEffective     float64
	PrestigeMult       float64
	DrinkCapacity      float64
}

// moralTier maps effective morale onto the three running multipliers.
// Thresholds are closed from below: 90, 70, 50, 30.
func moralTier(effective float64) (moralMult, priceMult, effMult float64) {
	switch {
	case effective >= 90:
		return 1.5, 1.4, 1.3
	case effective >= 70:
		return 1.25, 1.2, 1.15
	case effective >= 50:
		return 1.0, 1.0, 1.0
	case effective >= 30:
		return 0.8, 0.75, 0.85
	default:
		return 0.6, 0.5, 0.7
	}
}

func (b *Bar) computeStats() Stats {
	base := b.cfg.Tuning.Base
	drink := b.cats.Drinks.ByID[b.activeDrink]
	drinkLevel := float64(b.drinks[b.activeDrink].Level)

	tapSpeed := float64(b.level("tap_speed"))
	tapAmount := float64(b.level("tap_amount"))
	autoSeller := float64(b.level("auto_seller"))
	expansion := float64(b.level("bar_expansion"))
	sellPrice := float64(b.level("sell_price"))
	premium := float64(b.level("premium_bier"))
	vip := float64(b.level("vip_section"))
	lateNight := float64(b.level("late_night_hours"))
	watered := float64(b.level("watered_down"))
	hiddenFees := float64(b.level("hidden_fees"))
	tipSteal := float64(b.level("tip_stealing"))
	staff := float64(b.level("staff_training"))
	quality := float64(b.level("quality_ingredients"))
	fairWages := float64(b.level("fair_wages"))
	loyalty := float64(b.level("customer_loyalty"))
	premiumSvc := float64(b.level("premium_service"))
	sustainable := float64(b.level("sustainable_practices"))
	community := float64(b.level("community_support"))

	// The tap-speed reduction applies to the drink's production time and
	// once more to the interval itself, then floors at MinTapInterval.
	// A drink without its own production time pours at the base interval.
	baseProduction := drink.ProductionTimeMs
	if baseProduction <= 0 {
		baseProduction = float64(base.TapIntervalMs)
	}
	production := baseProduction * (1 - tapSpeed*0.05)
	tapInterval := production * (1 - tapSpeed*0.05)
	if tapInterval < float64(base.MinTapInterval) {
		tapInterval = float64(base.MinTapInterval)
	}

	tapPerTick := base.TapAmount * (1 + tapAmount*0.25) * (drink.Capacity / base.GlassCapacity)

	priceBonus := sellPrice*0.3 +
		premium*0.4 +
		staff*0.05 +
		vip*0.3 +
		lateNight*0.2 +
		hiddenFees*0.15 +
		tipSteal*0.1 +
		watered*0.25 +
		quality*0.2 +
		fairWages*0.15 +
		loyalty*0.25 +
		premiumSvc*0.3 +
		sustainable*0.12 +
		community*0.18 +
		drinkLevel*0.1
	price := drink.BasePrice * (1 + priceBonus)

	sellShrink := 1 - autoSeller*0.12 - fairWages*0.05 - sustainable*0.03
	if sellShrink < base.SellIntervalMin {
		sellShrink = base.SellIntervalMin
	}
	autoSellInterval := float64(base.SellIntervalMs) * sellShrink
	autoSellBatch := base.SellBatch * (1 + autoSeller*0.25 + staff*0.1 + fairWages*0.15 + premiumSvc*0.1)

	effective := b.moral +
		staff*4 + quality*2 + fairWages*3 + loyalty*2 + community*3 + sustainable*2 + premiumSvc*2 -
		autoSeller*2 - watered - hiddenFees - tipSteal*2
	effective = sanitize.Clamp(effective, b.cfg.Tuning.Morale.Min, b.cfg.Tuning.Morale.Max)

	autoSellInterval *= 1 - lateNight*0.05 - sustainable*0.03
	autoSellBatch *= 1 + expansion*0.15 + loyalty*0.1 + premiumSvc*0.08

	moralMult, priceMult, effMult := moralTier(effective)
	prestige := 1 + float64(b.prestigePoints)*b.cfg.Tuning.Prestige.PointMultiplier

	return Stats{
		TapIntervalMs:      sanitize.Interval(tapInterval/effMult/prestige, 1),
		TapPerTick:         sanitize.NonNeg(tapPerTick*moralMult*prestige, 0),
		PricePerGlass:      sanitize.NonNeg(price*priceMult*prestige, 0),
		AutoSellIntervalMs: sanitize.Interval(autoSellInterval/effMult/prestige, 1),
		AutoSellBatch:      sanitize.NonNeg(autoSellBatch*effMult*prestige, 0),
		MoralEffective:     effective,
		PrestigeMult:       prestige,
		DrinkCapacity:      drink.Capacity,
	}
}
