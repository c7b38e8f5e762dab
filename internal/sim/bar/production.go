package bar

import "math"

// sysProduction runs the tap. The interval is re-read from the stat engine at
// every fire so upgrade purchases take effect immediately.
func (b *Bar) sysProduction(nowMs int64) {
	stats := b.computeStats()
	// Catch up if the interval dropped below the tick length.
	for fired := 0; fired < 64; fired++ {
		interval := int64(stats.TapIntervalMs)
		if interval < 1 {
			interval = 1
		}
		if nowMs-b.lastTap < interval {
			return
		}
		b.lastTap += interval
		amount := stats.TapPerTick
		if b.goldenActive {
			amount *= b.cfg.Tuning.Events.GoldenTapMult
		}
		b.beer += amount
	}
	b.lastTap = nowMs
}

// sysAutoSell moves batches automatically once any auto_seller level is
// bought. Sales are silent; only the read model records them.
func (b *Bar) sysAutoSell(nowTick uint64, nowMs int64) {
	if b.level("auto_seller") <= 0 {
		return
	}
	stats := b.computeStats()
	interval := int64(stats.AutoSellIntervalMs)
	if interval < 1 {
		interval = 1
	}
	if nowMs-b.lastAutoSell < interval {
		return
	}
	b.lastAutoSell = nowMs

	available := int(math.Floor(b.beer / stats.DrinkCapacity))
	if available <= 0 {
		return
	}
	batch := int(math.Floor(stats.AutoSellBatch))
	if batch < 1 {
		batch = 1
	}
	toSell := available
	if toSell > batch {
		toSell = batch
	}
	price := stats.PricePerGlass
	if b.goldenActive {
		price *= b.cfg.Tuning.Events.GoldenPriceMult
	}
	earned := float64(toSell) * price
	b.money += earned
	b.totalEarned += earned
	b.glassesSold += toSell
	b.beer -= float64(toSell) * stats.DrinkCapacity
	if b.index != nil {
		b.index.RecordSale(nowTick, b.activeDrink, toSell, earned)
	}
}

// sysMoraleDrift pulls morale back toward the neutral band.
func (b *Bar) sysMoraleDrift(nowMs int64) {
	m := b.cfg.Tuning.Morale
	if nowMs-b.lastDrift < int64(m.DriftEvery) {
		return
	}
	b.lastDrift = nowMs
	switch {
	case b.moral > m.DriftHigh:
		b.adjustMoral(-m.DriftStep)
	case b.moral < m.DriftLow:
		b.adjustMoral(m.DriftStep)
	}
}
