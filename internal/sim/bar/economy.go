package bar

import "math"

// sysAutoUpgrade spends surplus money on upgrades once the auto_upgrade
// manager is hired. It keeps a 2x margin so the bar never buys itself broke.
func (b *Bar) sysAutoUpgrade(nowMs int64) {
	ec := b.cfg.Tuning.Economy
	if nowMs-b.lastAutoUpPoll < int64(ec.AutoUpPollMs) {
		return
	}
	b.lastAutoUpPoll = nowMs

	managerLevel := b.level("auto_upgrade")
	if managerLevel <= 0 {
		return
	}
	for _, id := range b.cats.Upgrades.Order {
		def := b.cats.Upgrades.ByID[id]
		if b.upgradeMaxed(def) {
			continue
		}
		cost := b.upgradeCost(def)
		if b.money < cost*ec.AutoUpMargin {
			continue
		}
		if b.rng.Float64() >= ec.AutoUpChance*float64(managerLevel) {
			continue
		}
		b.money = math.Max(0, b.money-cost)
		level := b.level(id)
		if def.UnlocksDrink != "" && level == 0 {
			b.unlockDrink(def.UnlocksDrink)
		}
		b.upgrades[id] = level + 1
		b.pushLogf("[AUTO] Upgrade purchased: %s (level %d)", def.Name, level+1)
	}
}

// sysOperatingCosts charges stock, wages and tax once a minute. Stock scales
// with the production rate, wages with the automation headcount, and
// community-minded upgrades earn a discount.
func (b *Bar) sysOperatingCosts(nowMs int64) {
	ec := b.cfg.Tuning.Economy
	if nowMs-b.lastOpPoll < int64(ec.OpCostPollMs) {
		return
	}
	b.lastOpPoll = nowMs
	if nowMs-b.lastOpCharge < int64(ec.OpCostEveryMs) {
		return
	}
	b.lastOpCharge = nowMs

	stats := b.computeStats()
	perSecond := stats.TapPerTick / (stats.TapIntervalMs / 1000)

	stock := ec.StockCostBase * perSecond
	wages := ec.WageCostBase * float64(b.level("auto_seller")+b.level("staff_training"))
	tax := ec.TaxCostBase * stats.PrestigeMult

	discount := 1 - float64(b.level("sustainable_practices"))*0.05 - float64(b.level("community_support"))*0.03
	if discount < 0.5 {
		discount = 0.5
	}
	total := (stock + wages + tax) * discount
	if total <= 0 {
		return
	}
	b.money = math.Max(0, b.money-total)
	b.pushLogf("[COSTS] Operating costs: €%.2f (stock €%.2f, wages €%.2f, tax €%.2f)",
		total, stock*discount, wages*discount, tax*discount)
}

// sysAutosave pushes a save snapshot to the index. The wall-clock stamp is
// the construction anchor plus simulated time, which is what offline credit
// reads back on the next boot.
func (b *Bar) sysAutosave(nowTick uint64, nowMs int64) {
	if nowMs-b.lastAutosave < int64(b.cfg.Tuning.Prestige.AutosaveMs) {
		return
	}
	b.lastAutosave = nowMs
	savedAt := b.cfg.NowUnixMs + nowMs

	if b.index != nil {
		b.index.SaveMeta(SaveMeta{
			BarID:          b.cfg.ID,
			Tick:           nowTick,
			LastSaveUnixMs: savedAt,
			Money:          b.money,
			Beer:           b.beer,
			Moral:          b.moral,
			TotalEarned:    b.totalEarned,
			GlassesSold:    b.glassesSold,
			PrestigeLevel:  b.prestigeLevel,
			PrestigePoints: b.prestigePoints,
		})
	}

	if b.snapshots != nil {
		select {
		case b.snapshots <- SnapshotEnvelope{Tick: nowTick, SavedUnixMs: savedAt, State: b.ExportSnapshot()}:
		default:
		}
	}
}
