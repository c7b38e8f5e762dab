package bar

import (
	"math"

	"boneyard.bar/internal/sim/catalogs"
)

// sysMoralEvents polls for the rare dilemma popups and auto-resolves a
// lingering one so idle play never stalls on a modal.
func (b *Bar) sysMoralEvents(nowMs int64) {
	e := b.cfg.Tuning.Events
	if b.moralEvent != nil {
		if nowMs-b.moralEvent.ShownMs >= int64(e.MoralAutoResolveMs) {
			def := b.cats.MoralEvents.ByID[b.moralEvent.EventID]
			b.resolveMoralEvent(b.rng.Intn(len(def.Choices)), nowMs)
		}
		return
	}
	if nowMs-b.lastMoralPoll < int64(e.MoralPollMs) {
		return
	}
	b.lastMoralPoll = nowMs

	gap := nowMs - b.lastMoralEvent
	if gap < int64(e.MoralMinGapMs) {
		return
	}
	// Two independent gates keep events rare: a flat chance per poll and a
	// re-rolled target gap between the min and max.
	if b.rng.Float64() >= e.MoralChance {
		return
	}
	target := int64(e.MoralMinGapMs) + int64(b.rng.Float64()*float64(e.MoralMaxGapMs-e.MoralMinGapMs))
	if gap < target {
		return
	}
	b.openMoralEvent(nowMs)
}

func (b *Bar) openMoralEvent(nowMs int64) {
	id := b.cats.MoralEvents.Order[b.rng.Intn(len(b.cats.MoralEvents.Order))]
	b.moralEvent = &activeMoralEvent{EventID: id, ShownMs: nowMs}
	b.lastMoralEvent = nowMs
}

func (b *Bar) resolveMoralEvent(choice int, nowMs int64) {
	ev := b.moralEvent
	b.moralEvent = nil
	def := b.cats.MoralEvents.ByID[ev.EventID]
	c := def.Choices[choice]

	b.adjustMoral(c.Moral)
	b.moralChoices++
	if c.Money != 0 {
		b.money = math.Max(0, b.money+c.Money)
	}
	if c.Beer != 0 {
		b.beer = math.Max(0, b.beer+c.Beer)
	}

	if b.rng.Float64() > 0.95 {
		b.showCommentary("sell", nowMs)
	}
	b.pushLogf("[CHOICE] %s: %s (Morale: %+.0f)", def.Title, c.Text, c.Moral)
	if c.Consequence != "" {
		b.pushLogf("→ %s", c.Consequence)
	}
}

// sysPunishments applies corruption penalties while effective morale stays
// low. Severe and moderate bands have their own cadence.
func (b *Bar) sysPunishments(nowMs int64) {
	e := b.cfg.Tuning.Events
	if nowMs-b.lastPunishPoll < int64(e.PunishPollMs) {
		return
	}
	b.lastPunishPoll = nowMs

	effective := b.computeStats().MoralEffective
	gap := nowMs - b.lastPunish
	switch {
	case effective < e.SevereBelow:
		target := int64(e.SevereGapMinMs) + int64(b.rng.Float64()*float64(e.SevereGapMaxMs-e.SevereGapMinMs))
		if gap >= target {
			b.applyPunishment(b.cats.Punishments.Severe)
			b.lastPunish = nowMs
		}
	case effective < e.ModerateBelow:
		target := int64(e.ModerateGapMinMs) + int64(b.rng.Float64()*float64(e.ModerateGapMaxMs-e.ModerateGapMinMs))
		if gap >= target {
			b.applyPunishment(b.cats.Punishments.Moderate)
			b.lastPunish = nowMs
		}
	}
}

func (b *Bar) applyPunishment(pool []catalogs.PunishmentDef) {
	p := pool[b.rng.Intn(len(pool))]

	var moneyLost, beerLost float64
	if p.MoneyPct > 0 {
		moneyLost = math.Floor(b.money * p.MoneyPct)
		b.money = math.Max(0, b.money-moneyLost)
	}
	if p.BeerPct > 0 {
		beerLost = math.Floor(b.beer * p.BeerPct)
		b.beer = math.Max(0, b.beer-beerLost)
	}
	b.adjustMoral(p.Moral)

	b.pushLogf("[PENALTY] %s: %s", p.Title, p.Message)
	if moneyLost > 0 {
		b.pushLogf("→ Money lost: €%.2f", moneyLost)
	}
	if beerLost > 0 {
		b.pushLogf("→ Beer lost: %.0f cl", beerLost)
	}
}

// sysGolden rolls the rare double-everything window.
func (b *Bar) sysGolden(nowMs int64) {
	e := b.cfg.Tuning.Events
	// The poll that closes a window never opens the next one.
	if b.goldenActive && nowMs >= b.goldenUntil {
		b.goldenActive = false
		b.pushLog("The golden event is over. Back to normal.")
		return
	}
	if nowMs-b.lastGoldenPoll < int64(e.GoldenPollMs) {
		return
	}
	b.lastGoldenPoll = nowMs

	if b.goldenActive {
		return
	}
	if b.rng.Float64() < e.GoldenChance {
		b.goldenActive = true
		b.goldenUntil = nowMs + int64(e.GoldenDurationMs)
		b.pushLogf("✨ GOLDEN EVENT! %.0fx beer production and %.0fx sell price for %d seconds!",
			e.GoldenTapMult, e.GoldenPriceMult, e.GoldenDurationMs/1000)
		b.setCommentary("LUCKY! You found a golden opportunity! Or did it find you?", nowMs)
	}
}
