package bar

import (
	"fmt"
	"math"
	"strings"

	"boneyard.bar/internal/protocol"
	"boneyard.bar/internal/sim/bar/logic/sanitize"
)

func (b *Bar) applyCommand(cmd protocol.CmdMsg, nowTick uint64, nowMs int64) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		ReqID:           cmd.ReqID,
		AckFor:          cmd.Cmd,
		Accepted:        true,
		ServerTick:      nowTick,
	}
	code, msg := b.dispatchCommand(cmd, nowTick, nowMs)
	if code != "" {
		ack.Accepted = false
		ack.Code = code
		ack.Message = msg
	}
	return ack
}

// dispatchCommand returns ("", "") on success or an error code + message.
func (b *Bar) dispatchCommand(cmd protocol.CmdMsg, nowTick uint64, nowMs int64) (string, string) {
	switch cmd.Cmd {
	case protocol.CmdTap:
		b.cmdTap()
		return "", ""
	case protocol.CmdSell:
		return b.cmdSell(nowTick, nowMs)
	case protocol.CmdBuyUpgrade:
		return b.cmdBuyUpgrade(cmd.UpgradeID, nowMs)
	case protocol.CmdToggleBar:
		b.open = !b.open
		return "", ""
	case protocol.CmdSetDrink:
		return b.cmdSetDrink(cmd.DrinkID)
	case protocol.CmdSpawnPatron:
		return b.cmdSpawnPatron(cmd.Force, nowMs)
	case protocol.CmdClickPatron:
		return b.cmdClickPatron(cmd.PatronID, nowMs)
	case protocol.CmdQuestChoice:
		return b.cmdQuestChoice(cmd.Choice, nowMs)
	case protocol.CmdQuestDismiss:
		return b.cmdQuestDismiss()
	case protocol.CmdMoralChoice:
		return b.cmdMoralChoice(cmd.Choice, nowMs)
	case protocol.CmdPrestige:
		return b.cmdPrestige()
	default:
		return protocol.ErrProtoBadRequest, fmt.Sprintf("unknown cmd %q", cmd.Cmd)
	}
}

// cmdTap pours by hand at a fraction of the automatic rate. Deliberately
// unlogged so the feed does not fill with tap lines.
func (b *Bar) cmdTap() {
	stats := b.computeStats()
	b.beer += stats.TapPerTick * b.cfg.Tuning.Base.ManualTapFactor
}

func (b *Bar) cmdSell(nowTick uint64, nowMs int64) (string, string) {
	stats := b.computeStats()
	available := int(math.Floor(b.beer / stats.DrinkCapacity))
	if available <= 0 {
		// No skeleton comment on a dry tap, just the feed line.
		b.pushLog("You try to sell, but your glasses are empty.")
		return protocol.ErrNoBeer, "no full glasses to sell"
	}
	toSell := available
	if toSell > b.cfg.Tuning.Base.ManualSellMax {
		toSell = b.cfg.Tuning.Base.ManualSellMax
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
	b.pushLogf("You sold %d %s for €%.2f.", toSell, strings.ToLower(b.cats.Drinks.ByID[b.activeDrink].Name), earned)
	b.showCommentary("sell", nowMs)
	if b.index != nil {
		b.index.RecordSale(nowTick, b.activeDrink, toSell, earned)
	}
	return "", ""
}

func (b *Bar) cmdBuyUpgrade(upgradeID string, nowMs int64) (string, string) {
	def, ok := b.cats.Upgrades.ByID[upgradeID]
	if !ok {
		return protocol.ErrBadRequest, fmt.Sprintf("unknown upgrade %q", upgradeID)
	}
	// Maxed purchases fail without a feed line; the client already renders
	// the upgrade as maxed.
	if b.upgradeMaxed(def) {
		return protocol.ErrMaxLevel, def.Name + " is already maxed"
	}
	cost := b.upgradeCost(def)
	if b.money < cost {
		b.pushLogf("Not enough money for %s.", def.Name)
		b.showCommentary("no_money", nowMs)
		return protocol.ErrNoMoney, fmt.Sprintf("need €%.2f", cost)
	}
	b.money -= cost
	level := b.level(upgradeID)
	if def.UnlocksDrink != "" && level == 0 {
		b.unlockDrink(def.UnlocksDrink)
	}
	b.upgrades[upgradeID] = level + 1
	b.pushLogf("Upgrade purchased: %s (level %d) for €%.2f.", def.Name, level+1, cost)
	b.showCommentary("upgrade", nowMs)
	return "", ""
}

func (b *Bar) unlockDrink(drinkID string) {
	st, ok := b.drinks[drinkID]
	if !ok || st.Unlocked {
		return
	}
	st.Unlocked = true
	b.pushLogf("%s unlocked! You can now serve it.", b.cats.Drinks.ByID[drinkID].Name)
}

func (b *Bar) cmdSetDrink(drinkID string) (string, string) {
	st, ok := b.drinks[drinkID]
	if !ok {
		return protocol.ErrBadRequest, fmt.Sprintf("unknown drink %q", drinkID)
	}
	if !st.Unlocked {
		return protocol.ErrLocked, b.cats.Drinks.ByID[drinkID].Name + " is still locked"
	}
	if b.activeDrink != drinkID {
		b.activeDrink = drinkID
		b.pushLogf("Now serving %s.", b.cats.Drinks.ByID[drinkID].Name)
	}
	return "", ""
}

func (b *Bar) cmdSpawnPatron(force bool, nowMs int64) (string, string) {
	if !b.open && !force {
		return protocol.ErrBarClosed, "the bar is closed"
	}
	if !b.spawnPatron(nowMs) {
		return protocol.ErrBarFull, "no free seats"
	}
	return "", ""
}

func (b *Bar) cmdClickPatron(patronID string, nowMs int64) (string, string) {
	p, ok := b.patrons[patronID]
	if !ok || p.Leaving {
		return protocol.ErrNoPatron, fmt.Sprintf("no patron %q", patronID)
	}
	if b.quest != nil {
		return protocol.ErrBusy, "another patron is already being served"
	}
	if p.Opportunity == "" {
		return protocol.ErrNoChoice, p.Name + " has nothing to ask"
	}
	if p.Opportunity == "moral_dilemma" {
		b.startPatronDilemma(p, nowMs)
		return "", ""
	}
	b.startQuest(p)
	return "", ""
}

func (b *Bar) cmdQuestChoice(choice int, nowMs int64) (string, string) {
	if b.quest == nil {
		return protocol.ErrNoChoice, "no quest in progress"
	}
	if choice < 0 || choice >= len(b.quest.Template.Choices) {
		return protocol.ErrBadRequest, fmt.Sprintf("choice %d out of range", choice)
	}
	b.resolveQuest(choice, nowMs)
	return "", ""
}

func (b *Bar) cmdQuestDismiss() (string, string) {
	if b.quest == nil {
		return protocol.ErrNoChoice, "no quest in progress"
	}
	if p := b.patrons[b.quest.PatronID]; p != nil {
		p.Opportunity = ""
		p.Leaving = true
		p.Seat = -1
		b.pushLogf("%s leaves without being served.", p.Name)
	}
	b.quest = nil
	return "", ""
}

func (b *Bar) cmdMoralChoice(choice int, nowMs int64) (string, string) {
	if b.moralEvent == nil {
		return protocol.ErrNoChoice, "no event in progress"
	}
	def := b.cats.MoralEvents.ByID[b.moralEvent.EventID]
	if choice < 0 || choice >= len(def.Choices) {
		return protocol.ErrBadRequest, fmt.Sprintf("choice %d out of range", choice)
	}
	b.resolveMoralEvent(choice, nowMs)
	return "", ""
}

func (b *Bar) cmdPrestige() (string, string) {
	threshold := b.cfg.Tuning.Prestige.Threshold
	if b.totalEarned < threshold {
		b.pushLogf("You need at least €%.0f total earned for prestige!", threshold)
		return protocol.ErrThreshold, fmt.Sprintf("need €%.0f total earned", threshold)
	}
	points := int(math.Floor(b.totalEarned / threshold))
	b.prestigePoints += points
	b.prestigeLevel++

	b.beer = 0
	b.money = 0
	b.glassesSold = 0
	b.totalEarned = 0
	b.moral = b.cfg.Tuning.Morale.Start
	for id := range b.upgrades {
		b.upgrades[id] = 0
	}
	// Drink unlocks are permanent. Only the per-drink levels start over, and
	// the active drink stays on tap.
	for _, id := range b.cats.Drinks.Order {
		b.drinks[id].Level = 0
	}

	b.pushLogf("PRESTIGE! You earned %d prestige points!", points)
	b.pushLogf("You start over, but with a %d%% permanent bonus!", int(float64(b.prestigePoints)*b.cfg.Tuning.Prestige.PointMultiplier*100))
	return "", ""
}

// adjustMoral shifts morale and clamps to the configured band.
func (b *Bar) adjustMoral(delta float64) {
	b.moral = sanitize.Clamp(b.moral+delta, b.cfg.Tuning.Morale.Min, b.cfg.Tuning.Morale.Max)
}
