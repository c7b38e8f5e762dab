package bar

import (
	"math"
	"testing"

	"boneyard.bar/internal/protocol"
)

func TestBuyUpgradeNeedsMoney(t *testing.T) {
	b := newTestBar(t, 1)
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdBuyUpgrade, UpgradeID: "tap_speed"})
	if ack.Accepted || ack.Code != protocol.ErrNoMoney {
		t.Fatalf("ack: %+v", ack)
	}
	if !hasLogLine(b, "Not enough money for Faster Production.") {
		t.Fatalf("missing refusal line, feed: %v", b.feed)
	}
}

func TestBuyUpgradeDeductsAndLevels(t *testing.T) {
	b := newTestBar(t, 1)
	b.money = 100
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdBuyUpgrade, UpgradeID: "tap_speed"})
	if !ack.Accepted {
		t.Fatalf("ack: %+v", ack)
	}
	if b.level("tap_speed") != 1 {
		t.Fatalf("level: %d", b.level("tap_speed"))
	}
	if b.money != 80 {
		t.Fatalf("money: %v", b.money)
	}
	if !hasLogLine(b, "Upgrade purchased: Faster Production (level 1) for €20.00.") {
		t.Fatalf("missing purchase line, feed: %v", b.feed)
	}
}

func TestBuyUpgradeMaxLevelRejectedSilently(t *testing.T) {
	b := newTestBar(t, 1)
	b.money = 10000
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdBuyUpgrade, UpgradeID: "wine_cellar"}); !ack.Accepted {
		t.Fatalf("first buy: %+v", ack)
	}
	feedLen := len(b.feed)
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdBuyUpgrade, UpgradeID: "wine_cellar"})
	if ack.Accepted || ack.Code != protocol.ErrMaxLevel {
		t.Fatalf("second buy: %+v", ack)
	}
	if len(b.feed) != feedLen {
		t.Fatalf("maxed buy wrote to the feed: %v", b.feed)
	}
}

func TestBuyUpgradeUnlocksDrink(t *testing.T) {
	b := newTestBar(t, 1)

	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdSetDrink, DrinkID: "wijn"})
	if ack.Accepted || ack.Code != protocol.ErrLocked {
		t.Fatalf("locked drink select: %+v", ack)
	}

	b.money = 10000
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdBuyUpgrade, UpgradeID: "wine_cellar"}); !ack.Accepted {
		t.Fatalf("buy: %+v", ack)
	}
	if !b.drinks["wijn"].Unlocked {
		t.Fatal("wijn still locked")
	}
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdSetDrink, DrinkID: "wijn"}); !ack.Accepted {
		t.Fatalf("select: %+v", ack)
	}
	if b.activeDrink != "wijn" {
		t.Fatalf("active drink: %s", b.activeDrink)
	}
}

func TestManualTapAddsReducedAmount(t *testing.T) {
	b := newTestBar(t, 1)
	before := b.beer
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdTap}); !ack.Accepted {
		t.Fatalf("tap: %+v", ack)
	}
	// 1.25 per automatic pour, manual pours at 80%.
	got := b.beer - before
	if got < 0.999 || got > 1.001 {
		t.Fatalf("manual tap amount: %v", got)
	}
}

func TestSellEmptyGlasses(t *testing.T) {
	b := newTestBar(t, 1)
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdSell})
	if ack.Accepted || ack.Code != protocol.ErrNoBeer {
		t.Fatalf("ack: %+v", ack)
	}
	if !hasLogLine(b, "You try to sell, but your glasses are empty.") {
		t.Fatalf("missing empty-sell line, feed: %v", b.feed)
	}
	if b.commentary != "" {
		t.Fatalf("empty sell triggered commentary: %q", b.commentary)
	}
}

func TestSellCapsAtSixGlasses(t *testing.T) {
	b := newTestBar(t, 1)
	b.beer = 200 // ten full glasses
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdSell})
	if !ack.Accepted {
		t.Fatalf("ack: %+v", ack)
	}
	if b.glassesSold != 6 {
		t.Fatalf("glasses sold: %d", b.glassesSold)
	}
	// Six glasses of the base drink at the 1.2 price tier.
	wantEarned := 6 * 4 * 1.2
	if b.money < wantEarned-0.001 || b.money > wantEarned+0.001 {
		t.Fatalf("money: %v want %v", b.money, wantEarned)
	}
	if b.totalEarned != b.money {
		t.Fatalf("total earned: %v", b.totalEarned)
	}
}

func TestGoldenEventDoublesSellPrice(t *testing.T) {
	b := newTestBar(t, 1)
	b.beer = 20
	b.goldenActive = true
	b.goldenUntil = 1 << 40
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdSell}); !ack.Accepted {
		t.Fatal("sell rejected")
	}
	want := 4 * 1.2 * 2.0
	if b.money < want-0.001 || b.money > want+0.001 {
		t.Fatalf("golden sale: %v want %v", b.money, want)
	}
}

func TestPrestigeBelowThreshold(t *testing.T) {
	b := newTestBar(t, 1)
	b.totalEarned = 9999
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdPrestige})
	if ack.Accepted || ack.Code != protocol.ErrThreshold {
		t.Fatalf("ack: %+v", ack)
	}
	if b.prestigeLevel != 0 {
		t.Fatalf("prestige level: %d", b.prestigeLevel)
	}
}

func TestPrestigeResetsAndAwardsPoints(t *testing.T) {
	b := newTestBar(t, 1)
	b.totalEarned = 25000
	b.money = 500
	b.beer = 80
	b.glassesSold = 42
	b.moral = 110
	b.upgrades["tap_speed"] = 4
	b.drinks["wijn"].Unlocked = true
	b.drinks["wijn"].Level = 3
	b.activeDrink = "wijn"

	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdPrestige})
	if !ack.Accepted {
		t.Fatalf("ack: %+v", ack)
	}
	if b.prestigePoints != 2 || b.prestigeLevel != 1 {
		t.Fatalf("prestige: %d points level %d", b.prestigePoints, b.prestigeLevel)
	}
	if b.money != 0 || b.beer != 0 || b.glassesSold != 0 || b.totalEarned != 0 {
		t.Fatalf("state not reset: money=%v beer=%v sold=%d earned=%v", b.money, b.beer, b.glassesSold, b.totalEarned)
	}
	if b.moral != 70 {
		t.Fatalf("moral: %v", b.moral)
	}
	if b.level("tap_speed") != 0 {
		t.Fatalf("upgrades not reset")
	}
	if b.drinks["wijn"].Level != 0 {
		t.Fatalf("drink level not reset: %d", b.drinks["wijn"].Level)
	}
}

// Unlocked drinks survive every reset. Only money, progress counters,
// upgrades and drink levels start over.
func TestPrestigeKeepsDrinkUnlocks(t *testing.T) {
	b := newTestBar(t, 1)
	b.money = 10000
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdBuyUpgrade, UpgradeID: "wine_cellar"}); !ack.Accepted {
		t.Fatalf("buy: %+v", ack)
	}
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdSetDrink, DrinkID: "wijn"}); !ack.Accepted {
		t.Fatalf("select: %+v", ack)
	}

	b.totalEarned = 25000
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdPrestige}); !ack.Accepted {
		t.Fatalf("prestige: %+v", ack)
	}
	if !b.drinks["wijn"].Unlocked {
		t.Fatal("prestige re-locked wijn")
	}
	if b.activeDrink != "wijn" {
		t.Fatalf("active drink reset: %s", b.activeDrink)
	}
	// A second run must not re-lock either.
	b.totalEarned = 25000
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdPrestige}); !ack.Accepted {
		t.Fatalf("second prestige: %+v", ack)
	}
	if !b.drinks["wijn"].Unlocked {
		t.Fatal("second prestige re-locked wijn")
	}
}

func TestAdjustMoralStaysInBounds(t *testing.T) {
	b := newTestBar(t, 3)
	deltas := []float64{500, -1000, 13.7, math.NaN(), math.Inf(1), math.Inf(-1), -0.4, 1e18, -1e18, 7}
	for i := 0; i < 200; i++ {
		d := deltas[i%len(deltas)]
		b.adjustMoral(d)
		if b.moral < b.cfg.Tuning.Morale.Min || b.moral > b.cfg.Tuning.Morale.Max {
			t.Fatalf("moral out of bounds after delta %v: %v", d, b.moral)
		}
	}
}

func TestUnknownCommandRejected(t *testing.T) {
	b := newTestBar(t, 1)
	ack := apply(t, b, protocol.CmdMsg{Cmd: "DANCE"})
	if ack.Accepted || ack.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("ack: %+v", ack)
	}
}
