package bar

import (
	"strings"
	"testing"

	"boneyard.bar/internal/protocol"
)

func TestResolveMoralEventAppliesDeltas(t *testing.T) {
	b := newTestBar(t, 9)
	b.money = 50
	b.moralEvent = &activeMoralEvent{EventID: "sketchy_supplier", ShownMs: 0}

	// Choice 0: take the deal (+€50, morale -15).
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdMoralChoice, Choice: 0})
	if !ack.Accepted {
		t.Fatalf("ack: %+v", ack)
	}
	if b.money != 100 {
		t.Fatalf("money: %v", b.money)
	}
	if b.moral != 55 {
		t.Fatalf("moral: %v", b.moral)
	}
	if b.moralChoices != 1 {
		t.Fatalf("moral choices: %d", b.moralChoices)
	}
	if b.moralEvent != nil {
		t.Fatal("event not closed")
	}
	found := false
	for _, line := range b.feed {
		if strings.HasPrefix(line, "[CHOICE]") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing [CHOICE] line: %v", b.feed)
	}
}

func TestMoralEventMoneyFloorsAtZero(t *testing.T) {
	b := newTestBar(t, 9)
	b.money = 40
	b.moralEvent = &activeMoralEvent{EventID: "tax_inspector", ShownMs: 0}
	// Choice 0: bribe (-€100) against €40 in the till.
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdMoralChoice, Choice: 0}); !ack.Accepted {
		t.Fatal("choice rejected")
	}
	if b.money != 0 {
		t.Fatalf("money: %v", b.money)
	}
}

func TestMoralEventAutoResolves(t *testing.T) {
	b := newTestBar(t, 9)
	b.moralEvent = &activeMoralEvent{EventID: "homeless_person", ShownMs: 0}
	b.sysMoralEvents(3000)
	if b.moralEvent != nil {
		t.Fatal("event should auto-resolve after the idle window")
	}
	if b.moralChoices != 1 {
		t.Fatalf("moral choices: %d", b.moralChoices)
	}
}

func TestMoralChoiceWithoutEvent(t *testing.T) {
	b := newTestBar(t, 9)
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdMoralChoice, Choice: 0})
	if ack.Code != protocol.ErrNoChoice {
		t.Fatalf("ack: %+v", ack)
	}
}

func TestApplyPunishmentFloorsAtZero(t *testing.T) {
	b := newTestBar(t, 9)
	b.money = 10
	b.beer = 5
	moralBefore := b.moral
	b.applyPunishment(b.cats.Punishments.Severe)
	if b.money < 0 || b.beer < 0 {
		t.Fatalf("negative resources: money=%v beer=%v", b.money, b.beer)
	}
	if b.moral >= moralBefore {
		t.Fatalf("moral did not drop: %v -> %v", moralBefore, b.moral)
	}
	found := false
	for _, line := range b.feed {
		if strings.HasPrefix(line, "[PENALTY]") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing [PENALTY] line: %v", b.feed)
	}
}

func TestPunishmentsFireOnlyAtLowMorale(t *testing.T) {
	b := newTestBar(t, 9)
	b.money = 1000

	// Healthy morale: never punished regardless of cadence.
	b.lastPunish = -1 << 40
	b.sysPunishments(5000)
	if b.money != 1000 {
		t.Fatalf("punished at healthy morale: %v", b.money)
	}

	b.moral = 10
	b.lastPunishPoll = 0
	b.lastPunish = -1 << 40
	b.sysPunishments(10000)
	if b.money == 1000 && b.beer == 0 && b.moral == 10 {
		t.Fatal("severe punishment did not land")
	}
}

func TestGoldenEventExpires(t *testing.T) {
	b := newTestBar(t, 9)
	b.goldenActive = true
	b.goldenUntil = 20000
	b.sysGolden(20000)
	if b.goldenActive {
		t.Fatal("golden event still active")
	}
	if !hasLogLine(b, "The golden event is over. Back to normal.") {
		t.Fatalf("missing expiry line: %v", b.feed)
	}
}

func TestMoraleDriftPullsTowardBand(t *testing.T) {
	b := newTestBar(t, 9)
	b.moral = 100
	b.sysMoraleDrift(4000)
	approx(t, "drift down", b.moral, 99.7)

	b.moral = 40
	b.lastDrift = 0
	b.sysMoraleDrift(8000)
	approx(t, "drift up", b.moral, 40.3)

	// Inside the band nothing moves.
	b.moral = 70
	b.lastDrift = 0
	b.sysMoraleDrift(12000)
	if b.moral != 70 {
		t.Fatalf("drift inside band: %v", b.moral)
	}
}
