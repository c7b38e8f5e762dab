package bar

import (
	"strings"
	"testing"

	"boneyard.bar/internal/protocol"
	"boneyard.bar/internal/sim/catalogs"
)

func seatPatron(b *Bar, personality, opportunity string) *Patron {
	def := b.cats.Patrons.ByID[personality]
	p := &Patron{
		ID:          b.newPatronID(),
		Personality: personality,
		Name:        def.Name,
		Seat:        def.PreferredStool,
		Patience:    60,
		OrderValue:  10,
		Opportunity: opportunity,
		rolled:      true,
	}
	b.patrons[p.ID] = p
	b.patronOrder = append(b.patronOrder, p.ID)
	return p
}

func TestClickPatronOpensQuest(t *testing.T) {
	b := newTestBar(t, 5)
	p := seatPatron(b, "deco", "order")

	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: p.ID})
	if !ack.Accepted {
		t.Fatalf("click: %+v", ack)
	}
	if b.quest == nil || b.quest.PatronID != p.ID || b.quest.Kind != "order" {
		t.Fatalf("quest: %+v", b.quest)
	}
	if len(b.quest.Choices) != 3 {
		t.Fatalf("choices: %d", len(b.quest.Choices))
	}
	if strings.Contains(b.quest.Title, "{name}") {
		t.Fatalf("placeholder not rendered: %q", b.quest.Title)
	}
}

func TestClickPatronErrors(t *testing.T) {
	b := newTestBar(t, 5)
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: "P999999"})
	if ack.Code != protocol.ErrNoPatron {
		t.Fatalf("unknown patron: %+v", ack)
	}

	quiet := seatPatron(b, "witch", "")
	ack = apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: quiet.ID})
	if ack.Code != protocol.ErrNoChoice {
		t.Fatalf("no opportunity: %+v", ack)
	}

	asking := seatPatron(b, "deco", "tip")
	other := seatPatron(b, "evil", "order")
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: asking.ID}); !ack.Accepted {
		t.Fatalf("first click: %+v", ack)
	}
	ack = apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: other.ID})
	if ack.Code != protocol.ErrBusy {
		t.Fatalf("second click: %+v", ack)
	}
}

func TestQuestChoiceOrderPaysOut(t *testing.T) {
	b := newTestBar(t, 5)
	p := seatPatron(b, "deco", "order")
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: p.ID}); !ack.Accepted {
		t.Fatal("click rejected")
	}
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdQuestChoice, Choice: 0})
	if !ack.Accepted {
		t.Fatalf("choice: %+v", ack)
	}
	// Both order templates charge the straight order value on choice 0.
	if b.money != 10 || b.totalEarned != 10 || b.glassesSold != 1 {
		t.Fatalf("payout: money=%v earned=%v sold=%d", b.money, b.totalEarned, b.glassesSold)
	}
	if b.patronsServed != 1 || b.moralChoices != 1 {
		t.Fatalf("counters: served=%d choices=%d", b.patronsServed, b.moralChoices)
	}
	if _, ok := b.lastServed["deco"]; !ok {
		t.Fatal("lastServed not recorded")
	}
	// One order is under the cap, so the patron stays for another round.
	if p.Leaving {
		t.Fatal("patron should stay after the first order")
	}
	if p.rolled || p.Opportunity != "" {
		t.Fatalf("opportunity not re-armed: rolled=%v opp=%q", p.rolled, p.Opportunity)
	}
	if b.quest != nil {
		t.Fatal("quest not closed")
	}
}

func TestOrderCapEndsTheVisit(t *testing.T) {
	b := newTestBar(t, 5)
	p := seatPatron(b, "deco", "order")
	for i := 0; i < b.cfg.Tuning.Patrons.MaxOrdersPerPatron; i++ {
		p.Opportunity = "order"
		if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: p.ID}); !ack.Accepted {
			t.Fatalf("click %d: %+v", i, ack)
		}
		if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdQuestChoice, Choice: 0}); !ack.Accepted {
			t.Fatalf("choice %d: %+v", i, ack)
		}
	}
	if p.TimesOrdered != b.cfg.Tuning.Patrons.MaxOrdersPerPatron {
		t.Fatalf("orders counted: %d", p.TimesOrdered)
	}
	if !p.Leaving || p.Seat != -1 {
		t.Fatalf("capped patron still seated: leaving=%v seat=%d", p.Leaving, p.Seat)
	}
}

func TestTipQuestEndsTheVisit(t *testing.T) {
	b := newTestBar(t, 5)
	p := seatPatron(b, "deco", "tip")
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: p.ID}); !ack.Accepted {
		t.Fatal("click rejected")
	}
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdQuestChoice, Choice: 0}); !ack.Accepted {
		t.Fatal("choice rejected")
	}
	if !p.Leaving {
		t.Fatal("tip patron should leave after service")
	}
	if p.TimesOrdered != 0 {
		t.Fatalf("tip counted as an order: %d", p.TimesOrdered)
	}
}

func TestQuestComplaintDrainsBeer(t *testing.T) {
	b := newTestBar(t, 5)
	b.beer = 50
	p := seatPatron(b, "rebel", "complaint")
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: p.ID}); !ack.Accepted {
		t.Fatal("click rejected")
	}
	moralBefore := b.moral
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdQuestChoice, Choice: 0}); !ack.Accepted {
		t.Fatal("choice rejected")
	}
	// Remaking the drink costs one glass of the active drink.
	if b.beer != 30 {
		t.Fatalf("beer: %v", b.beer)
	}
	if b.money != 0 {
		t.Fatalf("money: %v", b.money)
	}
	if b.moral != moralBefore+3 {
		t.Fatalf("moral: %v -> %v", moralBefore, b.moral)
	}
}

func TestQuestChoiceOutOfRange(t *testing.T) {
	b := newTestBar(t, 5)
	p := seatPatron(b, "deco", "special")
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: p.ID}); !ack.Accepted {
		t.Fatal("click rejected")
	}
	ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdQuestChoice, Choice: 7})
	if ack.Code != protocol.ErrBadRequest {
		t.Fatalf("ack: %+v", ack)
	}
	if b.quest == nil {
		t.Fatal("quest should survive a bad choice")
	}
}

func TestQuestDismissSendsPatronAway(t *testing.T) {
	b := newTestBar(t, 5)
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdQuestDismiss}); ack.Code != protocol.ErrNoChoice {
		t.Fatalf("dismiss without quest: %+v", ack)
	}

	p := seatPatron(b, "smoking", "tip")
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: p.ID}); !ack.Accepted {
		t.Fatal("click rejected")
	}
	moneyBefore := b.money
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdQuestDismiss}); !ack.Accepted {
		t.Fatal("dismiss rejected")
	}
	if b.quest != nil || !p.Leaving {
		t.Fatal("dismiss did not close out the patron")
	}
	if b.money != moneyBefore {
		t.Fatalf("dismiss moved money: %v", b.money)
	}
	if !hasLogLine(b, "Smoke leaves without being served.") {
		t.Fatalf("missing dismiss line: %v", b.feed)
	}
}

// Every template must make the player choose: the richest choice never
// improves morale, and the kindest choice never costs money. Best and worst
// cases bracket the friendliness fold-in from questChoiceMoral.
func TestQuestChoicesTradeMoneyAgainstMorale(t *testing.T) {
	b := newTestBar(t, 5)
	bestMoral := func(c catalogs.QuestChoiceDef) float64 { return c.Moral + c.MoralWarm }
	worstMoral := func(c catalogs.QuestChoiceDef) float64 { return c.Moral - c.MoralCold }

	for kind, templates := range b.cats.Quests.ByKind {
		for _, tpl := range templates {
			richest, kindest := 0, 0
			for i, c := range tpl.Choices {
				if c.MoneyFactor > tpl.Choices[richest].MoneyFactor {
					richest = i
				}
				if bestMoral(c) > bestMoral(tpl.Choices[kindest]) {
					kindest = i
				}
			}
			if bestMoral(tpl.Choices[richest]) > 0 {
				t.Errorf("%s %q: richest choice raises morale", kind, tpl.Title)
			}
			for i, c := range tpl.Choices {
				if i != richest && bestMoral(tpl.Choices[richest]) > worstMoral(c) {
					t.Errorf("%s %q: richest choice is not the morale floor", kind, tpl.Title)
				}
			}
			if tpl.Choices[kindest].MoneyFactor < 0 {
				t.Errorf("%s %q: kindest choice costs money", kind, tpl.Title)
			}
		}
	}
}

func TestDilemmaClickOpensMoralEvent(t *testing.T) {
	b := newTestBar(t, 5)
	p := seatPatron(b, "evil", "moral_dilemma")
	if ack := apply(t, b, protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: p.ID}); !ack.Accepted {
		t.Fatal("click rejected")
	}
	if b.moralEvent == nil {
		t.Fatal("no moral event opened")
	}
	if p.Opportunity != "" {
		t.Fatal("opportunity not consumed")
	}
	if b.quest != nil {
		t.Fatal("dilemma must not open a quest dialog")
	}
}
