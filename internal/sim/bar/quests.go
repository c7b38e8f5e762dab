package bar

import (
	"fmt"
	"math"
	"strings"

	"boneyard.bar/internal/sim/catalogs"
)

// renderQuestText fills the {name}/{drink}/{price} placeholders against the
// asking patron.
func (b *Bar) renderQuestText(text string, p *Patron, price float64) string {
	r := strings.NewReplacer(
		"{name}", p.Name,
		"{drink}", strings.ToLower(b.cats.Drinks.ByID[b.activeDrink].Name),
		"{price}", fmt.Sprintf("%.2f", price),
	)
	return r.Replace(text)
}

// styleLine prefixes a line with one of the patron's catchphrases.
func (b *Bar) styleLine(line string, def catalogs.PatronDef) string {
	if len(def.Catchphrases) == 0 {
		return line
	}
	return def.Catchphrases[b.rng.Intn(len(def.Catchphrases))] + " " + line
}

// startQuest opens a dialog for the patron's rolled opportunity. Template
// choice within a kind is random.
func (b *Bar) startQuest(p *Patron) {
	templates := b.cats.Quests.ByKind[p.Opportunity]
	if len(templates) == 0 {
		return
	}
	tpl := templates[b.rng.Intn(len(templates))]
	def := b.cats.Patrons.ByID[p.Personality]

	prompt := b.renderQuestText(tpl.Prompt, p, p.OrderValue)
	if tpl.StyledPrompt {
		prompt = b.styleLine(prompt, def)
	}
	choices := make([]string, len(tpl.Choices))
	for i, c := range tpl.Choices {
		choices[i] = b.renderQuestText(c.Text, p, b.questChoiceMoney(c, p))
	}

	b.quest = &activeQuest{
		PatronID: p.ID,
		Kind:     p.Opportunity,
		Template: tpl,
		Title:    b.renderQuestText(tpl.Title, p, p.OrderValue),
		Prompt:   prompt,
		Choices:  choices,
	}
}

func (b *Bar) questChoiceMoney(c catalogs.QuestChoiceDef, p *Patron) float64 {
	return p.OrderValue * c.MoneyFactor
}

// questChoiceMoral folds the patron's friendliness into the template's warm
// and cold components.
func (b *Bar) questChoiceMoral(c catalogs.QuestChoiceDef, p *Patron) float64 {
	f := b.cats.Patrons.ByID[p.Personality].Friendliness / 100
	moral := c.Moral
	if c.MoralWarm != 0 {
		moral += math.Floor(c.MoralWarm * f)
	}
	if c.MoralCold != 0 {
		moral -= math.Floor(c.MoralCold * (1 - f))
	}
	return moral
}

func (b *Bar) resolveQuest(choice int, nowMs int64) {
	q := b.quest
	p := b.patrons[q.PatronID]
	b.quest = nil
	if p == nil {
		return
	}
	c := q.Template.Choices[choice]

	moral := b.questChoiceMoral(c, p)
	b.adjustMoral(moral)
	b.moralChoices++

	money := b.questChoiceMoney(c, p)
	if money != 0 {
		b.money = math.Max(0, b.money+money)
		if money > 0 {
			b.totalEarned += money
			b.glassesSold++
		}
	}
	if c.BeerCapacityFactor != 0 {
		stats := b.computeStats()
		b.beer = math.Max(0, b.beer+c.BeerCapacityFactor*stats.DrinkCapacity)
	}

	b.patronsServed++
	b.lastServed[p.Personality] = nowMs
	if q.Kind == "order" {
		p.TimesOrdered++
	}

	def := b.cats.Patrons.ByID[p.Personality]
	choiceText := b.renderQuestText(c.Text, p, money)
	if c.Styled {
		choiceText = b.styleLine(choiceText, def)
	}
	b.pushLogf("[%s] %s", p.Name, q.Title)
	b.pushLogf("→ %s (Morale: %+.0f)", choiceText, moral)
	if c.Consequence != "" {
		b.pushLogf("→ %s", b.renderQuestText(c.Consequence, p, money))
	}

	p.Opportunity = ""
	if q.Kind == "order" && p.TimesOrdered < b.cfg.Tuning.Patrons.MaxOrdersPerPatron {
		// A patron under the order cap sticks around for another round.
		p.rolled = false
		p.opportunityAt = nowMs + int64(b.cfg.Tuning.Patrons.OpportunityDelayMs)
	} else {
		p.Leaving = true
		p.Seat = -1
	}
}

// startPatronDilemma routes a moral_dilemma opportunity into the moral event
// system: the patron personally confronts you with a random event.
func (b *Bar) startPatronDilemma(p *Patron, nowMs int64) {
	if b.moralEvent != nil {
		return
	}
	p.Opportunity = ""
	b.openMoralEvent(nowMs)
}
