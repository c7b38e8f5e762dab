package bar

import "boneyard.bar/internal/protocol"

func (b *Bar) buildState(nowTick uint64) protocol.StateMsg {
	stats := b.computeStats()

	upgrades := make([]protocol.UpgradeObs, 0, len(b.cats.Upgrades.Order))
	for _, id := range b.cats.Upgrades.Order {
		def := b.cats.Upgrades.ByID[id]
		upgrades = append(upgrades, protocol.UpgradeObs{
			ID:       id,
			Level:    b.level(id),
			NextCost: b.upgradeCost(def),
			Maxed:    b.upgradeMaxed(def),
		})
	}

	drinks := make([]protocol.DrinkObs, 0, len(b.cats.Drinks.Order))
	for _, id := range b.cats.Drinks.Order {
		drinks = append(drinks, protocol.DrinkObs{ID: id, Unlocked: b.drinks[id].Unlocked})
	}

	patrons := make([]protocol.PatronObs, 0, len(b.patronOrder))
	for _, id := range b.patronOrder {
		p := b.patrons[id]
		if p == nil {
			continue
		}
		patrons = append(patrons, protocol.PatronObs{
			ID:           p.ID,
			Personality:  p.Personality,
			Name:         p.Name,
			Seat:         p.Seat,
			Walking:      p.Leaving,
			Opportunity:  p.Opportunity,
			Patience:     p.Patience,
			OrderValue:   p.OrderValue,
			TimesOrdered: p.TimesOrdered,
			Returning:    p.Returning,
		})
	}

	var quest *protocol.QuestObs
	if b.quest != nil {
		choices := make([]protocol.ChoiceObs, len(b.quest.Choices))
		for i, text := range b.quest.Choices {
			choices[i] = protocol.ChoiceObs{Text: text}
		}
		quest = &protocol.QuestObs{
			PatronID: b.quest.PatronID,
			Kind:     b.quest.Kind,
			Title:    b.quest.Title,
			Prompt:   b.quest.Prompt,
			Choices:  choices,
		}
	}

	var moralEvent *protocol.MoralEventObs
	if b.moralEvent != nil {
		def := b.cats.MoralEvents.ByID[b.moralEvent.EventID]
		choices := make([]protocol.ChoiceObs, len(def.Choices))
		for i, c := range def.Choices {
			choices[i] = protocol.ChoiceObs{Text: c.Text}
		}
		moralEvent = &protocol.MoralEventObs{
			EventID:     def.ID,
			Title:       def.Title,
			Description: def.Description,
			Choices:     choices,
		}
	}

	var goldenEnds uint64
	if b.goldenActive {
		goldenEnds = uint64(b.goldenUntil / int64(b.cfg.Tuning.TickDurationMs))
	}

	return protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Bar: protocol.BarObs{
			Open:           b.open,
			Beer:           b.beer,
			Money:          b.money,
			Moral:          b.moral,
			TotalEarned:    b.totalEarned,
			GlassesSold:    float64(b.glassesSold),
			PatronsServed:  b.patronsServed,
			MoralChoices:   b.moralChoices,
			PrestigePoints: b.prestigePoints,
			PrestigeLevel:  b.prestigeLevel,
			ActiveDrink:    b.activeDrink,
			GoldenActive:   b.goldenActive,
			GoldenEndsTick: goldenEnds,
		},
		Stats: protocol.StatsObs{
			TapIntervalMs:      stats.TapIntervalMs,
			TapPerTick:         stats.TapPerTick,
			PricePerGlass:      stats.PricePerGlass,
			AutoSellIntervalMs: stats.AutoSellIntervalMs,
			AutoSellBatch:      stats.AutoSellBatch,
			MoralEffective:     stats.MoralEffective,
			PrestigeMult:       stats.PrestigeMult,
			DrinkCapacity:      stats.DrinkCapacity,
		},
		Upgrades:     upgrades,
		Drinks:       drinks,
		Patrons:      patrons,
		Quest:        quest,
		MoralEvent:   moralEvent,
		Log:          append([]string(nil), b.feed...),
		Commentary:   b.commentary,
		Achievements: append([]string(nil), b.achievementLog...),
	}
}
