package bar

// seatTaken reports whether stool i is occupied by a staying patron.
func (b *Bar) seatTaken(i int) bool {
	for _, id := range b.patronOrder {
		p := b.patrons[id]
		if p != nil && !p.Leaving && p.Seat == i {
			return true
		}
	}
	return false
}

func (b *Bar) seatedCount() int {
	n := 0
	for _, id := range b.patronOrder {
		p := b.patrons[id]
		if p != nil && !p.Leaving {
			n++
		}
	}
	return n
}

func (b *Bar) freeSeats() []int {
	var free []int
	for i := 0; i < b.cfg.Tuning.Patrons.Stools; i++ {
		if !b.seatTaken(i) {
			free = append(free, i)
		}
	}
	return free
}

// spawnPatron seats a new patron if capacity allows. Personality selection
// prefers regulars who were last served long enough ago, then rolls for any
// regular, then falls back to a uniform pick.
func (b *Bar) spawnPatron(nowMs int64) bool {
	t := b.cfg.Tuning.Patrons
	maxSeated := b.cfg.Tuning.Patrons.BaseSeats + b.level("bar_expansion")
	if maxSeated > t.Stools {
		maxSeated = t.Stools
	}
	if b.seatedCount() >= maxSeated {
		return false
	}
	free := b.freeSeats()
	if len(free) == 0 {
		return false
	}

	var overdue []string
	var served []string
	for _, pid := range b.cats.Patrons.Order {
		last, ok := b.lastServed[pid]
		if !ok {
			continue
		}
		served = append(served, pid)
		if nowMs-last >= int64(t.ReturnAfterMs) {
			overdue = append(overdue, pid)
		}
	}

	var personality string
	returning := false
	switch {
	case len(overdue) > 0:
		personality = overdue[b.rng.Intn(len(overdue))]
		returning = true
	case len(served) > 0 && b.rng.Float64() < t.ReturnChance:
		personality = served[b.rng.Intn(len(served))]
		returning = true
	default:
		personality = b.cats.Patrons.Order[b.rng.Intn(len(b.cats.Patrons.Order))]
	}
	def := b.cats.Patrons.ByID[personality]

	if returning {
		b.pushLogf("🔄 %s is back! Welcome back, regular customer!", def.Name)
		b.lastServed[personality] = nowMs
	}

	seat := free[b.rng.Intn(len(free))]
	for _, s := range free {
		if s == def.PreferredStool {
			seat = s
			break
		}
	}

	stats := b.computeStats()
	p := &Patron{
		ID:          b.newPatronID(),
		Personality: personality,
		Name:        def.Name,
		Seat:        seat,
		Returning:   returning,
		Patience:    t.PatienceBase + def.Patience*t.PatienceTraitScale,
		OrderValue:  stats.PricePerGlass * (1 + def.Generosity*0.01 + b.rng.Float64()*t.OrderValueSpread),
		EnteredMs:   nowMs,

		opportunityAt: nowMs + int64(t.OpportunityDelayMs),
	}
	b.patrons[p.ID] = p
	b.patronOrder = append(b.patronOrder, p.ID)
	return true
}

// sysSpawner walks patrons in while the bar is open.
func (b *Bar) sysSpawner(nowMs int64) {
	if !b.open || nowMs < b.nextSpawnMs {
		return
	}
	t := b.cfg.Tuning.Patrons
	b.spawnPatron(nowMs)
	delay := int64(t.SpawnMinMs) + int64(b.rng.Float64()*float64(t.SpawnMaxMs-t.SpawnMinMs))
	if delay < int64(t.SpawnFloorMs) {
		delay = int64(t.SpawnFloorMs)
	}
	b.nextSpawnMs = nowMs + delay
}

// sysOpportunities rolls each seated patron's single opportunity once the
// settle-in delay has passed. Most patrons never order anything.
func (b *Bar) sysOpportunities(nowMs int64) {
	t := b.cfg.Tuning.Patrons
	for _, id := range b.patronOrder {
		p := b.patrons[id]
		if p == nil || p.Leaving || p.rolled || nowMs < p.opportunityAt {
			continue
		}
		p.rolled = true
		if b.rng.Float64() >= t.OpportunityChance {
			continue
		}
		if b.rng.Float64() < t.DilemmaShare {
			p.Opportunity = "moral_dilemma"
		} else {
			kinds := []string{"order", "tip", "special"}
			p.Opportunity = kinds[b.rng.Intn(len(kinds))]
		}
	}
}

// sysPatience decays patience and prunes patrons flagged Leaving on the
// previous pass, so a departing patron is visible for one interval.
func (b *Bar) sysPatience(nowMs int64) {
	t := b.cfg.Tuning.Patrons
	if nowMs-b.lastPatience < int64(t.PatienceEveryMs) {
		return
	}
	b.lastPatience = nowMs

	kept := b.patronOrder[:0]
	for _, id := range b.patronOrder {
		p := b.patrons[id]
		if p == nil {
			continue
		}
		if p.Leaving {
			delete(b.patrons, id)
			continue
		}
		p.Patience -= t.PatienceDecay
		if p.Patience <= 0 {
			p.Patience = 0
			p.Leaving = true
			p.Seat = -1
			p.Opportunity = ""
			if b.quest != nil && b.quest.PatronID == id {
				b.quest = nil
				b.pushLogf("%s ran out of patience and left.", p.Name)
			}
		}
		kept = append(kept, id)
	}
	b.patronOrder = kept
}
