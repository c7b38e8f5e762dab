package bar

// statValue resolves the stat names the achievement catalog may reference.
func (b *Bar) statValue(stat string) (float64, bool) {
	switch stat {
	case "glasses_sold":
		return float64(b.glassesSold), true
	case "total_earned":
		return b.totalEarned, true
	case "moral":
		return b.moral, true
	case "prestige_level":
		return float64(b.prestigeLevel), true
	case "max_upgrade_level":
		max := 0
		for _, lvl := range b.upgrades {
			if lvl > max {
				max = lvl
			}
		}
		return float64(max), true
	case "patrons_served":
		return float64(b.patronsServed), true
	case "moral_choices":
		return float64(b.moralChoices), true
	case "drinks_unlocked":
		n := 0
		for _, st := range b.drinks {
			if st.Unlocked {
				n++
			}
		}
		return float64(n), true
	default:
		return 0, false
	}
}

// sysAchievements unlocks in catalog order. Achievements are permanent:
// prestige resets do not take them back.
func (b *Bar) sysAchievements(nowTick uint64, nowMs int64) {
	if nowMs-b.lastAchPoll < int64(b.cfg.Tuning.Intervals.AchievementPollMs) {
		return
	}
	b.lastAchPoll = nowMs

	for _, def := range b.cats.Achievements.Defs {
		if b.achievements[def.ID] {
			continue
		}
		v, ok := b.statValue(def.Stat)
		if !ok {
			continue
		}
		if def.Gte != nil && v < *def.Gte {
			continue
		}
		if def.Lte != nil && v > *def.Lte {
			continue
		}
		b.achievements[def.ID] = true
		b.achievementLog = append(b.achievementLog, def.ID)
		b.pushLog("🏆 " + def.Message)
		if b.index != nil {
			b.index.RecordAchievement(nowTick, def.ID)
		}
	}
}
