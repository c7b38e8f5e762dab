package bar

// SnapshotState is the durable part of a bar: everything a player would
// expect to survive a restart. Patrons, open quests and running events are
// transient and respawn from the seed after a restore.
type SnapshotState struct {
	Open bool `json:"open"`

	Beer        float64 `json:"beer"`
	Money       float64 `json:"money"`
	Moral       float64 `json:"moral"`
	TotalEarned float64 `json:"total_earned"`
	GlassesSold int     `json:"glasses_sold"`

	PatronsServed int `json:"patrons_served"`
	MoralChoices  int `json:"moral_choices"`

	PrestigePoints int `json:"prestige_points"`
	PrestigeLevel  int `json:"prestige_level"`

	ActiveDrink string                   `json:"active_drink"`
	Upgrades    map[string]int           `json:"upgrades"`
	Drinks      map[string]DrinkSnapshot `json:"drinks"`

	// per-personality last quest resolution, simulated ms
	LastServed map[string]int64 `json:"last_served,omitempty"`

	// unlock order
	Achievements []string `json:"achievements,omitempty"`

	Feed []string `json:"feed,omitempty"`
}

type DrinkSnapshot struct {
	Unlocked bool `json:"unlocked"`
	Level    int  `json:"level"`
}

// SnapshotEnvelope pairs the state with its position on the timeline.
type SnapshotEnvelope struct {
	Tick        uint64
	SavedUnixMs int64
	State       SnapshotState
}

// ExportSnapshot copies the durable state. Loop goroutine only.
func (b *Bar) ExportSnapshot() SnapshotState {
	s := SnapshotState{
		Open:           b.open,
		Beer:           b.beer,
		Money:          b.money,
		Moral:          b.moral,
		TotalEarned:    b.totalEarned,
		GlassesSold:    b.glassesSold,
		PatronsServed:  b.patronsServed,
		MoralChoices:   b.moralChoices,
		PrestigePoints: b.prestigePoints,
		PrestigeLevel:  b.prestigeLevel,
		ActiveDrink:    b.activeDrink,
		Upgrades:       make(map[string]int, len(b.upgrades)),
		Drinks:         make(map[string]DrinkSnapshot, len(b.drinks)),
		LastServed:     make(map[string]int64, len(b.lastServed)),
		Achievements:   append([]string(nil), b.achievementLog...),
		Feed:           append([]string(nil), b.feed...),
	}
	for id, lvl := range b.upgrades {
		s.Upgrades[id] = lvl
	}
	for id, d := range b.drinks {
		s.Drinks[id] = DrinkSnapshot{Unlocked: d.Unlocked, Level: d.Level}
	}
	for id, ms := range b.lastServed {
		s.LastServed[id] = ms
	}
	return s
}

// restoreSnapshot overlays saved state onto a freshly constructed bar. Runs
// from New before the loop starts and before offline credit, so the credit
// rate reflects the restored upgrades.
func (b *Bar) restoreSnapshot(s *SnapshotState) {
	b.open = s.Open
	b.beer = s.Beer
	b.money = s.Money
	b.moral = s.Moral
	b.totalEarned = s.TotalEarned
	b.glassesSold = s.GlassesSold
	b.patronsServed = s.PatronsServed
	b.moralChoices = s.MoralChoices
	b.prestigePoints = s.PrestigePoints
	b.prestigeLevel = s.PrestigeLevel

	for id, lvl := range s.Upgrades {
		if _, ok := b.cats.Upgrades.ByID[id]; ok {
			b.upgrades[id] = lvl
		}
	}
	for id, ds := range s.Drinks {
		if d, ok := b.drinks[id]; ok {
			d.Unlocked = ds.Unlocked
			d.Level = ds.Level
		}
	}
	if _, ok := b.drinks[s.ActiveDrink]; ok && s.ActiveDrink != "" {
		b.activeDrink = s.ActiveDrink
	}
	for id, ms := range s.LastServed {
		b.lastServed[id] = ms
	}
	for _, id := range s.Achievements {
		if _, ok := b.cats.Achievements.ByID[id]; !ok {
			continue
		}
		if !b.achievements[id] {
			b.achievements[id] = true
			b.achievementLog = append(b.achievementLog, id)
		}
	}
	b.feed = append([]string(nil), s.Feed...)
}

// SetSnapshotSink registers a channel that receives a full state export on
// every autosave. Sends never block; a slow consumer just misses one.
func (b *Bar) SetSnapshotSink(ch chan<- SnapshotEnvelope) {
	b.snapshots = ch
}
