package protocol

// STATE (server -> client): the derived read-only view published per tick
// batch. Everything a client renders comes from here.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Bar          BarObs         `json:"bar"`
	Stats        StatsObs       `json:"stats"`
	Upgrades     []UpgradeObs   `json:"upgrades"`
	Drinks       []DrinkObs     `json:"drinks"`
	Patrons      []PatronObs    `json:"patrons"`
	Quest        *QuestObs      `json:"quest,omitempty"`
	MoralEvent   *MoralEventObs `json:"moral_event,omitempty"`
	Log          []string       `json:"log"`
	Commentary   string         `json:"commentary,omitempty"`
	Achievements []string       `json:"achievements"`
}

type BarObs struct {
	Open           bool    `json:"open"`
	Beer           float64 `json:"beer"`
	Money          float64 `json:"money"`
	Moral          float64 `json:"moral"`
	TotalEarned    float64 `json:"total_earned"`
	GlassesSold    float64 `json:"glasses_sold"`
	PatronsServed  int     `json:"patrons_served"`
	MoralChoices   int     `json:"moral_choices"`
	PrestigePoints int     `json:"prestige_points"`
	PrestigeLevel  int     `json:"prestige_level"`
	ActiveDrink    string  `json:"active_drink"`
	GoldenActive   bool    `json:"golden_active"`
	GoldenEndsTick uint64  `json:"golden_ends_tick,omitempty"`
}

// StatsObs mirrors the derived stat snapshot.
type StatsObs struct {
	TapIntervalMs      float64 `json:"tap_interval_ms"`
	TapPerTick         float64 `json:"tap_per_tick"`
	PricePerGlass      float64 `json:"price_per_glass"`
	AutoSellIntervalMs float64 `json:"auto_sell_interval_ms"`
	AutoSellBatch      float64 `json:"auto_sell_batch"`
	MoralEffective     float64 `json:"moral_effective"`
	PrestigeMult       float64 `json:"prestige_mult"`
	DrinkCapacity      float64 `json:"drink_capacity"`
}

type UpgradeObs struct {
	ID       string  `json:"id"`
	Level    int     `json:"level"`
	NextCost float64 `json:"next_cost"`
	Maxed    bool    `json:"maxed,omitempty"`
}

type DrinkObs struct {
	ID       string `json:"id"`
	Unlocked bool   `json:"unlocked"`
}

type PatronObs struct {
	ID           string  `json:"id"`
	Personality  string  `json:"personality"`
	Name         string  `json:"name"`
	Seat         int     `json:"seat"` // -1 while walking in
	Walking      bool    `json:"walking,omitempty"`
	Opportunity  string  `json:"opportunity,omitempty"`
	Patience     float64 `json:"patience"`
	OrderValue   float64 `json:"order_value"`
	TimesOrdered int     `json:"times_ordered"`
	Returning    bool    `json:"returning,omitempty"`
}

type QuestObs struct {
	PatronID string      `json:"patron_id"`
	Kind     string      `json:"kind"`
	Title    string      `json:"title"`
	Prompt   string      `json:"prompt"`
	Choices  []ChoiceObs `json:"choices"`
}

type MoralEventObs struct {
	EventID     string      `json:"event_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Choices     []ChoiceObs `json:"choices"`
}

type ChoiceObs struct {
	Text string `json:"text"`
}
