package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz     int `yaml:"tick_rate_hz"`
	TickDurationMs int `yaml:"tick_duration_ms"`

	Base      Base      `yaml:"base"`
	Morale    Morale    `yaml:"morale"`
	Patrons   Patrons   `yaml:"patrons"`
	Events    Events    `yaml:"events"`
	Economy   Economy   `yaml:"economy"`
	Prestige  Prestige  `yaml:"prestige"`
	Intervals Intervals `yaml:"intervals"`
}

// Base holds the unmodified stat-engine inputs everything scales from.
type Base struct {
	TapIntervalMs   int     `yaml:"tap_interval_ms"`
	TapAmount       float64 `yaml:"tap_amount"`
	SellIntervalMs  int     `yaml:"sell_interval_ms"`
	SellBatch       float64 `yaml:"sell_batch"`
	GlassCapacity   float64 `yaml:"glass_capacity"`
	MinTapInterval  int     `yaml:"min_tap_interval_ms"`
	SellIntervalMin float64 `yaml:"sell_interval_floor"`
	ManualTapFactor float64 `yaml:"manual_tap_factor"`
	ManualSellMax   int     `yaml:"manual_sell_max"`
}

type Morale struct {
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Start      float64 `yaml:"start"`
	DriftLow   float64 `yaml:"drift_low"`
	DriftHigh  float64 `yaml:"drift_high"`
	DriftStep  float64 `yaml:"drift_step"`
	DriftEvery int     `yaml:"drift_every_ms"`
}

type Patrons struct {
	Stools             int     `yaml:"stools"`
	BaseSeats          int     `yaml:"base_seats"`
	SpawnMinMs         int     `yaml:"spawn_min_ms"`
	SpawnMaxMs         int     `yaml:"spawn_max_ms"`
	SpawnFloorMs       int     `yaml:"spawn_floor_ms"`
	FirstSpawnDelayMs  int     `yaml:"first_spawn_delay_ms"`
	PatienceBase       float64 `yaml:"patience_base"`
	PatienceTraitScale float64 `yaml:"patience_trait_scale"`
	PatienceDecay      float64 `yaml:"patience_decay"`
	PatienceEveryMs    int     `yaml:"patience_every_ms"`
	OpportunityDelayMs int     `yaml:"opportunity_delay_ms"`
	OpportunityChance  float64 `yaml:"opportunity_chance"`
	DilemmaShare       float64 `yaml:"dilemma_share"`
	ReturnAfterMs      int     `yaml:"return_after_ms"`
	ReturnChance       float64 `yaml:"return_chance"`
	OrderValueSpread   float64 `yaml:"order_value_spread"`
	MaxOrdersPerPatron int     `yaml:"max_orders_per_patron"`
}

type Events struct {
	MoralPollMs        int     `yaml:"moral_poll_ms"`
	MoralMinGapMs      int     `yaml:"moral_min_gap_ms"`
	MoralMaxGapMs      int     `yaml:"moral_max_gap_ms"`
	MoralChance        float64 `yaml:"moral_chance"`
	MoralAutoResolveMs int     `yaml:"moral_auto_resolve_ms"`

	PunishPollMs     int     `yaml:"punish_poll_ms"`
	SevereBelow      float64 `yaml:"severe_below"`
	ModerateBelow    float64 `yaml:"moderate_below"`
	SevereGapMinMs   int     `yaml:"severe_gap_min_ms"`
	SevereGapMaxMs   int     `yaml:"severe_gap_max_ms"`
	ModerateGapMinMs int     `yaml:"moderate_gap_min_ms"`
	ModerateGapMaxMs int     `yaml:"moderate_gap_max_ms"`

	GoldenPollMs     int     `yaml:"golden_poll_ms"`
	GoldenChance     float64 `yaml:"golden_chance"`
	GoldenDurationMs int     `yaml:"golden_duration_ms"`
	GoldenTapMult    float64 `yaml:"golden_tap_mult"`
	GoldenPriceMult  float64 `yaml:"golden_price_mult"`
}

type Economy struct {
	OpCostPollMs   int     `yaml:"op_cost_poll_ms"`
	OpCostEveryMs  int     `yaml:"op_cost_every_ms"`
	StockCostBase  float64 `yaml:"stock_cost_base"`
	WageCostBase   float64 `yaml:"wage_cost_base"`
	TaxCostBase    float64 `yaml:"tax_cost_base"`
	AutoUpPollMs   int     `yaml:"auto_upgrade_poll_ms"`
	AutoUpMargin   float64 `yaml:"auto_upgrade_margin"`
	AutoUpChance   float64 `yaml:"auto_upgrade_chance_per_level"`
	CommentaryMs   int     `yaml:"commentary_ms"`
	LogFeedEntries int     `yaml:"log_feed_entries"`
}

type Prestige struct {
	Threshold       float64 `yaml:"threshold"`
	PointMultiplier float64 `yaml:"point_multiplier"`
	OfflineCapMin   int     `yaml:"offline_cap_minutes"`
	OfflineMinMin   int     `yaml:"offline_min_minutes"`
	AutosaveMs      int     `yaml:"autosave_ms"`
}

type Intervals struct {
	AchievementPollMs int `yaml:"achievement_poll_ms"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	return t, nil
}

// ApplyDefaults fills any zero field with the shipped value so a partial
// tuning file still yields a playable bar.
func (t *Tuning) ApplyDefaults() {
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = "bar-proto-1"
	}
	if t.TickRateHz == 0 {
		t.TickRateHz = 10
	}
	if t.TickDurationMs == 0 {
		t.TickDurationMs = 1000 / t.TickRateHz
	}

	b := &t.Base
	setInt(&b.TapIntervalMs, 1000)
	setF(&b.TapAmount, 1)
	setInt(&b.SellIntervalMs, 4000)
	setF(&b.SellBatch, 4)
	setF(&b.GlassCapacity, 20)
	setInt(&b.MinTapInterval, 300)
	setF(&b.SellIntervalMin, 0.3)
	setF(&b.ManualTapFactor, 0.8)
	setInt(&b.ManualSellMax, 6)

	m := &t.Morale
	setF(&m.Max, 130)
	setF(&m.Start, 70)
	setF(&m.DriftLow, 68)
	setF(&m.DriftHigh, 72)
	setF(&m.DriftStep, 0.3)
	setInt(&m.DriftEvery, 4000)

	p := &t.Patrons
	setInt(&p.Stools, 6)
	setInt(&p.BaseSeats, 3)
	setInt(&p.SpawnMinMs, 15000)
	setInt(&p.SpawnMaxMs, 25000)
	setInt(&p.SpawnFloorMs, 8000)
	setInt(&p.FirstSpawnDelayMs, 5000)
	setF(&p.PatienceBase, 50)
	setF(&p.PatienceTraitScale, 0.5)
	setF(&p.PatienceDecay, 0.5)
	setInt(&p.PatienceEveryMs, 200)
	setInt(&p.OpportunityDelayMs, 800)
	setF(&p.OpportunityChance, 0.12)
	setF(&p.DilemmaShare, 0.3)
	setInt(&p.ReturnAfterMs, 4*60*1000)
	setF(&p.ReturnChance, 0.3)
	setF(&p.OrderValueSpread, 0.3)
	setInt(&p.MaxOrdersPerPatron, 2)

	e := &t.Events
	setInt(&e.MoralPollMs, 5000)
	setInt(&e.MoralMinGapMs, 2*60*1000)
	setInt(&e.MoralMaxGapMs, 5*60*1000)
	setF(&e.MoralChance, 0.35)
	setInt(&e.MoralAutoResolveMs, 3000)
	setInt(&e.PunishPollMs, 5000)
	setF(&e.SevereBelow, 20)
	setF(&e.ModerateBelow, 40)
	setInt(&e.SevereGapMinMs, 15000)
	setInt(&e.SevereGapMaxMs, 25000)
	setInt(&e.ModerateGapMinMs, 30000)
	setInt(&e.ModerateGapMaxMs, 45000)
	setInt(&e.GoldenPollMs, 10000)
	setF(&e.GoldenChance, 0.01)
	setInt(&e.GoldenDurationMs, 30000)
	setF(&e.GoldenTapMult, 3)
	setF(&e.GoldenPriceMult, 2)

	ec := &t.Economy
	setInt(&ec.OpCostPollMs, 5000)
	setInt(&ec.OpCostEveryMs, 60000)
	setF(&ec.StockCostBase, 2)
	setF(&ec.WageCostBase, 3)
	setF(&ec.TaxCostBase, 1.5)
	setInt(&ec.AutoUpPollMs, 5000)
	setF(&ec.AutoUpMargin, 2)
	setF(&ec.AutoUpChance, 0.1)
	setInt(&ec.CommentaryMs, 4000)
	setInt(&ec.LogFeedEntries, 15)

	pr := &t.Prestige
	setF(&pr.Threshold, 10000)
	setF(&pr.PointMultiplier, 0.1)
	setInt(&pr.OfflineCapMin, 480)
	setInt(&pr.OfflineMinMin, 1)
	setInt(&pr.AutosaveMs, 10000)

	setInt(&t.Intervals.AchievementPollMs, 1000)
}

func setInt(p *int, v int) {
	if *p == 0 {
		*p = v
	}
}

func setF(p *float64, v float64) {
	if *p == 0 {
		*p = v
	}
}
