package bar

import (
	"math/rand"
	"sync/atomic"

	"boneyard.bar/internal/protocol"
	"boneyard.bar/internal/sim/catalogs"
)

type JoinRequest struct {
	SessionID    string
	ClientName   string
	WantCatalogs bool
	Out          chan []byte
	Resp         chan JoinResponse
}

type JoinResponse struct {
	Welcome  protocol.WelcomeMsg
	Catalogs []protocol.CatalogMsg
}

type CmdEnvelope struct {
	SessionID string
	Cmd       protocol.CmdMsg
	Resp      chan protocol.AckMsg
}

type RecordedCommand struct {
	SessionID string          `json:"session_id"`
	Cmd       protocol.CmdMsg `json:"cmd"`
}

// TickLogger receives one entry per simulated tick. Implementations live in
// internal/persistence and must not block the loop.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick     uint64            `json:"tick"`
	Commands []RecordedCommand `json:"commands,omitempty"`
	// Feed holds only the lines emitted during this tick.
	Feed   []string `json:"feed,omitempty"`
	Digest string   `json:"digest"`
}

// Index receives durable read-model updates (sales, achievements, autosave
// meta). Implementations live in internal/persistence and queue internally.
type Index interface {
	RecordSale(tick uint64, drinkID string, glasses int, earned float64)
	RecordAchievement(tick uint64, achievementID string)
	SaveMeta(meta SaveMeta)
}

// SaveMeta is the autosave snapshot the index persists. Restoring a bar means
// feeding LastSaveUnixMs back through Config for offline credit.
type SaveMeta struct {
	BarID          string
	Tick           uint64
	LastSaveUnixMs int64
	Money          float64
	Beer           float64
	Moral          float64
	TotalEarned    float64
	GlassesSold    int
	PrestigeLevel  int
	PrestigePoints int
}

type drinkState struct {
	Unlocked bool
	Level    int
}

// Patron is one customer in the bar. Seat is -1 while walking; a patron
// flagged Leaving is removed on the next patience pass.
type Patron struct {
	ID          string
	Personality string
	Name        string
	Seat        int
	Leaving     bool
	Returning   bool

	Opportunity   string // "", "order", "tip", "special", "complaint", "moral_dilemma"
	opportunityAt int64  // ms; roll happens once when reached
	rolled        bool

	Patience     float64
	OrderValue   float64
	TimesOrdered int
	EnteredMs    int64
}

type activeQuest struct {
	PatronID string
	Kind     string
	Template catalogs.QuestTemplate
	Title    string
	Prompt   string
	Choices  []string // rendered choice texts
}

type activeMoralEvent struct {
	EventID string
	ShownMs int64
}

type clientState struct {
	Out chan []byte
}

// Bar is a single-threaded authoritative simulation of one establishment.
// All state must be accessed only from the bar loop goroutine.
type Bar struct {
	cfg  Config
	cats *catalogs.Catalogs

	tick atomic.Uint64
	rng  *rand.Rand

	open bool

	beer        float64
	money       float64
	moral       float64
	totalEarned float64
	glassesSold int

	patronsServed int
	moralChoices  int

	prestigePoints int
	prestigeLevel  int

	activeDrink string
	drinks      map[string]*drinkState
	upgrades    map[string]int

	patrons     map[string]*Patron
	patronOrder []string
	// last quest resolution per personality, ms; drives returning patrons
	lastServed map[string]int64

	quest      *activeQuest
	moralEvent *activeMoralEvent

	achievements   map[string]bool
	achievementLog []string

	feed            []string
	tickFeed        []string
	commentary      string
	commentaryUntil int64

	goldenActive bool
	goldenUntil  int64

	// schedule anchors, all in simulated ms
	lastTap        int64
	lastAutoSell   int64
	lastDrift      int64
	lastPatience   int64
	lastMoralPoll  int64
	lastMoralEvent int64
	lastPunishPoll int64
	lastPunish     int64
	lastGoldenPoll int64
	lastAutoUpPoll int64
	lastOpPoll     int64
	lastOpCharge   int64
	lastAchPoll    int64
	lastAutosave   int64
	nextSpawnMs    int64

	offline *protocol.OfflineReport

	inbox chan CmdEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	clients map[string]*clientState

	nextPatronNum atomic.Uint64

	// loop-owned, mirrored atomically for /metrics readers
	clientCount atomic.Int64
	stepMicros  atomic.Int64

	// Optional sinks (may be nil). Implemented in internal/persistence/*.
	tickLogger TickLogger
	index      Index
	snapshots  chan<- SnapshotEnvelope
}

func New(cfg Config, cats *catalogs.Catalogs) *Bar {
	cfg.applyDefaults()
	b := &Bar{
		cfg:  cfg,
		cats: cats,
		rng:  rand.New(rand.NewSource(cfg.Seed)),

		open:  true,
		moral: cfg.Tuning.Morale.Start,

		drinks:   map[string]*drinkState{},
		upgrades: map[string]int{},

		patrons:    map[string]*Patron{},
		lastServed: map[string]int64{},

		achievements: map[string]bool{},

		inbox:   make(chan CmdEnvelope, 256),
		join:    make(chan JoinRequest, 8),
		leave:   make(chan string, 8),
		stop:    make(chan struct{}),
		clients: map[string]*clientState{},
	}

	for _, id := range cats.Drinks.Order {
		def := cats.Drinks.ByID[id]
		b.drinks[id] = &drinkState{Unlocked: def.Unlocked}
	}
	b.activeDrink = cats.Drinks.Order[0]
	for _, id := range cats.Upgrades.Order {
		b.upgrades[id] = 0
	}

	b.nextSpawnMs = int64(cfg.Tuning.Patrons.FirstSpawnDelayMs)

	if cfg.Restore != nil {
		b.restoreSnapshot(cfg.Restore)
	}
	b.creditOffline()
	return b
}

// Join registers a session with the running loop and blocks until the tick
// boundary applies it.
func (b *Bar) Join(req JoinRequest) JoinResponse {
	resp := make(chan JoinResponse, 1)
	req.Resp = resp
	b.join <- req
	return <-resp
}

func (b *Bar) Leave(sessionID string) {
	b.leave <- sessionID
}

// Submit queues a command for the next tick boundary. The ack arrives on
// env.Resp after the command is applied.
func (b *Bar) Submit(env CmdEnvelope) {
	b.inbox <- env
}

func (b *Bar) AttachTickLogger(l TickLogger) { b.tickLogger = l }
func (b *Bar) AttachIndex(ix Index)          { b.index = ix }

func (b *Bar) joinClient(req JoinRequest) JoinResponse {
	if req.Out != nil {
		if _, ok := b.clients[req.SessionID]; !ok {
			b.clientCount.Add(1)
		}
		b.clients[req.SessionID] = &clientState{Out: req.Out}
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       req.SessionID,
		BarParams: protocol.BarParams{
			TickRateHz: b.cfg.Tuning.TickRateHz,
			Seed:       b.cfg.Seed,
			Stools:     b.cfg.Tuning.Patrons.Stools,
		},
		Catalogs: protocol.CatalogDigests{
			UpgradesDigest:     b.cats.Upgrades.Digest,
			DrinksDigest:       b.cats.Drinks.Digest,
			PatronsDigest:      b.cats.Patrons.Digest,
			MoralEventsDigest:  b.cats.MoralEvents.Digest,
			PunishmentsDigest:  b.cats.Punishments.Digest,
			QuestsDigest:       b.cats.Quests.Digest,
			AchievementsDigest: b.cats.Achievements.Digest,
			CommentaryDigest:   b.cats.Commentary.Digest,
		},
		OfflineReport: b.offline,
	}

	var catMsgs []protocol.CatalogMsg
	if req.WantCatalogs {
		catMsgs = b.buildCatalogMsgs()
	}
	return JoinResponse{Welcome: welcome, Catalogs: catMsgs}
}

func (b *Bar) buildCatalogMsgs() []protocol.CatalogMsg {
	mk := func(name, digest string, data interface{}) protocol.CatalogMsg {
		return protocol.CatalogMsg{
			Type:            protocol.TypeCatalog,
			ProtocolVersion: protocol.Version,
			Name:            name,
			Digest:          digest,
			Data:            data,
		}
	}
	return []protocol.CatalogMsg{
		mk("upgrades", b.cats.Upgrades.Digest, b.cats.Upgrades.ByID),
		mk("drinks", b.cats.Drinks.Digest, b.cats.Drinks.ByID),
		mk("patrons", b.cats.Patrons.Digest, b.cats.Patrons.ByID),
		mk("moral_events", b.cats.MoralEvents.Digest, b.cats.MoralEvents.ByID),
		mk("punishments", b.cats.Punishments.Digest, map[string][]catalogs.PunishmentDef{
			"moderate": b.cats.Punishments.Moderate,
			"severe":   b.cats.Punishments.Severe,
		}),
		mk("quests", b.cats.Quests.Digest, b.cats.Quests.ByKind),
		mk("achievements", b.cats.Achievements.Digest, b.cats.Achievements.Defs),
		mk("commentary", b.cats.Commentary.Digest, b.cats.Commentary.Lines),
	}
}

func (b *Bar) level(upgradeID string) int {
	return b.upgrades[upgradeID]
}

func (b *Bar) nowMs() int64 {
	return int64(b.tick.Load()) * int64(b.cfg.Tuning.TickDurationMs)
}
