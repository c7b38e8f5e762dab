package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"boneyard.bar/internal/sim/bar"
	"boneyard.bar/internal/sim/catalogs"
	"boneyard.bar/internal/sim/tuning"
)

// SQLiteIndex is the queryable read model next to the JSONL tick logs. A
// single writer goroutine owns all inserts; producers enqueue and never
// block the sim loop.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSale
	reqAchievement
	reqSave
)

type req struct {
	kind reqKind

	tick        bar.TickLogEntry
	sale        saleRow
	achievement achievementRow
	save        bar.SaveMeta
}

type saleRow struct {
	Tick    uint64
	DrinkID string
	Glasses int
	Earned  float64
}

type achievementRow struct {
	Tick          uint64
	AchievementID string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Roomy buffer: a feed-heavy tick plus autosave bursts must never
		// stall the sim loop.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			commands INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			cmd_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_session_tick ON commands(session_id, tick);`,
		`CREATE TABLE IF NOT EXISTS sales (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			drink_id TEXT NOT NULL,
			glasses INTEGER NOT NULL,
			earned REAL NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_drink_tick ON sales(drink_id, tick);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			achievement_id TEXT PRIMARY KEY,
			tick INTEGER NOT NULL,
			unlocked_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			bar_id TEXT PRIMARY KEY,
			tick INTEGER NOT NULL,
			last_save_unix_ms INTEGER NOT NULL,
			money REAL NOT NULL,
			beer REAL NOT NULL,
			moral REAL NOT NULL,
			total_earned REAL NOT NULL,
			glasses_sold INTEGER NOT NULL,
			prestige_level INTEGER NOT NULL,
			prestige_points INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry bar.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) RecordSale(tick uint64, drinkID string, glasses int, earned float64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSale, sale: saleRow{Tick: tick, DrinkID: drinkID, Glasses: glasses, Earned: earned}}:
	default:
	}
}

func (s *SQLiteIndex) RecordAchievement(tick uint64, achievementID string) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqAchievement, achievement: achievementRow{Tick: tick, AchievementID: achievementID}}:
	default:
	}
}

func (s *SQLiteIndex) SaveMeta(meta bar.SaveMeta) {
	if s == nil || s.closed.Load() {
		return
	}
	if meta.BarID == "" {
		return
	}
	select {
	case s.ch <- req{kind: reqSave, save: meta}:
	default:
	}
}

// LoadSave reads the last autosave for a bar. Called at boot before the
// writer sees any traffic, so a direct query is fine.
func (s *SQLiteIndex) LoadSave(barID string) (bar.SaveMeta, bool, error) {
	var m bar.SaveMeta
	row := s.db.QueryRow(`SELECT bar_id, tick, last_save_unix_ms, money, beer, moral,
		total_earned, glasses_sold, prestige_level, prestige_points
		FROM saves WHERE bar_id = ?`, barID)
	var tick int64
	err := row.Scan(&m.BarID, &tick, &m.LastSaveUnixMs, &m.Money, &m.Beer, &m.Moral,
		&m.TotalEarned, &m.GlassesSold, &m.PrestigeLevel, &m.PrestigePoints)
	if err == sql.ErrNoRows {
		return bar.SaveMeta{}, false, nil
	}
	if err != nil {
		return bar.SaveMeta{}, false, err
	}
	m.Tick = uint64(tick)
	return m, true, nil
}

// SalesByDrink aggregates lifetime glasses and earnings per drink.
func (s *SQLiteIndex) SalesByDrink() (map[string]struct {
	Glasses int
	Earned  float64
}, error) {
	rows, err := s.db.Query(`SELECT drink_id, SUM(glasses), SUM(earned) FROM sales GROUP BY drink_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]struct {
		Glasses int
		Earned  float64
	}{}
	for rows.Next() {
		var id string
		var glasses int
		var earned float64
		if err := rows.Scan(&id, &glasses, &earned); err != nil {
			return nil, err
		}
		out[id] = struct {
			Glasses int
			Earned  float64
		}{glasses, earned}
	}
	return out, rows.Err()
}

// UnlockedAchievements returns achievement IDs in unlock order.
func (s *SQLiteIndex) UnlockedAchievements() ([]string, error) {
	rows, err := s.db.Query(`SELECT achievement_id FROM achievements ORDER BY tick ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// TickCount reports how many ticks the index has seen.
func (s *SQLiteIndex) TickCount() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ticks`).Scan(&n)
	return n, err
}

// UpsertCatalogs stores the loaded catalog content and digests so a replay
// or dashboard can verify it runs against the same data the bar did.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	add := func(name, digest string, v any) {
		b, err := json.Marshal(v)
		if err != nil || len(b) == 0 {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}

	add("upgrades", cats.Upgrades.Digest, orderedDefs(cats.Upgrades.Order, cats.Upgrades.ByID))
	add("drinks", cats.Drinks.Digest, orderedDefs(cats.Drinks.Order, cats.Drinks.ByID))
	add("patrons", cats.Patrons.Digest, orderedDefs(cats.Patrons.Order, cats.Patrons.ByID))
	add("moral_events", cats.MoralEvents.Digest, orderedDefs(cats.MoralEvents.Order, cats.MoralEvents.ByID))
	add("punishments", cats.Punishments.Digest, cats.Punishments)
	{
		// Canonicalize quest templates to stable JSON for easier querying.
		kinds := make([]string, 0, len(cats.Quests.ByKind))
		for k := range cats.Quests.ByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		ordered := make(map[string][]catalogs.QuestTemplate, len(kinds))
		for _, k := range kinds {
			ordered[k] = cats.Quests.ByKind[k]
		}
		add("quests", cats.Quests.Digest, ordered)
	}
	add("achievements", cats.Achievements.Digest, cats.Achievements.Defs)
	add("commentary", cats.Commentary.Digest, cats.Commentary.Lines)

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func orderedDefs[T any](order []string, byID map[string]T) []T {
	out := make([]T, 0, len(order))
	for _, id := range order {
		if def, ok := byID[id]; ok {
			out = append(out, def)
		}
	}
	return out
}

func (s *SQLiteIndex) loop() {
	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,commands,raw_json) VALUES(?,?,?,?)`)
	insertCommand, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(tick,seq,session_id,cmd_json) VALUES(?,?,?,?)`)
	insertSale, _ := s.db.Prepare(`INSERT OR REPLACE INTO sales(tick,seq,drink_id,glasses,earned) VALUES(?,?,?,?,?)`)
	insertAchievement, _ := s.db.Prepare(`INSERT OR IGNORE INTO achievements(achievement_id,tick,unlocked_at) VALUES(?,?,?)`)
	upsertSave, _ := s.db.Prepare(`INSERT OR REPLACE INTO saves(bar_id,tick,last_save_unix_ms,money,beer,moral,total_earned,glasses_sold,prestige_level,prestige_points) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertCommand, insertSale, insertAchievement, upsertSave} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastSaleTick uint64
		saleSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			b, _ := json.Marshal(r.tick)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					int64(r.tick.Tick),
					r.tick.Digest,
					len(r.tick.Commands),
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for i, c := range r.tick.Commands {
				if insertCommand == nil {
					break
				}
				cmdJSON, _ := json.Marshal(c.Cmd)
				if _, err := tx.Stmt(insertCommand).Exec(int64(r.tick.Tick), i, c.SessionID, string(cmdJSON)); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqSale:
			sl := r.sale
			if sl.Tick != lastSaleTick {
				lastSaleTick = sl.Tick
				saleSeq = 0
			}
			seq := saleSeq
			saleSeq++
			if insertSale != nil {
				if _, err := tx.Stmt(insertSale).Exec(
					int64(sl.Tick),
					seq,
					sl.DrinkID,
					sl.Glasses,
					sl.Earned,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqAchievement:
			a := r.achievement
			if insertAchievement != nil {
				if _, err := tx.Stmt(insertAchievement).Exec(
					a.AchievementID,
					int64(a.Tick),
					time.Now().UTC().Format(time.RFC3339Nano),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSave:
			m := r.save
			if upsertSave != nil {
				if _, err := tx.Stmt(upsertSave).Exec(
					m.BarID,
					int64(m.Tick),
					m.LastSaveUnixMs,
					m.Money,
					m.Beer,
					m.Moral,
					m.TotalEarned,
					m.GlassesSold,
					m.PrestigeLevel,
					m.PrestigePoints,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('last_save_unix_ms',?)`,
				strconv.FormatInt(m.LastSaveUnixMs, 10)); err != nil {
				rollback()
				continue
			}
			opCount++

			// Autosaves are the durability checkpoint; flush them promptly.
			commit()
		}
		flushIfNeeded()
	}

	commit()
}
