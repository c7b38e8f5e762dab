package indexdb

import (
	"path/filepath"
	"testing"

	"boneyard.bar/internal/protocol"
	"boneyard.bar/internal/sim/bar"
	"boneyard.bar/internal/sim/catalogs"
	"boneyard.bar/internal/sim/tuning"
)

func openTestIndex(t *testing.T, path string) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return idx
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx := openTestIndex(t, path)

	meta := bar.SaveMeta{
		BarID:          "bar-1",
		Tick:           1200,
		LastSaveUnixMs: 1_700_000_000_000,
		Money:          250.5,
		Beer:           80,
		Moral:          64,
		TotalEarned:    3120.25,
		GlassesSold:    712,
		PrestigeLevel:  1,
		PrestigePoints: 3,
	}
	idx.SaveMeta(meta)
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx = openTestIndex(t, path)
	defer idx.Close()

	got, ok, err := idx.LoadSave("bar-1")
	if err != nil {
		t.Fatalf("LoadSave: %v", err)
	}
	if !ok {
		t.Fatal("expected a save row")
	}
	if got != meta {
		t.Fatalf("save mismatch: got %+v want %+v", got, meta)
	}

	if _, ok, err := idx.LoadSave("bar-missing"); err != nil || ok {
		t.Fatalf("missing bar: ok=%v err=%v", ok, err)
	}
}

func TestSaveMetaOverwritesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx := openTestIndex(t, path)

	idx.SaveMeta(bar.SaveMeta{BarID: "bar-1", Tick: 100, Money: 10})
	idx.SaveMeta(bar.SaveMeta{BarID: "bar-1", Tick: 200, Money: 99})
	idx.Close()

	idx = openTestIndex(t, path)
	defer idx.Close()

	got, ok, err := idx.LoadSave("bar-1")
	if err != nil || !ok {
		t.Fatalf("LoadSave: ok=%v err=%v", ok, err)
	}
	if got.Tick != 200 || got.Money != 99 {
		t.Fatalf("expected latest save, got %+v", got)
	}
}

func TestSalesAndAchievements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx := openTestIndex(t, path)

	idx.RecordSale(10, "bier", 4, 19.2)
	idx.RecordSale(10, "wijn", 2, 16)
	idx.RecordSale(50, "bier", 6, 28.8)
	idx.RecordAchievement(12, "first_100")
	idx.RecordAchievement(90, "beer_baron")
	// Unlocks are permanent; a repeat must not produce a second row.
	idx.RecordAchievement(400, "first_100")
	idx.Close()

	idx = openTestIndex(t, path)
	defer idx.Close()

	sales, err := idx.SalesByDrink()
	if err != nil {
		t.Fatalf("SalesByDrink: %v", err)
	}
	if s := sales["bier"]; s.Glasses != 10 || s.Earned != 48 {
		t.Fatalf("bier totals: %+v", s)
	}
	if s := sales["wijn"]; s.Glasses != 2 || s.Earned != 16 {
		t.Fatalf("wijn totals: %+v", s)
	}

	ach, err := idx.UnlockedAchievements()
	if err != nil {
		t.Fatalf("UnlockedAchievements: %v", err)
	}
	if len(ach) != 2 || ach[0] != "first_100" || ach[1] != "beer_baron" {
		t.Fatalf("achievements: %v", ach)
	}
}

func TestWriteTickIndexesCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx := openTestIndex(t, path)

	entry := bar.TickLogEntry{
		Tick:   7,
		Digest: "abc123",
		Commands: []bar.RecordedCommand{
			{SessionID: "s1", Cmd: protocol.CmdMsg{Cmd: protocol.CmdTap}},
			{SessionID: "s2", Cmd: protocol.CmdMsg{Cmd: protocol.CmdSell}},
		},
		Feed: []string{"Upgrade purchased: Faster Production (level 1) for €20.00."},
	}
	if err := idx.WriteTick(entry); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	idx.Close()

	idx = openTestIndex(t, path)
	defer idx.Close()

	n, err := idx.TickCount()
	if err != nil {
		t.Fatalf("TickCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("tick count = %d", n)
	}

	var cmds int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM commands WHERE tick = 7`).Scan(&cmds); err != nil {
		t.Fatalf("count commands: %v", err)
	}
	if cmds != 2 {
		t.Fatalf("commands indexed = %d", cmds)
	}
}

func TestUpsertCatalogs(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tune := tuning.Tuning{}
	tune.ApplyDefaults()

	path := filepath.Join(t.TempDir(), "index.db")
	idx := openTestIndex(t, path)
	defer idx.Close()

	if err := idx.UpsertCatalogs(cats, tune); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	// Re-running must be idempotent, not duplicate rows.
	if err := idx.UpsertCatalogs(cats, tune); err != nil {
		t.Fatalf("UpsertCatalogs again: %v", err)
	}

	rows, err := idx.db.Query(`SELECT name, digest FROM catalogs ORDER BY name`)
	if err != nil {
		t.Fatalf("query catalogs: %v", err)
	}
	defer rows.Close()
	got := map[string]string{}
	for rows.Next() {
		var name, digest string
		if err := rows.Scan(&name, &digest); err != nil {
			t.Fatal(err)
		}
		got[name] = digest
	}
	for _, want := range []string{
		"upgrades", "drinks", "patrons", "moral_events",
		"punishments", "quests", "achievements", "commentary", "tuning",
	} {
		if got[want] == "" {
			t.Fatalf("catalog %q missing (have %v)", want, got)
		}
	}
	if got["upgrades"] != cats.Upgrades.Digest {
		t.Fatalf("upgrades digest mismatch: %s vs %s", got["upgrades"], cats.Upgrades.Digest)
	}
}

func TestClosedIndexDropsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx := openTestIndex(t, path)
	idx.Close()

	// None of these may panic or block after Close.
	idx.RecordSale(1, "bier", 1, 4.8)
	idx.RecordAchievement(1, "first_100")
	idx.SaveMeta(bar.SaveMeta{BarID: "bar-1"})
	if err := idx.WriteTick(bar.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("WriteTick after close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
}
