package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// dbCmd runs read-only queries against a bar's index db. The query name is
// the first positional arg: saves (default), sales, achievements, ticks,
// commands, catalogs.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	barID := fs.String("bar", "", "bar id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "saves"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*barID) == "" {
			fmt.Fprintln(os.Stderr, "missing -bar or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "bars", *barID, "index.db")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	var query string
	switch q {
	case "saves":
		query = `SELECT bar_id, tick, last_save_unix_ms, money, beer, moral, prestige_level, prestige_points FROM saves`
	case "sales":
		query = fmt.Sprintf(`SELECT drink_id, SUM(glasses) AS glasses, SUM(earned) AS earned FROM sales GROUP BY drink_id ORDER BY earned DESC LIMIT %d`, *limit)
	case "achievements":
		query = fmt.Sprintf(`SELECT achievement_id, tick, unlocked_at FROM achievements ORDER BY tick LIMIT %d`, *limit)
	case "ticks":
		query = fmt.Sprintf(`SELECT tick, digest, commands FROM ticks ORDER BY tick DESC LIMIT %d`, *limit)
	case "commands":
		query = fmt.Sprintf(`SELECT tick, seq, session_id, cmd_json FROM commands ORDER BY tick DESC, seq LIMIT %d`, *limit)
	case "catalogs":
		query = `SELECT name, digest, updated_at FROM catalogs ORDER BY name`
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		os.Exit(2)
	}

	rows, err := db.Query(query)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		fmt.Fprintln(os.Stderr, "columns:", err)
		os.Exit(1)
	}
	fmt.Println(strings.Join(cols, "\t"))
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		parts := make([]string, len(cols))
		for i, v := range vals {
			switch t := v.(type) {
			case []byte:
				parts[i] = string(t)
			case nil:
				parts[i] = ""
			default:
				parts[i] = fmt.Sprint(t)
			}
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}
