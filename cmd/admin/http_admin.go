package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"boneyard.bar/internal/persistence/snapshot"
)

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	fetch(*baseURL, "/admin/v1/state")
}

func salesCmd(args []string) {
	fs := flag.NewFlagSet("sales", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	fetch(*baseURL, "/admin/v1/sales")
}

func fetch(baseURL, path string) {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(string(b))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

// snapshotCmd prints a snapshot file as JSON, or just its header line.
func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	path := fs.String("path", "", "snapshot path (.snap.zst)")
	full := fs.Bool("full", false, "print the full state, not just the summary")
	_ = fs.Parse(args)

	if strings.TrimSpace(*path) == "" {
		fmt.Fprintln(os.Stderr, "missing -path")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}

	if *full {
		b, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Printf("snapshot v%d bar=%s tick=%d seed=%d saved_unix_ms=%d\n",
		snap.Header.Version, snap.Header.BarID, snap.Header.Tick, snap.Seed, snap.SavedUnixMs)
	fmt.Printf("money=%.2f beer=%.1f moral=%.1f total_earned=%.2f glasses_sold=%d prestige=%d/%dpt achievements=%d\n",
		snap.State.Money, snap.State.Beer, snap.State.Moral, snap.State.TotalEarned,
		snap.State.GlassesSold, snap.State.PrestigeLevel, snap.State.PrestigePoints, len(snap.State.Achievements))
}
