package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"boneyard.bar/internal/persistence/archive"
	"boneyard.bar/internal/persistence/indexdb"
	persistlog "boneyard.bar/internal/persistence/log"
	"boneyard.bar/internal/persistence/s3mirror"
	"boneyard.bar/internal/persistence/snapshot"
	"boneyard.bar/internal/sim/bar"
	"boneyard.bar/internal/sim/catalogs"
	"boneyard.bar/internal/sim/tuning"
	"boneyard.bar/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		barID      = flag.String("bar", "bar-1", "bar id")
		seed       = flag.Int64("seed", 1337, "bar seed (used only when starting a fresh bar)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (ticks + sales + achievements + saves)")
		freshStart = flag.Bool("fresh", false, "ignore any previous save in the index db")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	barDir := filepath.Join(*dataDir, "bars", *barID)
	_ = os.MkdirAll(barDir, 0o755)

	// Read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(barDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	cfg := bar.Config{
		ID:        *barID,
		Seed:      *seed,
		Tuning:    tune,
		NowUnixMs: time.Now().UnixMilli(),
	}
	snapDir := filepath.Join(barDir, "snapshots")
	if !*freshStart {
		if p := snapshot.Latest(snapDir); p != "" {
			snap, err := snapshot.ReadSnapshot(p)
			if err != nil {
				logger.Fatalf("read snapshot %s: %v", p, err)
			}
			if snap.Header.BarID != "" && snap.Header.BarID != *barID {
				logger.Fatalf("snapshot bar id mismatch: flag=%s snap=%s", *barID, snap.Header.BarID)
			}
			cfg.Restore = &snap.State
			cfg.LastSaveUnixMs = snap.SavedUnixMs
			if snap.Seed != 0 {
				cfg.Seed = snap.Seed
			}
			logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(p), snap.Header.Tick)
		} else if idx != nil {
			// No snapshot yet; the index save still anchors offline credit.
			if save, ok, err := idx.LoadSave(*barID); err != nil {
				logger.Printf("index: load save: %v", err)
			} else if ok {
				cfg.LastSaveUnixMs = save.LastSaveUnixMs
				logger.Printf("last save tick=%d saved_at=%s", save.Tick,
					time.UnixMilli(save.LastSaveUnixMs).UTC().Format(time.RFC3339))
			}
		}
	}

	b := bar.New(cfg, cats)

	mirror := buildMirror(*dataDir, logger)
	defer mirror.Close()

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(barDir)
	feedLog := persistlog.NewFeedLogger(barDir)
	defer tickLog.Close()
	defer feedLog.Close()
	b.AttachTickLogger(multiTickLogger{jsonl: tickLog, feed: feedLog, idx: idx})
	if idx != nil {
		b.AttachIndex(idx)
	}

	// Snapshot writer. The sim exports on every autosave; each export is a
	// fresh file keyed by tick, with the newest prestige era archived once.
	snapCh := make(chan bar.SnapshotEnvelope, 2)
	b.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case env := <-snapCh:
				snap := snapshot.SnapshotV1{
					Header:      snapshot.Header{Version: snapshot.Version, BarID: *barID, Tick: env.Tick},
					Seed:        cfg.Seed,
					SavedUnixMs: env.SavedUnixMs,
					State:       env.State,
				}
				path := filepath.Join(snapDir, fmt.Sprintf("%d.snap.zst", env.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				mirror.Enqueue(path)

				if _, archivedPath, ok, err := archive.ArchiveEraSnapshot(barDir, path, snap); err != nil {
					logger.Printf("archive era snapshot: %v", err)
				} else if ok {
					mirror.Enqueue(archivedPath)
					mirror.Enqueue(filepath.Join(filepath.Dir(archivedPath), "meta.json"))
				}
			}
		}
	}()

	go func() {
		if err := b.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("bar stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := b.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP boneyard_bar_tick Current bar tick.\n")
		fmt.Fprintf(rw, "# TYPE boneyard_bar_tick gauge\n")
		fmt.Fprintf(rw, "boneyard_bar_tick{bar=%q} %d\n", *barID, m.Tick)

		fmt.Fprintf(rw, "# HELP boneyard_bar_clients Current number of connected clients.\n")
		fmt.Fprintf(rw, "# TYPE boneyard_bar_clients gauge\n")
		fmt.Fprintf(rw, "boneyard_bar_clients{bar=%q} %d\n", *barID, m.Clients)

		fmt.Fprintf(rw, "# HELP boneyard_bar_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE boneyard_bar_queue_depth gauge\n")
		fmt.Fprintf(rw, "boneyard_bar_queue_depth{bar=%q,queue=%q} %d\n", *barID, "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "boneyard_bar_queue_depth{bar=%q,queue=%q} %d\n", *barID, "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "boneyard_bar_queue_depth{bar=%q,queue=%q} %d\n", *barID, "leave", m.QueueDepths.Leave)

		fmt.Fprintf(rw, "# HELP boneyard_bar_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE boneyard_bar_step_ms gauge\n")
		fmt.Fprintf(rw, "boneyard_bar_step_ms{bar=%q} %.3f\n", *barID, m.StepMS)

		if mirror != nil {
			s := mirror.Stats()
			fmt.Fprintf(rw, "# HELP boneyard_mirror_queue_depth Current mirror queue depth.\n")
			fmt.Fprintf(rw, "# TYPE boneyard_mirror_queue_depth gauge\n")
			fmt.Fprintf(rw, "boneyard_mirror_queue_depth %d\n", s.QueueDepth)
			fmt.Fprintf(rw, "# HELP boneyard_mirror_uploaded_total Files mirrored successfully.\n")
			fmt.Fprintf(rw, "# TYPE boneyard_mirror_uploaded_total counter\n")
			fmt.Fprintf(rw, "boneyard_mirror_uploaded_total %d\n", s.Uploaded)
			fmt.Fprintf(rw, "# HELP boneyard_mirror_failed_total Files that failed to mirror after retries.\n")
			fmt.Fprintf(rw, "# TYPE boneyard_mirror_failed_total counter\n")
			fmt.Fprintf(rw, "boneyard_mirror_failed_total %d\n", s.Failed)
			fmt.Fprintf(rw, "# HELP boneyard_mirror_dropped_total Files skipped because the queue was full.\n")
			fmt.Fprintf(rw, "# TYPE boneyard_mirror_dropped_total counter\n")
			fmt.Fprintf(rw, "boneyard_mirror_dropped_total %d\n", s.Dropped)
		}
	})

	enableAdminHTTP := envBool("BB_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("BB_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				BarID   string         `json:"bar_id"`
				Tick    uint64         `json:"tick"`
				Metrics bar.BarMetrics `json:"metrics"`
			}{
				BarID:   *barID,
				Tick:    b.CurrentTick(),
				Metrics: b.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/sales", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			if idx == nil {
				http.Error(rw, "index disabled", http.StatusServiceUnavailable)
				return
			}
			sales, err := idx.SalesByDrink()
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(sales)
		})
		mux.HandleFunc("/admin/v1/achievements", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			if idx == nil {
				http.Error(rw, "index disabled", http.StatusServiceUnavailable)
				return
			}
			ach, err := idx.UnlockedAchievements()
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(ach)
		})
	} else {
		logger.Printf("admin endpoints disabled (BB_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (BB_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(b, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("bar=%s listening on %s", *barID, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(name string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// buildMirror reads the BB_S3_* environment and returns nil when mirroring
// is not configured. A nil mirror is safe to use; every method no-ops.
func buildMirror(dataDir string, logger *log.Logger) *s3mirror.Mirror {
	endpoint := strings.TrimSpace(os.Getenv("BB_S3_ENDPOINT"))
	bucket := strings.TrimSpace(os.Getenv("BB_S3_BUCKET"))
	if endpoint == "" && bucket == "" {
		return nil
	}
	m, err := s3mirror.New(s3mirror.Config{
		Endpoint:        endpoint,
		Bucket:          bucket,
		AccessKeyID:     os.Getenv("BB_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("BB_S3_SECRET_ACCESS_KEY"),
		DataDir:         dataDir,
		Prefix:          os.Getenv("BB_S3_PREFIX"),
	}, logger)
	if err != nil {
		logger.Fatalf("init s3 mirror: %v", err)
	}
	logger.Printf("s3 mirror enabled bucket=%s", bucket)
	return m
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

// multiTickLogger fans a tick entry out to the JSONL archive, the feed
// archive and the SQLite index. Any sink may be nil.
type multiTickLogger struct {
	jsonl *persistlog.TickLogger
	feed  *persistlog.FeedLogger
	idx   *indexdb.SQLiteIndex
}

func (m multiTickLogger) WriteTick(entry bar.TickLogEntry) error {
	if m.jsonl != nil {
		_ = m.jsonl.WriteTick(entry)
	}
	if m.feed != nil && len(entry.Feed) > 0 {
		_ = m.feed.WriteFeed(persistlog.FeedEntry{Tick: entry.Tick, Lines: entry.Feed})
	}
	if m.idx != nil {
		_ = m.idx.WriteTick(entry)
	}
	return nil
}
