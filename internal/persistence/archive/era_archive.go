package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"boneyard.bar/internal/persistence/snapshot"
)

type EraArchiveMeta struct {
	Era            int     `json:"era"`
	Tick           uint64  `json:"tick"`
	Seed           int64   `json:"seed"`
	Snapshot       string  `json:"snapshot"`
	CreatedAt      string  `json:"created_at"`
	PrestigePoints int     `json:"prestige_points"`
	TotalEarned    float64 `json:"total_earned"`
}

// ArchiveEraSnapshot keeps the first snapshot of each prestige era under
// `barDir/archives/era_<NNN>/`. Era N is the run after the Nth prestige, so a
// bar that never prestiged is in era 0 and is not archived. Returns
// archived=false when the era already has a snapshot on disk.
func ArchiveEraSnapshot(barDir, snapshotPath string, snap snapshot.SnapshotV1) (era int, archivedPath string, archived bool, err error) {
	era = snap.State.PrestigeLevel
	if era <= 0 {
		return 0, "", false, nil
	}

	archiveDir := filepath.Join(barDir, "archives", fmt.Sprintf("era_%03d", era))
	if _, err := os.Stat(filepath.Join(archiveDir, "meta.json")); err == nil {
		return era, "", false, nil
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return 0, "", false, err
	}

	meta := EraArchiveMeta{
		Era:            era,
		Tick:           snap.Header.Tick,
		Seed:           snap.Seed,
		Snapshot:       filepath.Base(dst),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
		PrestigePoints: snap.State.PrestigePoints,
		TotalEarned:    snap.State.TotalEarned,
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return era, dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
