package bar

import "boneyard.bar/internal/sim/tuning"

// Config carries the per-bar runtime parameters. Gameplay constants live in
// the Tuning block so a partially filled config still runs.
type Config struct {
	ID   string
	Seed int64

	// Wall-clock anchors for offline credit. NowUnixMs is sampled once at
	// construction; the simulation itself advances in ticks only.
	LastSaveUnixMs int64
	NowUnixMs      int64

	// Restore, when set, overlays a previous save onto the fresh bar.
	Restore *SnapshotState

	Tuning tuning.Tuning
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "bar-1"
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	c.Tuning.ApplyDefaults()
}
