package bar

import "boneyard.bar/internal/protocol"

// creditOffline grants beer for wall-clock time between the last autosave and
// construction. Runs once from New, before the loop starts, using base-rate
// stats so the credit is independent of anything that happens afterwards.
func (b *Bar) creditOffline() {
	last := b.cfg.LastSaveUnixMs
	now := b.cfg.NowUnixMs
	if last <= 0 || now <= last {
		return
	}
	minutes := (now - last) / 60000
	if minutes <= int64(b.cfg.Tuning.Prestige.OfflineMinMin) {
		return
	}
	capped := false
	if cap := int64(b.cfg.Tuning.Prestige.OfflineCapMin); minutes > cap {
		minutes = cap
		capped = true
	}

	stats := b.computeStats()
	perSecond := stats.TapPerTick / (stats.TapIntervalMs / 1000)
	credit := perSecond * float64(minutes*60)
	if credit <= 0 {
		return
	}

	b.beer += credit
	b.offline = &protocol.OfflineReport{
		Minutes:      float64(minutes),
		BeerCredited: credit,
		Capped:       capped,
	}
	b.pushLogf("Offline progress: %d minutes, +%.0f cl of beer!", minutes, credit)
}
