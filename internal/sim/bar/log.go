package bar

import "fmt"

// pushLog prepends to the feed, newest first, capped at the configured entry
// count.
func (b *Bar) pushLog(msg string) {
	b.feed = append([]string{msg}, b.feed...)
	if max := b.cfg.Tuning.Economy.LogFeedEntries; len(b.feed) > max {
		b.feed = b.feed[:max]
	}
	b.tickFeed = append(b.tickFeed, msg)
}

func (b *Bar) pushLogf(format string, args ...interface{}) {
	b.pushLog(fmt.Sprintf(format, args...))
}

// moralCategory picks the commentary voice. A single roll drives both the
// chaos override and the lean within the morale band.
func (b *Bar) moralCategory() string {
	roll := b.rng.Float64()
	switch {
	case roll > 0.85:
		return "chaotic"
	case b.moral >= 90:
		if roll > 0.6 {
			return "good"
		}
		return "chaotic"
	case b.moral <= 40:
		if roll > 0.6 {
			return "evil"
		}
		return "chaotic"
	case b.moral >= 65 && b.moral <= 75:
		return "neutral"
	case b.moral > 75:
		return "good"
	default:
		return "evil"
	}
}

// showCommentary picks a line for action ("sell", "tap", ...) keyed by the
// current morale category, falling back to the neutral pool.
func (b *Bar) showCommentary(action string, nowMs int64) {
	lines := b.cats.Commentary.Lines[action+"_"+b.moralCategory()]
	if len(lines) == 0 {
		lines = b.cats.Commentary.Lines[action+"_neutral"]
	}
	if len(lines) == 0 {
		return
	}
	b.setCommentary(lines[b.rng.Intn(len(lines))], nowMs)
}

func (b *Bar) setCommentary(line string, nowMs int64) {
	b.commentary = line
	b.commentaryUntil = nowMs + int64(b.cfg.Tuning.Economy.CommentaryMs)
}

func (b *Bar) sysCommentaryExpiry(nowMs int64) {
	if b.commentary != "" && nowMs >= b.commentaryUntil {
		b.commentary = ""
	}
}
