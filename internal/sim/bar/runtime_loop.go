package bar

import (
	"context"
	"fmt"
	"time"
)

func (b *Bar) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(b.cfg.Tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingCmds []CmdEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.stop:
			return nil
		case req := <-b.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-b.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-b.inbox:
			pendingCmds = append(pendingCmds, env)
		case <-ticker.C:
			b.step(pendingJoins, pendingLeaves, pendingCmds)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingCmds = pendingCmds[:0]
		}
	}
}

func (b *Bar) Stop() { close(b.stop) }

func (b *Bar) handleLeave(sessionID string) {
	if _, ok := b.clients[sessionID]; ok {
		b.clientCount.Add(-1)
	}
	delete(b.clients, sessionID)
}

func (b *Bar) step(joins []JoinRequest, leaves []string, cmds []CmdEnvelope) {
	start := time.Now()
	b.stepInternal(joins, leaves, cmds)
	b.stepMicros.Store(time.Since(start).Microseconds())
}

// StepOnce advances the bar by a single tick using the same ordering semantics
// as the server loop. It is primarily intended for deterministic replays/tests.
func (b *Bar) StepOnce(joins []JoinRequest, leaves []string, cmds []CmdEnvelope) (tick uint64, digest string) {
	tick = b.tick.Load()
	b.step(joins, leaves, cmds)
	return tick, b.stateDigest(tick)
}

func (b *Bar) ID() string {
	if b == nil {
		return ""
	}
	return b.cfg.ID
}

func (b *Bar) TickRateHz() int {
	if b == nil {
		return 0
	}
	return b.cfg.Tuning.TickRateHz
}

// CurrentTick returns the number of completed ticks.
func (b *Bar) CurrentTick() uint64 {
	return b.tick.Load()
}

// BarMetrics is a point-in-time view safe to read from any goroutine.
type BarMetrics struct {
	Tick    uint64  `json:"tick"`
	Clients int     `json:"clients"`
	StepMS  float64 `json:"step_ms"`

	QueueDepths struct {
		Inbox int `json:"inbox"`
		Join  int `json:"join"`
		Leave int `json:"leave"`
	} `json:"queue_depths"`
}

func (b *Bar) Metrics() BarMetrics {
	var m BarMetrics
	m.Tick = b.tick.Load()
	m.Clients = int(b.clientCount.Load())
	m.StepMS = float64(b.stepMicros.Load()) / 1000.0
	m.QueueDepths.Inbox = len(b.inbox)
	m.QueueDepths.Join = len(b.join)
	m.QueueDepths.Leave = len(b.leave)
	return m
}

func (b *Bar) newPatronID() string {
	n := b.nextPatronNum.Add(1)
	return fmt.Sprintf("P%06d", n)
}

func sendLatest(ch chan []byte, m []byte) {
	select {
	case ch <- m:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- m:
	default:
	}
}
