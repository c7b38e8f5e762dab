package bar

import "encoding/json"

func (b *Bar) stepInternal(joins []JoinRequest, leaves []string, cmds []CmdEnvelope) {
	nowTick := b.tick.Load()
	nowMs := int64(nowTick) * int64(b.cfg.Tuning.TickDurationMs)

	// Apply leaves and joins deterministically at tick boundary.
	for _, id := range leaves {
		b.handleLeave(id)
	}
	for _, req := range joins {
		resp := b.joinClient(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}

	// Apply commands in server_receive_order (the inbox order).
	recorded := make([]RecordedCommand, 0, len(cmds))
	for _, env := range cmds {
		recorded = append(recorded, RecordedCommand{SessionID: env.SessionID, Cmd: env.Cmd})
		ack := b.applyCommand(env.Cmd, nowTick, nowMs)
		if env.Resp != nil {
			env.Resp <- ack
		}
	}

	// Schedules run in a fixed order so replays agree.
	b.sysProduction(nowMs)
	b.sysAutoSell(nowTick, nowMs)
	b.sysMoraleDrift(nowMs)
	b.sysPatience(nowMs)
	b.sysOpportunities(nowMs)
	b.sysSpawner(nowMs)
	b.sysMoralEvents(nowMs)
	b.sysPunishments(nowMs)
	b.sysGolden(nowMs)
	b.sysAutoUpgrade(nowMs)
	b.sysOperatingCosts(nowMs)
	b.sysAchievements(nowTick, nowMs)
	b.sysCommentaryExpiry(nowMs)
	b.sysAutosave(nowTick, nowMs)

	// Build + send STATE to each session.
	if len(b.clients) > 0 {
		state := b.buildState(nowTick)
		if m, err := json.Marshal(state); err == nil {
			for _, cl := range b.clients {
				sendLatest(cl.Out, m)
			}
		}
	}

	if b.tickLogger != nil {
		_ = b.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			Commands: recorded,
			Feed:     b.tickFeed,
			Digest:   b.stateDigest(nowTick),
		})
	}
	b.tickFeed = nil

	b.tick.Add(1)
}
