package world

import "time"

// step runs one tick: leaves, joins, intents in arrival order, respawns,
// movement, broadcast, then logging. It returns the post-tick digest.
func (w *World) step(joins []JoinRequest, leaves []string, intents []IntentEnvelope) string {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if w.handleLeave(id, nowTick) {
			recordedLeaves = append(recordedLeaves, id)
		}
	}

	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		p, resp := w.joinPlayer(req, nowTick)
		if req.Resp != nil {
			select {
			case req.Resp <- resp:
			default:
				// Connection gave up waiting; it will send a leave.
			}
		}
		recordedJoins = append(recordedJoins, RecordedJoin{PlayerID: p.ID, Name: p.Name})
	}

	recorded := make([]RecordedIntent, 0, len(intents))
	for _, env := range intents {
		p := w.players[env.PlayerID]
		if p == nil {
			continue
		}
		recorded = append(recorded, RecordedIntent{PlayerID: env.PlayerID, Msg: env.Msg})
		w.applyIntent(p, env.Msg, nowTick)
	}

	respawns := w.systemRespawn(nowTick)
	deaths := w.systemMovement(nowTick)
	w.checkInvariants()

	w.broadcastWorld(nowTick)

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			Joins:    recordedJoins,
			Leaves:   recordedLeaves,
			Intents:  recorded,
			Deaths:   deaths,
			Respawns: respawns,
			Digest:   digest,
		})
	}

	// Debug snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 {
		if nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
			select {
			case w.snapshotSink <- w.ExportSnapshot(nowTick):
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)
	w.storeMetrics(nextTick, stepMS)
	return digest
}

func (w *World) checkInvariants() {
	mustf(w.grid.InBounds(w.food), "food %v out of bounds", w.food)
	for id, p := range w.players {
		mustf(len(p.Snake) >= 1, "player %s has an empty snake", id)
		if !p.Dead {
			mustf(w.grid.InBounds(p.Head()), "living player %s head %v out of bounds", id, p.Head())
		}
	}
}
