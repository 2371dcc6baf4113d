package world

import (
	"context"
	"time"
)

// Run drives the world from a wall-clock ticker until ctx is done or Stop is called.
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()
	return w.RunTicks(ctx, ticker.C)
}

// RunTicks is the scheduler loop. Requests that arrive between two ticks are
// accumulated and applied together when the next tick fires; tests pass a
// hand-fed channel to advance time explicitly.
func (w *World) RunTicks(ctx context.Context, ticks <-chan time.Time) error {
	var pendingIntents []IntentEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string
	var pendingAdmin []adminSnapshotReq

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case req := <-w.admin:
			pendingAdmin = append(pendingAdmin, req)
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case env := <-w.inbox:
			pendingIntents = append(pendingIntents, env)
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			w.step(pendingJoins, pendingLeaves, pendingIntents)
			w.handleAdminSnapshotRequests(pendingAdmin)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingIntents = pendingIntents[:0]
			pendingAdmin = pendingAdmin[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is intended for deterministic replays/tests and must not be mixed with a running loop.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, intents []IntentEnvelope) (tick uint64, digest string) {
	tick = w.tick.Load()
	digest = w.step(joins, leaves, intents)
	return tick, digest
}
