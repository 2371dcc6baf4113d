package world

import (
	"context"
	"errors"
)

// SnapshotAck describes the snapshot queued by RequestSnapshot.
type SnapshotAck struct {
	Tick    uint64 `json:"tick"`
	Players int    `json:"players"`
	Digest  string `json:"digest"`
}

type adminSnapshotReq struct {
	Resp chan adminSnapshotResp
}

type adminSnapshotResp struct {
	Ack SnapshotAck
	Err error
}

var (
	errNoSnapshotSink   = errors.New("snapshot sink not configured")
	errSnapshotSinkFull = errors.New("snapshot sink backpressure")
)

// RequestSnapshot asks the world loop to queue a snapshot of the last
// completed tick. Safe to call from HTTP handlers.
func (w *World) RequestSnapshot(ctx context.Context) (SnapshotAck, error) {
	if w == nil || w.admin == nil {
		return SnapshotAck{}, errors.New("admin snapshot not available")
	}
	resp := make(chan adminSnapshotResp, 1)
	select {
	case w.admin <- adminSnapshotReq{Resp: resp}:
	case <-ctx.Done():
		return SnapshotAck{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r.Ack, r.Err
	case <-ctx.Done():
		return SnapshotAck{}, ctx.Err()
	}
}

// handleAdminSnapshotRequests runs right after a step, so the world holds
// the state of tick cur-1. Requests batched in one tick share one snapshot.
func (w *World) handleAdminSnapshotRequests(reqs []adminSnapshotReq) {
	if w == nil || len(reqs) == 0 {
		return
	}
	var snapTick uint64
	if cur := w.tick.Load(); cur > 0 {
		snapTick = cur - 1
	}

	var resp adminSnapshotResp
	if w.snapshotSink == nil {
		resp.Err = errNoSnapshotSink
		resp.Ack.Tick = snapTick
	} else {
		snap := w.ExportSnapshot(snapTick)
		resp.Ack = SnapshotAck{Tick: snapTick, Players: len(snap.Players), Digest: snap.Digest}
		select {
		case w.snapshotSink <- snap:
		default:
			resp.Err = errSnapshotSinkFull
		}
	}

	for _, r := range reqs {
		if r.Resp == nil {
			continue
		}
		select {
		case r.Resp <- resp:
		default:
			// Requester gave up.
		}
	}
}
