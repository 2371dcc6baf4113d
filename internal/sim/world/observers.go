package world

import "gridsnake.io/internal/protocol"

// ObserverJoinRequest registers a read-only session that receives every
// world_update as JSON. Observers never own a snake and never enter the tick log.
type ObserverJoinRequest struct {
	SessionID string
	Out       chan []byte
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string             { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	w.observers[req.SessionID] = req.Out
}

func (w *World) handleObserverLeave(id string) {
	delete(w.observers, id)
}

func (w *World) broadcastObservers(msg protocol.WorldUpdateMsg) {
	if len(w.observers) == 0 {
		return
	}
	b, err := protocol.Marshal(protocol.EncodingJSON, msg)
	if err != nil {
		return
	}
	for _, out := range w.observers {
		sendLatest(out, b)
	}
}
