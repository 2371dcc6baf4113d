package world

import "gridsnake.io/internal/protocol"

func (w *World) buildWorldUpdate(tick uint64) protocol.WorldUpdateMsg {
	players := w.sortedPlayers()
	msg := protocol.WorldUpdateMsg{
		Type:    protocol.TypeWorldUpdate,
		Tick:    tick,
		Players: make([]protocol.PlayerState, 0, len(players)),
		Food:    cellVec(w.food),
	}
	for _, p := range players {
		msg.Players = append(msg.Players, p.state())
	}
	return msg
}

// broadcastWorld encodes the full world once per encoding in use and queues
// it for every connected client. Slow clients lose their oldest frame.
func (w *World) broadcastWorld(tick uint64) {
	if len(w.clients) == 0 && len(w.observers) == 0 {
		return
	}
	msg := w.buildWorldUpdate(tick)
	w.broadcastObservers(msg)
	encoded := map[protocol.Encoding][]byte{}
	for _, cl := range w.clients {
		b, ok := encoded[cl.Encoding]
		if !ok {
			var err error
			b, err = protocol.Marshal(cl.Encoding, msg)
			if err != nil {
				b = nil
			}
			encoded[cl.Encoding] = b
		}
		if b == nil {
			continue
		}
		sendLatest(cl.Out, b)
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
