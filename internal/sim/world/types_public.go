package world

import "gridsnake.io/internal/protocol"

// JoinRequest registers a connection as a new player at the next tick boundary.
type JoinRequest struct {
	Name string
	// PlayerID is normally empty and a fresh UUID is assigned.
	// Replay passes the recorded id so digests line up.
	PlayerID string
	Encoding protocol.Encoding
	Out      chan []byte
	// Resp must be buffered; the world loop never blocks on it.
	Resp chan JoinResponse
}

type JoinResponse struct {
	AssignID protocol.AssignIDMsg
}

type IntentEnvelope struct {
	PlayerID string
	Msg      protocol.ClientMsg
}

type RecordedJoin struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type RecordedIntent struct {
	PlayerID string             `json:"player_id"`
	Msg      protocol.ClientMsg `json:"msg"`
}

type RecordedDeath struct {
	PlayerID string `json:"player_id"`
	Cause    string `json:"cause"`
	Score    int    `json:"score"`
	Length   int    `json:"length"`
	Head     [2]int `json:"head"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick     uint64           `json:"tick"`
	Joins    []RecordedJoin   `json:"joins,omitempty"`
	Leaves   []string         `json:"leaves,omitempty"`
	Intents  []RecordedIntent `json:"intents,omitempty"`
	Deaths   []RecordedDeath  `json:"deaths,omitempty"`
	Respawns []string         `json:"respawns,omitempty"`
	Digest   string           `json:"digest"`
}

type AuditEntry struct {
	Tick    uint64         `json:"tick"`
	Actor   string         `json:"actor"`
	Action  string         `json:"action"` // JOIN, LEAVE, DEATH, RESPAWN, FOOD
	Pos     [2]int         `json:"pos"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
