package protocol

import "encoding/json"

// Message types.
const (
	TypeAssignID        = "assign_id"
	TypeWorldUpdate     = "world_update"
	TypeDirectionChange = "direction_change"
	TypeSprintChange    = "sprint_change"
	TypeRestartGame     = "restart_game"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
