package protocol

// Vec3 is a wire cell or direction. Y is always 0 on the flat board.
type Vec3 struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
	Z int `json:"z" msgpack:"z"`
}

// ASSIGN_ID (server -> client), sent once before any world update.
type AssignIDMsg struct {
	Type string `json:"type" msgpack:"type"`
	ID   string `json:"id" msgpack:"id"`
}

// WORLD_UPDATE (server -> all clients), once per tick.
type WorldUpdateMsg struct {
	Type    string        `json:"type" msgpack:"type"`
	Tick    uint64        `json:"tick" msgpack:"tick"`
	Players []PlayerState `json:"players" msgpack:"players"`
	Food    Vec3          `json:"food" msgpack:"food"`
}

type PlayerState struct {
	ID          string `json:"id" msgpack:"id"`
	Name        string `json:"name" msgpack:"name"`
	Snake       []Vec3 `json:"snake" msgpack:"snake"`
	Direction   Vec3   `json:"direction" msgpack:"direction"`
	Color       string `json:"color" msgpack:"color"`
	Score       int    `json:"score" msgpack:"score"`
	IsSprinting bool   `json:"isSprinting" msgpack:"isSprinting"`
	IsDead      bool   `json:"isDead" msgpack:"isDead"`
}

// ClientMsg is the decoded form of every client -> server intent.
// Only the fields relevant to Type are set.
type ClientMsg struct {
	Type        string `json:"type"`
	Direction   *Vec3  `json:"direction,omitempty"`
	IsSprinting *bool  `json:"isSprinting,omitempty"`
}

func DirectionChange(x, z int) ClientMsg {
	return ClientMsg{Type: TypeDirectionChange, Direction: &Vec3{X: x, Z: z}}
}

func SprintChange(on bool) ClientMsg {
	return ClientMsg{Type: TypeSprintChange, IsSprinting: &on}
}

func RestartGame() ClientMsg {
	return ClientMsg{Type: TypeRestartGame}
}
