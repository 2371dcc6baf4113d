package observerproto

// Version is the observer protocol version (separate from the player WS protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	Players         int         `json:"players"`
	Alive           int         `json:"alive"`
	TopScore        int         `json:"top_score"`
}

type WorldParams struct {
	GridSize             int    `json:"grid_size"`
	TickIntervalMs       int64  `json:"tick_interval_ms"`
	MoveIntervalMs       int64  `json:"move_interval_ms"`
	SprintMoveIntervalMs int64  `json:"sprint_move_interval_ms"`
	SprintShrinkEvery    int    `json:"sprint_shrink_every"`
	MinSprintLength      int    `json:"min_sprint_length"`
	RespawnPolicy        string `json:"respawn_policy"`
	RespawnDelayMs       int64  `json:"respawn_delay_ms,omitempty"`
	Seed                 int64  `json:"seed"`
}
