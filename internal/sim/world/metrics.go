package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Players   int `json:"players"`
	Alive     int `json:"alive"`
	Clients   int `json:"clients"`
	Observers int `json:"observers"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	TopScore      int               `json:"top_score"`
	FoodEaten     uint64            `json:"food_eaten_total"`
	Deaths        uint64            `json:"deaths_total"`
	DeathsByCause map[string]uint64 `json:"deaths_by_cause,omitempty"`
	Respawns      uint64            `json:"respawns_total"`
	Joins         uint64            `json:"joins_total"`
	Leaves        uint64            `json:"leaves_total"`

	Food [2]int `json:"food"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) storeMetrics(nextTick uint64, stepMS float64) {
	alive, top := 0, 0
	for _, p := range w.players {
		if !p.Dead {
			alive++
		}
		if p.Score > top {
			top = p.Score
		}
	}
	byCause := make(map[string]uint64, len(w.totals.DeathsByCause))
	for k, v := range w.totals.DeathsByCause {
		byCause[k] = v
	}
	w.metrics.Store(WorldMetrics{
		Tick:      nextTick,
		Players:   len(w.players),
		Alive:     alive,
		Clients:   len(w.clients),
		Observers: len(w.observers),
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS:        stepMS,
		TopScore:      top,
		FoodEaten:     w.totals.FoodEaten,
		Deaths:        w.totals.Deaths,
		DeathsByCause: byCause,
		Respawns:      w.totals.Respawns,
		Joins:         w.totals.Joins,
		Leaves:        w.totals.Leaves,
		Food:          cellPos(w.food),
	})
}
