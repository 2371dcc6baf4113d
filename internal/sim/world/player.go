package world

import (
	"time"

	"gridsnake.io/internal/protocol"
	"gridsnake.io/internal/sim/grid"
)

const (
	CauseWall      = "wall"
	CauseSelf      = "self"
	CauseCollision = "collision"
	CauseHeadOn    = "head_on"
)

// Player is one connected participant and its snake. Snake[0] is the head.
type Player struct {
	ID    string
	Name  string
	Color string

	Snake     []grid.Cell
	Direction grid.Direction
	// Heading is the direction of the last executed move.
	Heading grid.Direction

	Sprinting bool
	Dead      bool
	Score     int

	LastMove    time.Duration
	SprintMoves int
	DiedAt      time.Duration
	DeathCause  string
}

func newPlayer(id, name, color string, spawn grid.Cell, now time.Duration) *Player {
	p := &Player{ID: id, Name: name, Color: color}
	p.reset(spawn, now)
	return p
}

func (p *Player) Head() grid.Cell { return p.Snake[0] }

func (p *Player) Len() int { return len(p.Snake) }

func (p *Player) reset(spawn grid.Cell, now time.Duration) {
	p.Snake = []grid.Cell{spawn}
	p.Direction = grid.DefaultDirection
	p.Heading = grid.DefaultDirection
	p.Sprinting = false
	p.Dead = false
	p.Score = 0
	p.LastMove = now
	p.SprintMoves = 0
	p.DiedAt = 0
	p.DeathCause = ""
}

func (p *Player) kill(cause string, now time.Duration) {
	p.Dead = true
	p.DiedAt = now
	p.DeathCause = cause
}

func (p *Player) state() protocol.PlayerState {
	snake := make([]protocol.Vec3, len(p.Snake))
	for i, c := range p.Snake {
		snake[i] = cellVec(c)
	}
	return protocol.PlayerState{
		ID:          p.ID,
		Name:        p.Name,
		Snake:       snake,
		Direction:   protocol.Vec3{X: p.Direction.DX, Z: p.Direction.DZ},
		Color:       p.Color,
		Score:       p.Score,
		IsSprinting: p.Sprinting,
		IsDead:      p.Dead,
	}
}

func cellVec(c grid.Cell) protocol.Vec3 { return protocol.Vec3{X: c.X, Z: c.Z} }
