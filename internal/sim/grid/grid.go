package grid

import (
	"fmt"
	"math/rand"
)

// Cell is an integer position on the flat square board. Y is always 0 and is
// only materialized on the wire.
type Cell struct {
	X int
	Z int
}

func (c Cell) Add(d Direction) Cell {
	return Cell{X: c.X + d.DX, Z: c.Z + d.DZ}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Direction is a unit step along one axis.
type Direction struct {
	DX int
	DZ int
}

var (
	Right   = Direction{DX: 1}
	Left    = Direction{DX: -1}
	Forward = Direction{DZ: 1}
	Back    = Direction{DZ: -1}
)

// DefaultDirection is the heading of a freshly spawned snake.
var DefaultDirection = Right

func (d Direction) Opposite() Direction {
	return Direction{DX: -d.DX, DZ: -d.DZ}
}

// Valid reports whether d is one of the four unit directions.
func (d Direction) Valid() bool {
	switch d {
	case Right, Left, Forward, Back:
		return true
	}
	return false
}

func (d Direction) String() string {
	switch d {
	case Right:
		return "+x"
	case Left:
		return "-x"
	case Forward:
		return "+z"
	case Back:
		return "-z"
	}
	return fmt.Sprintf("(%d,%d)", d.DX, d.DZ)
}

// Grid is a square board of side Size centered at the origin.
// In-bounds coordinates satisfy -Size/2 <= x,z < Size/2.
type Grid struct {
	Size int
}

func (g Grid) Half() int { return g.Size / 2 }

func (g Grid) InBounds(c Cell) bool {
	h := g.Half()
	return c.X >= -h && c.X < h && c.Z >= -h && c.Z < h
}

// RandomCell picks a uniformly random in-bounds cell. Occupancy is not
// checked; a spawn on top of a body is resolved by the next tick.
func (g Grid) RandomCell(r *rand.Rand) Cell {
	h := g.Half()
	return Cell{
		X: r.Intn(g.Size) - h,
		Z: r.Intn(g.Size) - h,
	}
}

// Cells returns the number of cells on the board.
func (g Grid) Cells() int { return g.Size * g.Size }
