package world

import "gridsnake.io/internal/sim/grid"

// CollisionIndex maps every occupied cell to the ids of the living players
// whose bodies cover it. It is rebuilt once per tick before anyone moves.
type CollisionIndex struct {
	cells map[grid.Cell][]string
}

func BuildCollisionIndex(players []*Player) CollisionIndex {
	n := 0
	for _, p := range players {
		if p != nil && !p.Dead {
			n += len(p.Snake)
		}
	}
	ix := CollisionIndex{cells: make(map[grid.Cell][]string, n)}
	for _, p := range players {
		if p == nil || p.Dead {
			continue
		}
		for _, c := range p.Snake {
			occ := ix.cells[c]
			// A snake folded onto itself should still list its id once.
			if len(occ) > 0 && occ[len(occ)-1] == p.ID {
				continue
			}
			ix.cells[c] = append(occ, p.ID)
		}
	}
	return ix
}

func (ix CollisionIndex) Occupants(c grid.Cell) []string { return ix.cells[c] }

func (ix CollisionIndex) Occupied(c grid.Cell) bool { return len(ix.cells[c]) > 0 }

// Len returns the number of distinct occupied cells.
func (ix CollisionIndex) Len() int { return len(ix.cells) }
