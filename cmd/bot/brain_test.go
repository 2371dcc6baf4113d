package main

import (
	"testing"

	"gridsnake.io/internal/protocol"
)

func snake(cells ...[2]int) []protocol.Vec3 {
	out := make([]protocol.Vec3, len(cells))
	for i, c := range cells {
		out[i] = protocol.Vec3{X: c[0], Z: c[1]}
	}
	return out
}

func TestChoose_TurnsTowardFood(t *testing.T) {
	self := protocol.PlayerState{ID: "me", Snake: snake([2]int{0, 0}), Direction: protocol.Vec3{X: 1}}
	upd := protocol.WorldUpdateMsg{Players: []protocol.PlayerState{self}, Food: protocol.Vec3{Z: 5}}
	d, ok := choose(self, upd, 20)
	if !ok || d != (protocol.Vec3{Z: 1}) {
		t.Fatalf("got %v ok=%v, want +z", d, ok)
	}
}

func TestChoose_NeverReverses(t *testing.T) {
	self := protocol.PlayerState{ID: "me", Snake: snake([2]int{0, 0}), Direction: protocol.Vec3{X: 1}}
	upd := protocol.WorldUpdateMsg{Players: []protocol.PlayerState{self}, Food: protocol.Vec3{X: -5}}
	d, _ := choose(self, upd, 20)
	if d == (protocol.Vec3{X: -1}) {
		t.Fatalf("reversal chosen")
	}
}

func TestChoose_AvoidsWallAndBodies(t *testing.T) {
	// Heading into the +x wall with food beyond it.
	self := protocol.PlayerState{ID: "me", Snake: snake([2]int{9, 0}), Direction: protocol.Vec3{X: 1}}
	other := protocol.PlayerState{ID: "o", Snake: snake([2]int{9, 1})}
	upd := protocol.WorldUpdateMsg{Players: []protocol.PlayerState{self, other}, Food: protocol.Vec3{X: 9, Z: 3}}
	d, ok := choose(self, upd, 20)
	if !ok || d != (protocol.Vec3{Z: -1}) {
		t.Fatalf("got %v ok=%v, want -z", d, ok)
	}
}

func TestChoose_KeepsHeadingWhenAligned(t *testing.T) {
	self := protocol.PlayerState{ID: "me", Snake: snake([2]int{0, 0}), Direction: protocol.Vec3{X: 1}}
	upd := protocol.WorldUpdateMsg{Players: []protocol.PlayerState{self}, Food: protocol.Vec3{X: 4}}
	if _, ok := choose(self, upd, 20); ok {
		t.Fatalf("no change expected when already heading at food")
	}
}
