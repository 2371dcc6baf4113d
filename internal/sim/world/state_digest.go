package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// stateDigest hashes everything that influences future ticks.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteI64(h, &tmp, int64(w.grid.Size))
	digestWriteI64(h, &tmp, int64(w.food.X))
	digestWriteI64(h, &tmp, int64(w.food.Z))

	for _, p := range w.sortedPlayers() {
		digestWriteString(h, &tmp, p.ID)
		digestWriteString(h, &tmp, p.Name)
		digestWriteString(h, &tmp, p.Color)
		digestWriteI64(h, &tmp, int64(p.Direction.DX))
		digestWriteI64(h, &tmp, int64(p.Direction.DZ))
		digestWriteI64(h, &tmp, int64(p.Heading.DX))
		digestWriteI64(h, &tmp, int64(p.Heading.DZ))
		h.Write([]byte{boolByte(p.Sprinting), boolByte(p.Dead)})
		digestWriteI64(h, &tmp, int64(p.Score))
		digestWriteI64(h, &tmp, int64(p.LastMove))
		digestWriteI64(h, &tmp, int64(p.SprintMoves))
		digestWriteI64(h, &tmp, int64(p.DiedAt))
		digestWriteU64(h, &tmp, uint64(len(p.Snake)))
		for _, c := range p.Snake {
			digestWriteI64(h, &tmp, int64(c.X))
			digestWriteI64(h, &tmp, int64(c.Z))
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
