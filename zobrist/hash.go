package zobrist

import (
	"sync"

	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

const (
	NumSides  = 2
	NumKinds  = 6
	NumSquare = 64
)

// seed is fixed so that keys (and anything persisted with them, like opening
// books) agree across processes.
var seed = [32]byte{
	'k', 'i', 's', 'h', 'm', 'a', 't', '-', 'z', 'o', 'b', 'r', 'i', 's', 't', '-',
	'k', 'e', 'y', 's', '-', 'v', '1', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Zobrist holds the random keys that get XOR-folded into a position key.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	pieces    [NumSides][NumKinds][NumSquare]uint64
	castling  [16]uint64
	enPassant [8]uint64
	blackMove uint64
}

var (
	global   *Zobrist
	initOnce sync.Once
)

// Keys returns the process-wide key table, building it on first use.
func Keys() *Zobrist {
	initOnce.Do(func() {
		global = &Zobrist{}
		global.Initialize(seed[:])
	})
	return global
}

// Initialize fills the table from a ChaCha stream keyed by seed, which must
// be 32 bytes long.
func (z *Zobrist) Initialize(seed []byte) {
	rng := frand.NewCustom(seed, 1024, 20)
	for s := 0; s < NumSides; s++ {
		for k := 0; k < NumKinds; k++ {
			for sq := 0; sq < NumSquare; sq++ {
				z.pieces[s][k][sq] = rng.Uint64n(bignum) + 1
			}
		}
	}
	for i := range z.castling {
		z.castling[i] = rng.Uint64n(bignum) + 1
	}
	for i := range z.enPassant {
		z.enPassant[i] = rng.Uint64n(bignum) + 1
	}
	z.blackMove = rng.Uint64n(bignum) + 1
}

func (z *Zobrist) Piece(side, kind, sq int) uint64 {
	return z.pieces[side][kind][sq]
}

// Castling returns the key for a full 4-bit castling-rights value.
func (z *Zobrist) Castling(rights uint8) uint64 {
	return z.castling[rights&15]
}

func (z *Zobrist) EnPassant(file int) uint64 {
	return z.enPassant[file]
}

func (z *Zobrist) BlackToMove() uint64 {
	return z.blackMove
}

// Placement is one piece on one square, the unit Hash folds in.
type Placement struct {
	Side, Kind, Square int
}

// Hash computes a key from scratch. epFile is -1 when there is no
// en-passant target.
func (z *Zobrist) Hash(pieces []Placement, blackToMove bool, castling uint8, epFile int) uint64 {
	key := uint64(0)
	for _, p := range pieces {
		key ^= z.pieces[p.Side][p.Kind][p.Square]
	}
	key ^= z.castling[castling&15]
	if epFile >= 0 {
		key ^= z.enPassant[epFile]
	}
	if blackToMove {
		key ^= z.blackMove
	}
	return key
}

// MovePiece returns key updated for a piece going from one square to another.
func (z *Zobrist) MovePiece(key uint64, side, kind, from, to int) uint64 {
	return key ^ z.pieces[side][kind][from] ^ z.pieces[side][kind][to]
}
