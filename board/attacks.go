package board

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"lukechampine.com/frand"
)

// magic is the fancy-magic lookup for one slider on one square:
// attacks[((occ & mask) * mult) >> shift].
type magic struct {
	mask    Bitboard
	mult    uint64
	shift   uint
	attacks []Bitboard
}

func (m *magic) lookup(occ Bitboard) Bitboard {
	return m.attacks[(uint64(occ&m.mask)*m.mult)>>m.shift]
}

type direction struct{ df, dr int }

var (
	bishopDirs = [4]direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookDirs   = [4]direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	knightDirs = [8]direction{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingDirs   = [8]direction{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
)

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	bishopMagics [64]magic
	rookMagics   [64]magic
)

// magicSeed fixes the multiplier search so table layout is reproducible.
var magicSeed = [32]byte{'k', 'i', 's', 'h', 'm', 'a', 't', '-', 'm', 'a', 'g', 'i', 'c', 's'}

func init() {
	for sq := Square(0); sq < 64; sq++ {
		knightAttacks[sq] = leaperAttacks(sq, knightDirs[:])
		kingAttacks[sq] = leaperAttacks(sq, kingDirs[:])
		pawnAttacks[White][sq] = leaperAttacks(sq, []direction{{-1, 1}, {1, 1}})
		pawnAttacks[Black][sq] = leaperAttacks(sq, []direction{{-1, -1}, {1, -1}})
	}
	rng := frand.NewCustom(magicSeed[:], 1024, 12)
	for sq := Square(0); sq < 64; sq++ {
		bishopMagics[sq] = findMagic(sq, bishopDirs, rng)
		rookMagics[sq] = findMagic(sq, rookDirs, rng)
	}
	if err := verifyMagics(); err != nil {
		panic(err)
	}
}

func onBoard(f, r int) bool {
	return f >= 0 && f < 8 && r >= 0 && r < 8
}

// leaperAttacks steps by file/rank deltas so that an offset can never wrap
// from the a-file to the h-file or back.
func leaperAttacks(sq Square, dirs []direction) Bitboard {
	var bb Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		if onBoard(f, r) {
			bb |= SquareBB(Square(r*8 + f))
		}
	}
	return bb
}

// slideAttacks walks each ray until it leaves the board or hits a blocker.
// The blocker square itself is included.
func slideAttacks(sq Square, occ Bitboard, dirs [4]direction) Bitboard {
	var bb Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for onBoard(f, r) {
			s := SquareBB(Square(r*8 + f))
			bb |= s
			if occ&s != 0 {
				break
			}
			f, r = f+d.df, r+d.dr
		}
	}
	return bb
}

// relevantMask is the set of squares whose occupancy can change the slider's
// attacks: every ray square except the last one on the board edge.
func relevantMask(sq Square, dirs [4]direction) Bitboard {
	var bb Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for onBoard(f+d.df, r+d.dr) {
			bb |= SquareBB(Square(r*8 + f))
			f, r = f+d.df, r+d.dr
		}
	}
	return bb
}

func sparseRandom(rng *frand.RNG) uint64 {
	var b [24]byte
	rng.Read(b[:])
	return binary.LittleEndian.Uint64(b[0:]) &
		binary.LittleEndian.Uint64(b[8:]) &
		binary.LittleEndian.Uint64(b[16:])
}

func findMagic(sq Square, dirs [4]direction, rng *frand.RNG) magic {
	mask := relevantMask(sq, dirs)
	nbits := mask.Count()
	n := 1 << nbits
	shift := uint(64 - nbits)

	occs := make([]Bitboard, n)
	refs := make([]Bitboard, n)
	// enumerate every subset of mask (carry-rippler).
	subset := Bitboard(0)
	for i := 0; i < n; i++ {
		occs[i] = subset
		refs[i] = slideAttacks(sq, subset, dirs)
		subset = (subset - mask) & mask
	}

	table := make([]Bitboard, n)
	epoch := make([]int, n)
	for attempt := 1; ; attempt++ {
		mult := sparseRandom(rng)
		if bits.OnesCount64((uint64(mask)*mult)>>56) < 6 {
			continue
		}
		ok := true
		for i := 0; i < n; i++ {
			idx := (uint64(occs[i]) * mult) >> shift
			if epoch[idx] < attempt {
				epoch[idx] = attempt
				table[idx] = refs[i]
			} else if table[idx] != refs[i] {
				ok = false
				break
			}
		}
		if ok {
			return magic{mask: mask, mult: mult, shift: shift, attacks: table}
		}
	}
}

// verifyMagics catches an unpopulated table, which would silently leave
// sliders without moves.
func verifyMagics() error {
	for sq := Square(0); sq < 64; sq++ {
		if got, want := BishopAttacks(sq, 0), slideAttacks(sq, 0, bishopDirs); got != want || got == 0 {
			return fmt.Errorf("bishop magic for %v is broken", sq)
		}
		if got, want := RookAttacks(sq, 0), slideAttacks(sq, 0, rookDirs); got != want || got == 0 {
			return fmt.Errorf("rook magic for %v is broken", sq)
		}
		full := relevantMask(sq, rookDirs)
		if RookAttacks(sq, full) != slideAttacks(sq, full, rookDirs) {
			return fmt.Errorf("rook magic for %v is broken", sq)
		}
	}
	return nil
}

func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return bishopMagics[sq].lookup(occ)
}

func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return rookMagics[sq].lookup(occ)
}

func QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return BishopAttacks(sq, occ) | RookAttacks(sq, occ)
}

func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }

func KingAttacks(sq Square) Bitboard { return kingAttacks[sq] }

// PawnAttacks returns the squares a pawn of side c on sq attacks.
func PawnAttacks(c Color, sq Square) Bitboard { return pawnAttacks[c][sq] }

// AttacksFrom returns the attack set of a piece of the given kind.
func AttacksFrom(p Piece, c Color, sq Square, occ Bitboard) Bitboard {
	switch p {
	case Pawn:
		return pawnAttacks[c][sq]
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case Queen:
		return QueenAttacks(sq, occ)
	case King:
		return kingAttacks[sq]
	}
	return 0
}
