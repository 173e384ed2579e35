package move

const (
	// layout of an encoded move, as stored in opening books.
	//
	// 16       8
	// xxxxxxxx xxxxxxxx
	// _pppffff fftttttt
	// p - promotion (0 none, 1 knight ... 4 queen)
	// f - from square
	// t - to square

	encFromShift  = 6
	encPromoShift = 12

	encSquareBitmask = (1 << 6) - 1
	encPromoBitmask  = (1 << 3) - 1
)

// Encode packs the move into 16 bits.
func (m Move) Encode() uint16 {
	return uint16(m.To)&encSquareBitmask |
		(uint16(m.From)&encSquareBitmask)<<encFromShift |
		(uint16(m.Promotion)&encPromoBitmask)<<encPromoShift
}

// Decode unpacks a 16-bit move. Promotion values out of range are dropped.
func Decode(v uint16) Move {
	m := Move{
		To:   Square(v & encSquareBitmask),
		From: Square((v >> encFromShift) & encSquareBitmask),
	}
	p := Promotion((v >> encPromoShift) & encPromoBitmask)
	if p <= PromoteQueen {
		m.Promotion = p
	}
	return m
}
