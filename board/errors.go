package board

import (
	"errors"

	"github.com/theHamdiz/kishmat/move"
)

var (
	ErrInvalidPositionEncoding = errors.New("invalid position encoding")
	ErrNoPieceAtSquare         = errors.New("no piece at square")
	ErrIllegalMove             = errors.New("illegal move")
	ErrInvalidSquareIndex      = move.ErrInvalidSquareIndex
)
