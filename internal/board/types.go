// Package board holds the position model and the text codec used on the engine boundary.
package board

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedEncoding    = errors.New("malformed position encoding")
	ErrCoordinateOutOfRange = errors.New("coordinate out of range")
)

// Color is a side. NoColor doubles as the "awaiting engine" side-to-move.
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "None"
	}
}

func (c Color) Opposite() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// Letter returns the lowercase encoding letter of the kind.
func (k Kind) Letter() byte {
	switch k {
	case Pawn:
		return 'p'
	case Knight:
		return 'n'
	case Bishop:
		return 'b'
	case Rook:
		return 'r'
	case Queen:
		return 'q'
	case King:
		return 'k'
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

func kindFromLetter(ch byte) (Kind, bool) {
	switch ch {
	case 'p':
		return Pawn, true
	case 'n':
		return Knight, true
	case 'b':
		return Bishop, true
	case 'r':
		return Rook, true
	case 'q':
		return Queen, true
	case 'k':
		return King, true
	default:
		return NoKind, false
	}
}

// Piece is an immutable (kind, color) pair. The zero value is an empty cell.
type Piece struct {
	Kind  Kind
	Color Color
}

func (p Piece) IsZero() bool { return p.Kind == NoKind }

// Letter returns the encoding letter: uppercase for White, lowercase for Black.
func (p Piece) Letter() byte {
	l := p.Kind.Letter()
	if l == 0 {
		return 0
	}
	if p.Color == White {
		return l - 'a' + 'A'
	}
	return l
}

func (p Piece) String() string {
	if p.IsZero() {
		return "empty"
	}
	return p.Color.String() + " " + p.Kind.String()
}

// Square is a board coordinate. File 0 is 'a', rank 0 is the first rank.
type Square struct {
	File int
	Rank int
}

// NewSquare validates both components; out-of-board values are a caller error.
func NewSquare(file, rank int) (Square, error) {
	sq := Square{File: file, Rank: rank}
	if !sq.Valid() {
		return Square{}, fmt.Errorf("%w: (%d,%d)", ErrCoordinateOutOfRange, file, rank)
	}
	return sq, nil
}

func (s Square) Valid() bool {
	return s.File >= 0 && s.File <= 7 && s.Rank >= 0 && s.Rank <= 7
}

// Check returns ErrCoordinateOutOfRange for squares outside the board.
func (s Square) Check() error {
	if s.Valid() {
		return nil
	}
	return fmt.Errorf("%w: (%d,%d)", ErrCoordinateOutOfRange, s.File, s.Rank)
}

func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.File, s.Rank)
	}
	return string([]byte{byte('a' + s.File), byte('1' + s.Rank)})
}

// ParseSquare reads "e4"-style coordinates.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: square %q", ErrCoordinateOutOfRange, s)
	}
	if s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Square{}, fmt.Errorf("%w: square %q", ErrCoordinateOutOfRange, s)
	}
	return Square{File: int(s[0] - 'a'), Rank: int(s[1] - '1')}, nil
}

// Outcome classifies a position. Every value other than Ongoing is terminal.
type Outcome uint8

const (
	Ongoing Outcome = iota
	Draw
	WhiteWins
	BlackWins
)

func (o Outcome) Terminal() bool { return o != Ongoing }

// Label returns the engine wire label.
func (o Outcome) Label() string {
	switch o {
	case Draw:
		return "Tie"
	case WhiteWins:
		return "WhiteWin"
	case BlackWins:
		return "BlackWin"
	default:
		return "NoEnd"
	}
}

func (o Outcome) String() string {
	switch o {
	case Draw:
		return "Draw"
	case WhiteWins:
		return "White wins"
	case BlackWins:
		return "Black wins"
	default:
		return "Ongoing"
	}
}

// Board is an 8x8 grid indexed [file][rank]. It is a value; copies never alias.
type Board struct {
	cells [8][8]Piece
}

// At returns the piece on sq and whether the cell is occupied.
func (b Board) At(sq Square) (Piece, bool, error) {
	if err := sq.Check(); err != nil {
		return Piece{}, false, err
	}
	p := b.cells[sq.File][sq.Rank]
	return p, !p.IsZero(), nil
}

// Piece is At without the bounds error; out-of-board squares read as empty.
func (b Board) Piece(sq Square) Piece {
	if !sq.Valid() {
		return Piece{}
	}
	return b.cells[sq.File][sq.Rank]
}

// Empty reports whether no cell is occupied.
func (b Board) Empty() bool {
	return b == Board{}
}

// Occupied lists occupied squares, rank 8 first, files a to h.
func (b Board) Occupied() []Square {
	var out []Square
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			if !b.cells[file][rank].IsZero() {
				out = append(out, Square{File: file, Rank: rank})
			}
		}
	}
	return out
}
