package board

import (
	"fmt"
	"strings"
)

// StartEncoding is the standard initial position.
const StartEncoding = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Decode parses the board layout field of an encoding. Rank groups are read top to
// bottom: the first group is rank index 7.
func Decode(encoding string) (Board, error) {
	fields := strings.Fields(encoding)
	if len(fields) == 0 {
		return Board{}, fmt.Errorf("%w: empty encoding", ErrMalformedEncoding)
	}
	groups := strings.Split(fields[0], "/")
	if len(groups) != 8 {
		return Board{}, fmt.Errorf("%w: expected 8 rank groups, got %d", ErrMalformedEncoding, len(groups))
	}

	var b Board
	for i, group := range groups {
		rank := 7 - i
		file := 0
		for j := 0; j < len(group); j++ {
			ch := group[j]
			switch {
			case ch >= '0' && ch <= '9':
				n := int(ch - '0')
				if n < 1 || n > 8 {
					return Board{}, fmt.Errorf("%w: digit %c outside 1-8 in rank group %d", ErrMalformedEncoding, ch, i+1)
				}
				file += n
			default:
				color := Black
				lower := ch
				if ch >= 'A' && ch <= 'Z' {
					color = White
					lower = ch - 'A' + 'a'
				}
				kind, ok := kindFromLetter(lower)
				if !ok {
					return Board{}, fmt.Errorf("%w: unexpected character %q in rank group %d", ErrMalformedEncoding, ch, i+1)
				}
				if file > 7 {
					return Board{}, fmt.Errorf("%w: rank group %d overflows 8 squares", ErrMalformedEncoding, i+1)
				}
				b.cells[file][rank] = Piece{Kind: kind, Color: color}
				file++
			}
		}
		if file != 8 {
			return Board{}, fmt.Errorf("%w: rank group %d covers %d squares", ErrMalformedEncoding, i+1, file)
		}
	}
	return b, nil
}

// DecodeSideToMove reads the second field: "w" or "b".
func DecodeSideToMove(encoding string) (Color, error) {
	fields := strings.Fields(encoding)
	if len(fields) < 2 {
		return NoColor, fmt.Errorf("%w: missing side-to-move field", ErrMalformedEncoding)
	}
	switch fields[1] {
	case "w":
		return White, nil
	case "b":
		return Black, nil
	default:
		return NoColor, fmt.Errorf("%w: side-to-move %q", ErrMalformedEncoding, fields[1])
	}
}

// DecodeOutcome maps an engine outcome label.
func DecodeOutcome(label string) (Outcome, error) {
	switch label {
	case "NoEnd":
		return Ongoing, nil
	case "Tie":
		return Draw, nil
	case "WhiteWin":
		return WhiteWins, nil
	case "BlackWin":
		return BlackWins, nil
	default:
		return Ongoing, fmt.Errorf("%w: outcome label %q", ErrMalformedEncoding, label)
	}
}

// DecodeTurnLabel maps the engine response turn ("White"/"Black").
func DecodeTurnLabel(label string) (Color, error) {
	switch label {
	case "White":
		return White, nil
	case "Black":
		return Black, nil
	default:
		return NoColor, fmt.Errorf("%w: turn label %q", ErrMalformedEncoding, label)
	}
}

// Layout serializes only the board field.
func Layout(b Board) string {
	var sb strings.Builder
	sb.Grow(72)
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.cells[file][rank]
			if p.IsZero() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// Encode serializes the board and side to move. NoColor is written as "-", which
// DecodeSideToMove rejects.
func Encode(b Board, turn Color) string {
	side := "-"
	switch turn {
	case White:
		side = "w"
	case Black:
		side = "b"
	}
	return Layout(b) + " " + side
}

// LayoutField returns the first field of an encoding, or "" when there is none.
func LayoutField(encoding string) string {
	fields := strings.Fields(encoding)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Count returns how many times the kind's letter appears in the layout field,
// ignoring case.
func Count(encoding string, k Kind) int {
	letter := k.Letter()
	if letter == 0 {
		return 0
	}
	layout := LayoutField(encoding)
	n := 0
	for i := 0; i < len(layout); i++ {
		ch := layout[i]
		if ch >= 'A' && ch <= 'Z' {
			ch = ch - 'A' + 'a'
		}
		if ch == letter {
			n++
		}
	}
	return n
}
