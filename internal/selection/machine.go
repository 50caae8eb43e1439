package selection

import (
	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/game"
)

type TransitionKind uint8

const (
	// Ignored clicks leave the machine untouched (pending request or finished game).
	Ignored TransitionKind = iota
	Select
	Deselect
	Stay
	Submit
)

func (k TransitionKind) String() string {
	switch k {
	case Select:
		return "select"
	case Deselect:
		return "deselect"
	case Stay:
		return "stay"
	case Submit:
		return "submit"
	default:
		return "ignored"
	}
}

// Transition reports what a click did. From/To are set for Submit; From alone
// for Select.
type Transition struct {
	Kind TransitionKind
	From board.Square
	To   board.Square
}

// Machine tracks Idle / Selected(origin) for one session. Not safe for concurrent use.
type Machine struct {
	selected *board.Square
}

// Selected returns the current origin, if any.
func (m *Machine) Selected() (board.Square, bool) {
	if m.selected == nil {
		return board.Square{}, false
	}
	return *m.selected, true
}

func (m *Machine) Reset() { m.selected = nil }

// Click applies one click against snap. Out-of-board squares deselect.
func (m *Machine) Click(sq board.Square, snap *game.Snapshot) Transition {
	if snap == nil || snap.Pending() || snap.Outcome.Terminal() {
		return Transition{Kind: Ignored}
	}
	if !sq.Valid() {
		if m.selected == nil {
			return Transition{Kind: Ignored}
		}
		m.selected = nil
		return Transition{Kind: Deselect}
	}

	own := snap.Board.Piece(sq).Color == snap.Turn
	if m.selected == nil {
		if !own {
			return Transition{Kind: Stay}
		}
		m.selected = &sq
		return Transition{Kind: Select, From: sq}
	}

	from := *m.selected
	if sq == from {
		return Transition{Kind: Stay, From: from}
	}
	if dests, err := snap.Index.Destinations(from); err == nil {
		for _, d := range dests {
			if d == sq {
				m.selected = nil
				return Transition{Kind: Submit, From: from, To: sq}
			}
		}
	}
	if own {
		m.selected = &sq
		return Transition{Kind: Select, From: sq}
	}
	m.selected = nil
	return Transition{Kind: Deselect, From: from}
}
