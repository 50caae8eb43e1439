package board

import "strings"

type ASCIIOptions struct {
	Unicode bool
	// Flip draws the board from Black's side.
	Flip bool
	// Marks are drawn as '*' on empty squares and wrapped in brackets on occupied ones.
	Marks []Square
	// Selected is wrapped in angle brackets.
	Selected *Square
}

var unicodeGlyphs = map[Piece]string{
	{King, White}:   "♔",
	{Queen, White}:  "♕",
	{Rook, White}:   "♖",
	{Bishop, White}: "♗",
	{Knight, White}: "♘",
	{Pawn, White}:   "♙",
	{King, Black}:   "♚",
	{Queen, Black}:  "♛",
	{Rook, Black}:   "♜",
	{Bishop, Black}: "♝",
	{Knight, Black}: "♞",
	{Pawn, Black}:   "♟",
}

// ASCII renders a text diagram with coordinates on every edge.
func ASCII(b Board, opts ASCIIOptions) string {
	marked := make(map[Square]bool, len(opts.Marks))
	for _, sq := range opts.Marks {
		marked[sq] = true
	}

	files := []int{0, 1, 2, 3, 4, 5, 6, 7}
	ranks := []int{7, 6, 5, 4, 3, 2, 1, 0}
	if opts.Flip {
		files = []int{7, 6, 5, 4, 3, 2, 1, 0}
		ranks = []int{0, 1, 2, 3, 4, 5, 6, 7}
	}

	var header strings.Builder
	header.WriteString("   ")
	for _, f := range files {
		header.WriteByte(' ')
		header.WriteByte(byte('a' + f))
		header.WriteByte(' ')
	}

	var sb strings.Builder
	sb.WriteString(header.String())
	sb.WriteByte('\n')
	for _, r := range ranks {
		sb.WriteByte(byte('1' + r))
		sb.WriteString("  ")
		for _, f := range files {
			sq := Square{File: f, Rank: r}
			p := b.cells[f][r]
			glyph := "."
			if !p.IsZero() {
				if opts.Unicode {
					glyph = unicodeGlyphs[p]
				} else {
					glyph = string(p.Letter())
				}
			} else if marked[sq] {
				glyph = "*"
			}
			switch {
			case opts.Selected != nil && *opts.Selected == sq:
				sb.WriteString("<" + glyph + ">")
			case marked[sq] && !p.IsZero():
				sb.WriteString("[" + glyph + "]")
			default:
				sb.WriteString(" " + glyph + " ")
			}
		}
		sb.WriteString("  ")
		sb.WriteByte(byte('1' + r))
		sb.WriteByte('\n')
	}
	sb.WriteString(header.String())
	return sb.String()
}
