package board

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustDecode(t *testing.T, enc string) Board {
	t.Helper()
	b, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode(%q): %v", enc, err)
	}
	return b
}

func TestDecodeEmptyBoard(t *testing.T) {
	b := mustDecode(t, "8/8/8/8/8/8/8/8 w - - 0 1")
	if !b.Empty() {
		t.Fatalf("expected all 64 cells empty, occupied=%v", b.Occupied())
	}
	for file := 0; file < 8; file++ {
		for rank := 0; rank < 8; rank++ {
			_, ok, err := b.At(Square{File: file, Rank: rank})
			if err != nil || ok {
				t.Fatalf("cell (%d,%d): occupied=%v err=%v", file, rank, ok, err)
			}
		}
	}
}

func TestDecodeStartLayout(t *testing.T) {
	b := mustDecode(t, StartEncoding)

	for file := 0; file < 8; file++ {
		if got := b.Piece(Square{File: file, Rank: 1}); got != (Piece{Pawn, White}) {
			t.Fatalf("rank index 1 file %d: got %v", file, got)
		}
		if got := b.Piece(Square{File: file, Rank: 6}); got != (Piece{Pawn, Black}) {
			t.Fatalf("rank index 6 file %d: got %v", file, got)
		}
	}

	wantBack := []Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	var gotWhite, gotBlack []Kind
	for file := 0; file < 8; file++ {
		w := b.Piece(Square{File: file, Rank: 0})
		if w.Color != White {
			t.Fatalf("rank 0 file %d not white: %v", file, w)
		}
		gotWhite = append(gotWhite, w.Kind)
		bl := b.Piece(Square{File: file, Rank: 7})
		if bl.Color != Black {
			t.Fatalf("rank 7 file %d not black: %v", file, bl)
		}
		gotBlack = append(gotBlack, bl.Kind)
	}
	if diff := cmp.Diff(wantBack, gotWhite); diff != "" {
		t.Fatalf("white back rank mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantBack, gotBlack); diff != "" {
		t.Fatalf("black back rank mismatch (-want +got):\n%s", diff)
	}
	if len(b.Occupied()) != 32 {
		t.Fatalf("expected 32 pieces, got %d", len(b.Occupied()))
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		enc  string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"digit nine", "9/8/8/8/8/8/8/8 w"},
		{"digit zero", "08/8/8/8/8/8/8/8 w"},
		{"unknown letter", "rnbqkbnx/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w"},
		{"seven groups", "8/8/8/8/8/8/8 w"},
		{"nine groups", "8/8/8/8/8/8/8/8/8 w"},
		{"short group", "7/8/8/8/8/8/8/8 w"},
		{"long group", "rnbqkbnrp/8/8/8/8/8/8/8 w"},
		{"digits overflow", "44p/8/8/8/8/8/8/8 w"},
		{"digit run too long", "54/8/8/8/8/8/8/8 w"},
		{"trailing slash", "8/8/8/8/8/8/8/8/ w"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.enc); !errors.Is(err, ErrMalformedEncoding) {
				t.Fatalf("Decode(%q): expected ErrMalformedEncoding, got %v", tc.enc, err)
			}
		})
	}
}

func TestDecodeIgnoresExtraFields(t *testing.T) {
	a := mustDecode(t, "8/8/8/8/8/8/8/K6k w")
	b := mustDecode(t, "8/8/8/8/8/8/8/K6k w - - 12 40 trailing junk")
	if a != b {
		t.Fatalf("extra fields changed the board")
	}
}

func TestDecodeSideToMove(t *testing.T) {
	cases := []struct {
		enc     string
		want    Color
		wantErr bool
	}{
		{StartEncoding, White, false},
		{"8/8/8/8/8/8/8/8 b", Black, false},
		{"8/8/8/8/8/8/8/8 W", NoColor, true},
		{"8/8/8/8/8/8/8/8 x - - 0 1", NoColor, true},
		{"8/8/8/8/8/8/8/8", NoColor, true},
	}
	for _, tc := range cases {
		got, err := DecodeSideToMove(tc.enc)
		if tc.wantErr {
			if !errors.Is(err, ErrMalformedEncoding) {
				t.Fatalf("DecodeSideToMove(%q): expected ErrMalformedEncoding, got %v", tc.enc, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("DecodeSideToMove(%q) = %v, %v; want %v", tc.enc, got, err, tc.want)
		}
	}
}

func TestDecodeOutcome(t *testing.T) {
	for label, want := range map[string]Outcome{
		"NoEnd":    Ongoing,
		"Tie":      Draw,
		"WhiteWin": WhiteWins,
		"BlackWin": BlackWins,
	} {
		got, err := DecodeOutcome(label)
		if err != nil || got != want {
			t.Fatalf("DecodeOutcome(%q) = %v, %v; want %v", label, got, err, want)
		}
		if got.Label() != label {
			t.Fatalf("Label() = %q, want %q", got.Label(), label)
		}
	}
	if _, err := DecodeOutcome("Checkmate"); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("expected ErrMalformedEncoding, got %v", err)
	}
	if Ongoing.Terminal() || !Draw.Terminal() || !WhiteWins.Terminal() || !BlackWins.Terminal() {
		t.Fatalf("terminal classification wrong")
	}
}

func TestDecodeTurnLabel(t *testing.T) {
	if c, err := DecodeTurnLabel("White"); err != nil || c != White {
		t.Fatalf("White: %v %v", c, err)
	}
	if c, err := DecodeTurnLabel("Black"); err != nil || c != Black {
		t.Fatalf("Black: %v %v", c, err)
	}
	if _, err := DecodeTurnLabel("w"); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("expected ErrMalformedEncoding, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	encodings := []string{
		StartEncoding,
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 b - - 0 1",
		"4k3/1P6/8/8/8/8/8/4K3 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	}
	for _, enc := range encodings {
		b := mustDecode(t, enc)
		turn, err := DecodeSideToMove(enc)
		if err != nil {
			t.Fatalf("DecodeSideToMove(%q): %v", enc, err)
		}
		out := Encode(b, turn)
		again := mustDecode(t, out)
		if again != b {
			t.Fatalf("round trip changed board for %q (re-encoded %q)", enc, out)
		}
		if got := LayoutField(out); got != LayoutField(enc) {
			t.Fatalf("layout %q, want %q", got, LayoutField(enc))
		}
		if side, _ := DecodeSideToMove(out); side != turn {
			t.Fatalf("side %v, want %v", side, turn)
		}
	}
}

func TestEncodeNoColor(t *testing.T) {
	out := Encode(Board{}, NoColor)
	if out != "8/8/8/8/8/8/8/8 -" {
		t.Fatalf("unexpected encoding %q", out)
	}
	if _, err := DecodeSideToMove(out); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("expected pending side to be rejected, got %v", err)
	}
}

func TestCount(t *testing.T) {
	enc := "4Q3/8/8/8/8/8/8/q3K2k w - - 0 1"
	if got := Count(enc, Queen); got != 2 {
		t.Fatalf("Count(Queen) = %d, want 2", got)
	}
	if got := Count(enc, King); got != 2 {
		t.Fatalf("Count(King) = %d, want 2", got)
	}
	if got := Count(enc, Rook); got != 0 {
		t.Fatalf("Count(Rook) = %d, want 0", got)
	}
	// only the layout field counts: "b" in the side field is not a bishop
	if got := Count("8/8/8/8/8/8/8/8 b", Bishop); got != 0 {
		t.Fatalf("Count(Bishop) = %d, want 0", got)
	}
	if got := Count(enc, NoKind); got != 0 {
		t.Fatalf("Count(NoKind) = %d, want 0", got)
	}
}

func TestSquares(t *testing.T) {
	for file := -1; file <= 8; file++ {
		for rank := -1; rank <= 8; rank++ {
			_, err := NewSquare(file, rank)
			inside := file >= 0 && file <= 7 && rank >= 0 && rank <= 7
			if inside && err != nil {
				t.Fatalf("NewSquare(%d,%d): %v", file, rank, err)
			}
			if !inside && !errors.Is(err, ErrCoordinateOutOfRange) {
				t.Fatalf("NewSquare(%d,%d): expected ErrCoordinateOutOfRange, got %v", file, rank, err)
			}
		}
	}

	sq, err := ParseSquare("e4")
	if err != nil || sq != (Square{File: 4, Rank: 3}) {
		t.Fatalf("ParseSquare(e4) = %v, %v", sq, err)
	}
	if sq.String() != "e4" {
		t.Fatalf("String() = %q", sq.String())
	}
	for _, bad := range []string{"", "e", "i1", "a0", "a9", "E4", "e44"} {
		if _, err := ParseSquare(bad); !errors.Is(err, ErrCoordinateOutOfRange) {
			t.Fatalf("ParseSquare(%q): expected ErrCoordinateOutOfRange, got %v", bad, err)
		}
	}

	var b Board
	if _, _, err := b.At(Square{File: 8, Rank: 0}); !errors.Is(err, ErrCoordinateOutOfRange) {
		t.Fatalf("At off-board: expected ErrCoordinateOutOfRange, got %v", err)
	}
}

func TestASCII(t *testing.T) {
	b := mustDecode(t, StartEncoding)
	out := ASCII(b, ASCIIOptions{})
	lines := strings.Split(out, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "8   r  n  b  q  k  b  n  r") {
		t.Fatalf("unexpected top rank line %q", lines[1])
	}
	if !strings.HasPrefix(lines[8], "1   R  N  B  Q  K  B  N  R") {
		t.Fatalf("unexpected bottom rank line %q", lines[8])
	}

	flipped := strings.Split(ASCII(b, ASCIIOptions{Flip: true}), "\n")
	if !strings.HasPrefix(flipped[1], "1   R  N  B  K  Q  B  N  R") {
		t.Fatalf("unexpected flipped first line %q", flipped[1])
	}

	uni := ASCII(b, ASCIIOptions{Unicode: true})
	if !strings.Contains(uni, "♔") || !strings.Contains(uni, "♟") {
		t.Fatalf("unicode glyphs missing:\n%s", uni)
	}

	e2 := Square{File: 4, Rank: 1}
	marked := ASCII(b, ASCIIOptions{Selected: &e2, Marks: []Square{{File: 4, Rank: 2}, {File: 4, Rank: 3}}})
	if !strings.Contains(marked, "<P>") || strings.Count(marked, " * ") != 2 {
		t.Fatalf("selection/marks not drawn:\n%s", marked)
	}
}
