package moves

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/chessfront/internal/board"
)

func sq(t *testing.T, s string) board.Square {
	t.Helper()
	v, err := board.ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return v
}

func TestBuildSingleMove(t *testing.T) {
	const enc1 = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	idx, err := Build([]Entry{{Notation: "e2 e4", Result: enc1, Outcome: "NoEnd"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := idx.From(board.Square{File: 4, Rank: 1})
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	want := []Candidate{{To: board.Square{File: 4, Rank: 3}, Result: enc1, Outcome: board.Ongoing}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bucket mismatch (-want +got):\n%s", diff)
	}
	if idx.Len() != 1 {
		t.Fatalf("Len() = %d", idx.Len())
	}
	if diff := cmp.Diff([]board.Square{{File: 4, Rank: 1}}, idx.Origins()); diff != "" {
		t.Fatalf("origins mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildKeepsInsertionOrder(t *testing.T) {
	entries := []Entry{
		{"e7 e8", "r1", "NoEnd"},
		{"g1 f3", "n1", "NoEnd"},
		{"e7 e8", "r2", "Tie"},
		{"e7 d8", "r3", "WhiteWin"},
		{"e7 e8", "r4", "BlackWin"},
	}
	idx, err := Build(entries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	bucket, _ := idx.From(sq(t, "e7"))
	var results []string
	for _, c := range bucket {
		results = append(results, c.Result)
	}
	if diff := cmp.Diff([]string{"r1", "r2", "r3", "r4"}, results); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	between, err := idx.Between(sq(t, "e7"), sq(t, "e8"))
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	want := []Candidate{
		{To: sq(t, "e8"), Result: "r1", Outcome: board.Ongoing},
		{To: sq(t, "e8"), Result: "r2", Outcome: board.Draw},
		{To: sq(t, "e8"), Result: "r4", Outcome: board.BlackWins},
	}
	if diff := cmp.Diff(want, between); diff != "" {
		t.Fatalf("between mismatch (-want +got):\n%s", diff)
	}

	dests, _ := idx.Destinations(sq(t, "e7"))
	if diff := cmp.Diff([]board.Square{sq(t, "e8"), sq(t, "d8")}, dests); diff != "" {
		t.Fatalf("destinations mismatch (-want +got):\n%s", diff)
	}
	if idx.Len() != len(entries) {
		t.Fatalf("Len() = %d, want %d", idx.Len(), len(entries))
	}
	// g1 sorts before e7 in a1-first order
	if diff := cmp.Diff([]board.Square{sq(t, "g1"), sq(t, "e7")}, idx.Origins()); diff != "" {
		t.Fatalf("origins mismatch (-want +got):\n%s", diff)
	}
}

func TestFromReturnsCopy(t *testing.T) {
	idx, err := Build([]Entry{{"a2 a3", "x", "NoEnd"}})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := idx.From(sq(t, "a2"))
	b[0].Result = "mutated"
	again, _ := idx.From(sq(t, "a2"))
	if again[0].Result != "x" {
		t.Fatalf("index bucket aliased by caller")
	}
}

func TestLookupBounds(t *testing.T) {
	idx, err := Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	for file := -1; file <= 8; file++ {
		for rank := -1; rank <= 8; rank++ {
			s := board.Square{File: file, Rank: rank}
			got, err := idx.From(s)
			if s.Valid() {
				if err != nil || len(got) != 0 {
					t.Fatalf("From(%d,%d) = %v, %v", file, rank, got, err)
				}
				continue
			}
			if !errors.Is(err, board.ErrCoordinateOutOfRange) {
				t.Fatalf("From(%d,%d): expected ErrCoordinateOutOfRange, got %v", file, rank, err)
			}
		}
	}
	if _, err := idx.Between(sq(t, "a1"), board.Square{File: 0, Rank: 8}); !errors.Is(err, board.ErrCoordinateOutOfRange) {
		t.Fatalf("Between: expected ErrCoordinateOutOfRange, got %v", err)
	}
}

func TestBuildRejects(t *testing.T) {
	cases := []struct {
		name  string
		entry Entry
		want  error
	}{
		{"short", Entry{"e2e4", "x", "NoEnd"}, ErrMalformedMoveNotation},
		{"long", Entry{"e2  e4", "x", "NoEnd"}, ErrMalformedMoveNotation},
		{"no space", Entry{"e2-e4", "x", "NoEnd"}, ErrMalformedMoveNotation},
		{"bad file", Entry{"i2 e4", "x", "NoEnd"}, ErrMalformedMoveNotation},
		{"bad rank", Entry{"e2 e9", "x", "NoEnd"}, ErrMalformedMoveNotation},
		{"rank zero", Entry{"e0 e4", "x", "NoEnd"}, ErrMalformedMoveNotation},
		{"bad outcome", Entry{"e2 e4", "x", "Checkmate"}, board.ErrMalformedEncoding},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := Build([]Entry{{"a2 a3", "ok", "NoEnd"}, tc.entry})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if idx != nil {
				t.Fatalf("partial index returned")
			}
		})
	}
}

func TestNotationRoundTrip(t *testing.T) {
	for file := 0; file < 8; file++ {
		for rank := 0; rank < 8; rank++ {
			from := board.Square{File: file, Rank: rank}
			to := board.Square{File: 7 - file, Rank: 7 - rank}
			s := FormatNotation(from, to)
			f, g, err := ParseNotation(s)
			if err != nil || f != from || g != to {
				t.Fatalf("ParseNotation(%q) = %v %v %v", s, f, g, err)
			}
		}
	}
}
