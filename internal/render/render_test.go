package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/park285/chessfront/internal/board"
)

func startBoard(t *testing.T) board.Board {
	t.Helper()
	b, err := board.Decode(board.StartEncoding)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return b
}

func centerOf(sq board.Square, flip bool) image.Point {
	r := squareRect(sq, image.Pt(Margin, Margin), flip)
	return image.Pt(r.Min.X+SquareSize/2, r.Min.Y+SquareSize/2)
}

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

func TestPNGDecodes(t *testing.T) {
	data, err := PNG(context.Background(), startBoard(t), Options{Caption: "White to move"})
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Size(Options{Caption: "x"})
	if img.Bounds().Dx() != want.X || img.Bounds().Dy() != want.Y {
		t.Fatalf("size = %v, want %v", img.Bounds().Size(), want)
	}
	if Size(Options{}).Y >= want.Y {
		t.Fatalf("caption should add height")
	}
}

func TestPiecesAndOverlays(t *testing.T) {
	ctx := context.Background()
	e1 := board.Square{File: 4, Rank: 0}
	e4 := board.Square{File: 4, Rank: 3}
	e2 := board.Square{File: 4, Rank: 1}

	plain, err := Image(ctx, startBoard(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if p := centerOf(e4, false); !sameColor(plain.At(p.X, p.Y), squareColor(e4)) {
		t.Fatalf("empty e4 should show the bare square")
	}
	if p := centerOf(e1, false); sameColor(plain.At(p.X, p.Y), squareColor(e1)) {
		t.Fatalf("king missing on e1")
	}

	marked, err := Image(ctx, startBoard(t), Options{Selected: &e2, Targets: []board.Square{e4}})
	if err != nil {
		t.Fatal(err)
	}
	corner := squareRect(e2, image.Pt(Margin, Margin), false).Min.Add(image.Pt(2, 2))
	if sameColor(marked.At(corner.X, corner.Y), plain.At(corner.X, corner.Y)) {
		t.Fatalf("selection overlay missing")
	}
	if p := centerOf(e4, false); sameColor(marked.At(p.X, p.Y), plain.At(p.X, p.Y)) {
		t.Fatalf("target dot missing")
	}
}

func TestFlip(t *testing.T) {
	a1 := board.Square{File: 0, Rank: 0}
	h8 := board.Square{File: 7, Rank: 7}
	if squareRect(a1, image.Point{}, true) != squareRect(h8, image.Point{}, false) {
		t.Fatalf("flipped a1 should sit where h8 does")
	}
	if squareRect(a1, image.Point{}, false).Min != image.Pt(0, 7*SquareSize) {
		t.Fatalf("a1 should be bottom-left")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := PNG(ctx, startBoard(t), Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestEveryPieceRenders(t *testing.T) {
	for _, c := range []board.Color{board.White, board.Black} {
		for k := range pieceShapes {
			if _, err := pieceImage(board.Piece{Kind: k, Color: c}, 32); err != nil {
				t.Fatalf("%v %v: %v", c, k, err)
			}
		}
	}
	if _, err := pieceSVG(board.Piece{}); err == nil {
		t.Fatalf("expected error for empty piece")
	}
}
