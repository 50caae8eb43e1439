package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/msgcat"
)

// promptChooser asks on the terminal which piece a pawn becomes.
type promptChooser struct {
	in  lineReader
	out io.Writer
	cat *msgcat.Catalog
}

func (p *promptChooser) Choose(ctx context.Context, options []board.Kind, _ board.Color) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		p.in.SetPrompt(p.cat.Text("promotion.prompt", nil))
		line, err := p.in.Readline()
		if err != nil {
			return 0, fmt.Errorf("read promotion choice: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		for i, k := range options {
			if answer == string(k.Letter()) || answer == strings.ToLower(k.String()) {
				return i, nil
			}
		}
		fmt.Fprintln(p.out, p.cat.Text("promotion.invalid", nil))
	}
}
