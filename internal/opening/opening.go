// Package opening names the ECO opening reached by a game's move history.
package opening

import (
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	ecobook "github.com/corentings/chess/v2/opening"

	"github.com/park285/chessfront/internal/board"
)

type Opening struct {
	Code  string
	Title string
}

var (
	bookOnce sync.Once
	book     *ecobook.BookECO
)

func ecoBook() *ecobook.BookECO {
	bookOnce.Do(func() { book = ecobook.NewBookECO() })
	return book
}

// Identify replays history ("e2 e4" entries) from the standard start and
// returns the deepest named opening. It reports false when the replay does
// not end on encoding's layout, as for a game that started elsewhere.
func Identify(history []string, encoding string) (Opening, bool) {
	if len(history) == 0 {
		return Opening{}, false
	}
	game := nchess.NewGame()
	for _, entry := range history {
		if !push(game, entry) {
			return Opening{}, false
		}
	}
	if board.LayoutField(game.FEN()) != board.LayoutField(encoding) {
		return Opening{}, false
	}
	eco := ecoBook().Find(game.Moves())
	if eco == nil {
		return Opening{}, false
	}
	return Opening{Code: eco.Code(), Title: eco.Title()}, true
}

func push(game *nchess.Game, entry string) bool {
	uci := strings.ReplaceAll(strings.TrimSpace(entry), " ", "")
	if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err == nil {
		return true
	}
	// history carries no promotion letter
	return game.PushNotationMove(uci+"q", nchess.UCINotation{}, nil) == nil
}
