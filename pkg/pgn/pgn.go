// Package pgn splits PGN game records into the positions reached.
package pgn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/notnil/chess"
	"gopkg.in/freeeve/pgn.v1"
)

var (
	ErrMalformed   = errors.New("malformed pgn")
	ErrIllegalMove = errors.New("illegal move")
)

// Position is one position of a game and the move played from it in UCI
// notation. Move is empty for the final position.
type Position struct {
	Fen  string
	Move string
}

type Game struct {
	Tags      map[string]string
	Positions []Position
}

func Parse(r io.Reader) ([]Game, error) {
	ps := pgn.NewPGNScanner(r)

	var games []Game
	for ps.Next() {
		g, err := ps.Scan()
		if err != nil {
			return nil, fmt.Errorf("%w: game %d: %w", ErrMalformed, len(games)+1, err)
		}
		// Trailing whitespace scans as a game with neither tags nor moves.
		if len(g.Tags) == 0 && len(g.Moves) == 0 {
			continue
		}
		game, err := replay(g)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", len(games)+1, err)
		}
		games = append(games, game)
	}
	return games, nil
}

func ParseString(s string) ([]Game, error) {
	return Parse(strings.NewReader(s))
}

func ParseFile(path string) ([]Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func replay(g *pgn.Game) (Game, error) {
	b := pgn.NewBoard()
	if fen, ok := g.Tags["FEN"]; ok {
		var err error
		if b, err = pgn.NewBoardFEN(fen); err != nil {
			return Game{}, fmt.Errorf("%w: bad FEN tag: %w", ErrMalformed, err)
		}
	}

	game := Game{
		Tags:      g.Tags,
		Positions: make([]Position, 0, len(g.Moves)+1),
	}
	fen := b.String()
	for i, move := range g.Moves {
		if err := b.MakeMove(move); err != nil {
			return Game{}, fmt.Errorf("%w at ply %d: %w", ErrIllegalMove, i+1, err)
		}
		next := b.String()
		uci, err := moveBetween(fen, next)
		if err != nil {
			return Game{}, fmt.Errorf("ply %d: %w", i+1, err)
		}
		game.Positions = append(game.Positions, Position{Fen: fen, Move: uci})
		fen = next
	}
	game.Positions = append(game.Positions, Position{Fen: fen})
	return game, nil
}

// moveBetween finds the legal move leading from one position to the next.
func moveBetween(before, after string) (string, error) {
	opt, err := chess.FEN(before)
	if err != nil {
		return "", err
	}
	pos := chess.NewGame(opt).Position()
	target := placement(after)
	for _, m := range pos.ValidMoves() {
		if placement(pos.Update(m).String()) == target {
			return chess.UCINotation{}.Encode(pos, m), nil
		}
	}
	return "", fmt.Errorf("%w: no move leads from %q to %q", ErrIllegalMove, before, after)
}

func placement(fen string) string {
	if i := strings.IndexByte(fen, ' '); i >= 0 {
		return fen[:i]
	}
	return fen
}
