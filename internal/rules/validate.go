package rules

import (
	"fmt"

	"github.com/notnil/chess"
)

// Validate checks that the setup describes a position that can arise in a
// standard game closely enough for move generation to be sound.
func (s Setup) Validate() error {
	if s.Turn != chess.White && s.Turn != chess.Black {
		return fmt.Errorf("%w: no side to move", ErrInvalidPosition)
	}

	kings := map[chess.Color][]int{}
	pieces := map[chess.Color]int{}
	pawns := map[chess.Color]int{}
	for sq, p := range s.Board {
		if p == chess.NoPiece {
			continue
		}
		pieces[p.Color()]++
		switch p.Type() {
		case chess.King:
			kings[p.Color()] = append(kings[p.Color()], sq)
		case chess.Pawn:
			pawns[p.Color()]++
			if rank := sq / 8; rank == 0 || rank == 7 {
				return fmt.Errorf("%w: pawn on backrank %s", ErrInvalidPosition, chess.Square(sq))
			}
		}
	}
	for _, c := range []chess.Color{chess.White, chess.Black} {
		switch n := len(kings[c]); {
		case n == 0:
			return fmt.Errorf("%w: missing %s king", ErrInvalidPosition, colorName(c))
		case n > 1:
			return fmt.Errorf("%w: too many %s kings", ErrInvalidPosition, colorName(c))
		}
		if pieces[c] > 16 || pawns[c] > 8 {
			return fmt.Errorf("%w: too much %s material", ErrInvalidPosition, colorName(c))
		}
	}

	if err := s.validateCastling(); err != nil {
		return err
	}
	if err := s.validateEnPassant(); err != nil {
		return err
	}

	them := s.Turn.Other()
	if attackers(&s.Board, kings[them][0], s.Turn) > 0 {
		return fmt.Errorf("%w: %s king in check with %s to move",
			ErrInvalidPosition, colorName(them), colorName(s.Turn))
	}
	if attackers(&s.Board, kings[s.Turn][0], them) > 2 {
		return fmt.Errorf("%w: impossible check", ErrInvalidPosition)
	}
	return nil
}

var castlingHome = []struct {
	color chess.Color
	side  chess.Side
	king  chess.Square
	rook  chess.Square
}{
	{chess.White, chess.KingSide, chess.E1, chess.H1},
	{chess.White, chess.QueenSide, chess.E1, chess.A1},
	{chess.Black, chess.KingSide, chess.E8, chess.H8},
	{chess.Black, chess.QueenSide, chess.E8, chess.A8},
}

func (s Setup) validateCastling() error {
	for _, h := range castlingHome {
		if !s.CanCastle(h.color, h.side) {
			continue
		}
		if s.Board[h.king] != chess.NewPiece(chess.King, h.color) ||
			s.Board[h.rook] != chess.NewPiece(chess.Rook, h.color) {
			return fmt.Errorf("%w: castling rights %s without king and rook at home",
				ErrInvalidPosition, s.Castling)
		}
	}
	return nil
}

// validateEnPassant requires the target square to sit behind a pawn that
// just made a double step.
func (s Setup) validateEnPassant() error {
	if s.EnPassant == chess.NoSquare {
		return nil
	}
	ep := int(s.EnPassant)
	targetRank, pushed, origin := 5, ep-8, ep+8
	if s.Turn == chess.Black {
		targetRank, pushed, origin = 2, ep+8, ep-8
	}
	if ep/8 != targetRank ||
		s.Board[ep] != chess.NoPiece ||
		s.Board[origin] != chess.NoPiece ||
		s.Board[pushed] != chess.NewPiece(chess.Pawn, s.Turn.Other()) {
		return fmt.Errorf("%w: bad en passant square %s", ErrInvalidPosition, s.EnPassant)
	}
	return nil
}

// NewPosition validates the setup and builds a position the rules engine
// can generate moves for.
func NewPosition(s Setup) (*chess.Position, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	withFen, err := chess.FEN(s.FEN())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	g := chess.NewGame(withFen, chess.UseNotation(chess.UCINotation{}))
	return g.Position(), nil
}

// LegalMoves lists the legal moves of pos in UCI notation, in the order the
// rules engine generates them.
func LegalMoves(pos *chess.Position) []string {
	moves := pos.ValidMoves()
	notation := chess.UCINotation{}
	ucis := make([]string, 0, len(moves))
	for _, m := range moves {
		ucis = append(ucis, notation.Encode(pos, m))
	}
	return ucis
}

func colorName(c chess.Color) string {
	if c == chess.Black {
		return "black"
	}
	return "white"
}
