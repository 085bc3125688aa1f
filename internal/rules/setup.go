// Package rules adapts github.com/notnil/chess to the position descriptor
// used by the encoder: an unvalidated setup that can be mirrored and
// rendered before it is turned into a playable position.
package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

var (
	ErrInvalidFen      = errors.New("invalid fen")
	ErrInvalidPosition = errors.New("invalid chess position")
)

// Setup is a raw position descriptor. Board is indexed by chess.Square,
// so A1 is 0 and H8 is 63.
type Setup struct {
	Board          [64]chess.Piece
	Turn           chess.Color
	Castling       chess.CastleRights
	EnPassant      chess.Square
	HalfMoveClock  int
	FullMoveNumber int
}

var pieceByChar = map[byte]chess.Piece{
	'K': chess.WhiteKing, 'Q': chess.WhiteQueen, 'R': chess.WhiteRook,
	'B': chess.WhiteBishop, 'N': chess.WhiteKnight, 'P': chess.WhitePawn,
	'k': chess.BlackKing, 'q': chess.BlackQueen, 'r': chess.BlackRook,
	'b': chess.BlackBishop, 'n': chess.BlackKnight, 'p': chess.BlackPawn,
}

var charByPieceType = map[chess.PieceType]byte{
	chess.King: 'k', chess.Queen: 'q', chess.Rook: 'r',
	chess.Bishop: 'b', chess.Knight: 'n', chess.Pawn: 'p',
}

// ParseFEN reads a FEN string. The move counters may be omitted, in which
// case "0 1" is assumed.
func ParseFEN(fen string) (Setup, error) {
	fields := strings.Fields(fen)
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	}
	if len(fields) != 6 {
		return Setup{}, fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFen, len(fields))
	}
	normalized := strings.Join(fields, " ")
	if _, err := chess.FEN(normalized); err != nil {
		return Setup{}, fmt.Errorf("%w: %w", ErrInvalidFen, err)
	}

	var s Setup
	if err := s.decodeBoard(fields[0]); err != nil {
		return Setup{}, err
	}
	switch fields[1] {
	case "w":
		s.Turn = chess.White
	case "b":
		s.Turn = chess.Black
	default:
		return Setup{}, fmt.Errorf("%w: bad side to move %q", ErrInvalidFen, fields[1])
	}
	castling, err := parseCastling(fields[2])
	if err != nil {
		return Setup{}, err
	}
	s.Castling = castling

	s.EnPassant = chess.NoSquare
	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return Setup{}, fmt.Errorf("%w: %w", ErrInvalidFen, err)
		}
		s.EnPassant = sq
	}
	if s.HalfMoveClock, err = strconv.Atoi(fields[4]); err != nil || s.HalfMoveClock < 0 {
		return Setup{}, fmt.Errorf("%w: bad halfmove clock %q", ErrInvalidFen, fields[4])
	}
	if s.FullMoveNumber, err = strconv.Atoi(fields[5]); err != nil || s.FullMoveNumber < 1 {
		return Setup{}, fmt.Errorf("%w: bad fullmove number %q", ErrInvalidFen, fields[5])
	}
	return s, nil
}

func (s *Setup) decodeBoard(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFen, len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			p, ok := pieceByChar[c]
			if !ok || file > 7 {
				return fmt.Errorf("%w: bad rank %q", ErrInvalidFen, row)
			}
			s.Board[rank*8+file] = p
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: bad rank %q", ErrInvalidFen, row)
		}
	}
	return nil
}

func parseCastling(field string) (chess.CastleRights, error) {
	if field == "-" {
		return castling(false, false, false, false), nil
	}
	var wk, wq, bk, bq bool
	for _, c := range field {
		switch c {
		case 'K':
			wk = true
		case 'Q':
			wq = true
		case 'k':
			bk = true
		case 'q':
			bq = true
		default:
			return "", fmt.Errorf("%w: bad castling rights %q", ErrInvalidFen, field)
		}
	}
	return castling(wk, wq, bk, bq), nil
}

// castling renders rights in the canonical KQkq order.
func castling(wk, wq, bk, bq bool) chess.CastleRights {
	var sb strings.Builder
	for _, r := range []struct {
		ok bool
		c  byte
	}{{wk, 'K'}, {wq, 'Q'}, {bk, 'k'}, {bq, 'q'}} {
		if r.ok {
			sb.WriteByte(r.c)
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return chess.CastleRights(sb.String())
}

// CanCastle reports the castling right of a color on one side.
func (s Setup) CanCastle(c chess.Color, side chess.Side) bool {
	return s.Castling.CanCastle(c, side)
}

// Mirror reflects the board vertically and swaps colors. The result is
// the same position seen from the other side, with the other side to move.
func (s Setup) Mirror() Setup {
	m := s
	for sq := 0; sq < 64; sq++ {
		p := s.Board[sq]
		if p == chess.NoPiece {
			m.Board[sq^56] = chess.NoPiece
			continue
		}
		m.Board[sq^56] = chess.NewPiece(p.Type(), p.Color().Other())
	}
	m.Turn = s.Turn.Other()
	m.Castling = castling(
		s.CanCastle(chess.Black, chess.KingSide),
		s.CanCastle(chess.Black, chess.QueenSide),
		s.CanCastle(chess.White, chess.KingSide),
		s.CanCastle(chess.White, chess.QueenSide),
	)
	if s.EnPassant != chess.NoSquare {
		m.EnPassant = MirrorSquare(s.EnPassant)
	}
	return m
}

// EPD renders the first four FEN fields: placement, side to move, castling
// and en passant target. Move counters are left out.
func (s Setup) EPD() string {
	fields := strings.Fields(s.FEN())
	return strings.Join(fields[:4], " ")
}

// FEN renders the setup. It does not validate it.
func (s Setup) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := s.Board[rank*8+file]
			if p == chess.NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			c := charByPieceType[p.Type()]
			if p.Color() == chess.White {
				c -= 'a' - 'A'
			}
			sb.WriteByte(c)
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	turn := "w"
	if s.Turn == chess.Black {
		turn = "b"
	}
	rights := string(s.Castling)
	if rights == "" {
		rights = "-"
	}
	ep := "-"
	if s.EnPassant != chess.NoSquare {
		ep = s.EnPassant.String()
	}
	fullMove := s.FullMoveNumber
	if fullMove < 1 {
		fullMove = 1
	}
	return fmt.Sprintf("%s %s %s %s %d %d", sb.String(), turn, rights, ep, s.HalfMoveClock, fullMove)
}
