package rules

import (
	"fmt"

	"github.com/notnil/chess"
)

var promoByChar = map[byte]chess.PieceType{
	'q': chess.Queen, 'r': chess.Rook, 'b': chess.Bishop, 'n': chess.Knight,
}

// ParseSquare reads a square name such as "e4".
func ParseSquare(name string) (chess.Square, error) {
	if len(name) != 2 || name[0] < 'a' || name[0] > 'h' || name[1] < '1' || name[1] > '8' {
		return chess.NoSquare, fmt.Errorf("bad square %q", name)
	}
	return chess.Square(int(name[1]-'1')*8 + int(name[0]-'a')), nil
}

// MirrorSquare reflects a square across the horizontal middle of the board.
func MirrorSquare(sq chess.Square) chess.Square {
	return sq ^ 56
}

// UciMove is a move in long algebraic form, independent of any position.
type UciMove struct {
	From  chess.Square
	To    chess.Square
	Promo chess.PieceType
}

// ParseUci reads a four or five character move such as "e2e4" or "e7e8q".
func ParseUci(s string) (UciMove, error) {
	if len(s) != 4 && len(s) != 5 {
		return UciMove{}, fmt.Errorf("bad uci move %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return UciMove{}, fmt.Errorf("bad uci move %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return UciMove{}, fmt.Errorf("bad uci move %q: %w", s, err)
	}
	if from == to {
		return UciMove{}, fmt.Errorf("bad uci move %q: null move", s)
	}
	m := UciMove{From: from, To: to, Promo: chess.NoPieceType}
	if len(s) == 5 {
		promo, ok := promoByChar[s[4]]
		if !ok {
			return UciMove{}, fmt.Errorf("bad uci move %q: promotion %q", s, s[4])
		}
		m.Promo = promo
	}
	return m, nil
}

// Mirrored returns the same move seen from the other side of the board.
func (m UciMove) Mirrored() UciMove {
	return UciMove{From: MirrorSquare(m.From), To: MirrorSquare(m.To), Promo: m.Promo}
}

func (m UciMove) String() string {
	s := m.From.String() + m.To.String()
	for c, t := range promoByChar {
		if t == m.Promo {
			s += string(c)
		}
	}
	return s
}
