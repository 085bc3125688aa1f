// Package encoding turns positions into the network's board planes.
package encoding

import (
	"fmt"

	"github.com/chess-vn/maia/internal/rules"
	"github.com/notnil/chess"
	"gorgonia.org/tensor"
)

// Plane layout of one position. Channels 0..5 hold White's pawn, knight,
// bishop, rook, queen and king; 6..11 the same for Black.
const (
	Channels = 18
	Ranks    = 8
	Files    = 8

	planeSize = Ranks * Files
	itemSize  = Channels * planeSize

	turnChannel      = 12
	castlingChannel  = 13
	enPassantChannel = 17
)

var pieceChannel = map[chess.PieceType]int{
	chess.Pawn:   0,
	chess.Knight: 1,
	chess.Bishop: 2,
	chess.Rook:   3,
	chess.Queen:  4,
	chess.King:   5,
}

var castlingOrder = []struct {
	color chess.Color
	side  chess.Side
}{
	{chess.White, chess.KingSide},
	{chess.White, chess.QueenSide},
	{chess.Black, chess.KingSide},
	{chess.Black, chess.QueenSide},
}

// Batch is a set of positions ready for the network. Every position is
// presented with White to move; Mirrored records which ones were flipped
// and Positions holds the (possibly mirrored) legal move generators.
type Batch struct {
	Boards    *tensor.Dense
	Mirrored  []bool
	Positions []*chess.Position
}

func (b Batch) Len() int {
	return len(b.Mirrored)
}

// Encode validates and encodes setups into a [B, 18, 8, 8] float32 tensor.
// Black to move positions are mirrored first. An empty input yields an
// empty batch with no tensor.
func Encode(setups []rules.Setup) (Batch, error) {
	if len(setups) == 0 {
		return Batch{}, nil
	}
	data := make([]float32, len(setups)*itemSize)
	batch := Batch{
		Mirrored:  make([]bool, len(setups)),
		Positions: make([]*chess.Position, len(setups)),
	}
	for i, setup := range setups {
		if err := setup.Validate(); err != nil {
			return Batch{}, fmt.Errorf("position %d: %w", i, err)
		}
		mirrored := setup.Turn == chess.Black
		if mirrored {
			setup = setup.Mirror()
		}
		pos, err := rules.NewPosition(setup)
		if err != nil {
			return Batch{}, fmt.Errorf("position %d: %w", i, err)
		}
		EncodeSetup(setup, data[i*itemSize:(i+1)*itemSize])
		batch.Mirrored[i] = mirrored
		batch.Positions[i] = pos
	}
	batch.Boards = tensor.New(
		tensor.WithShape(len(setups), Channels, Ranks, Files),
		tensor.WithBacking(data),
	)
	return batch, nil
}

// EncodeSetup writes the planes of s as is into dst, which must be zeroed
// and hold 18*64 values. Cell (channel, rank, file) lives at
// channel*64 + rank*8 + file with rank 0 being White's back rank.
func EncodeSetup(s rules.Setup, dst []float32) {
	for sq, p := range s.Board {
		if p == chess.NoPiece {
			continue
		}
		c := pieceChannel[p.Type()]
		if p.Color() == chess.Black {
			c += 6
		}
		dst[c*planeSize+sq] = 1
	}
	if s.Turn == chess.White {
		fill(dst, turnChannel)
	}
	for i, r := range castlingOrder {
		if s.CanCastle(r.color, r.side) {
			fill(dst, castlingChannel+i)
		}
	}
	if s.EnPassant != chess.NoSquare {
		dst[enPassantChannel*planeSize+int(s.EnPassant)] = 1
	}
}

func fill(dst []float32, channel int) {
	plane := dst[channel*planeSize : (channel+1)*planeSize]
	for i := range plane {
		plane[i] = 1
	}
}
