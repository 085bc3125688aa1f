package rules

import "github.com/notnil/chess"

var (
	knightJumps = [][2]int{{1, 2}, {2, 1}, {-1, 2}, {-2, 1}, {1, -2}, {2, -1}, {-1, -2}, {-2, -1}}
	kingSteps   = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	straight    = kingSteps[:4]
	diagonal    = kingSteps[4:]
)

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

// attackers counts the pieces of color by attacking target.
func attackers(board *[64]chess.Piece, target int, by chess.Color) int {
	tf, tr := target%8, target/8
	n := 0

	at := func(file, rank int, types ...chess.PieceType) bool {
		if !onBoard(file, rank) {
			return false
		}
		p := board[rank*8+file]
		if p == chess.NoPiece || p.Color() != by {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	// A white pawn attacks upwards, so it stands one rank below its target.
	pawnRank := tr - 1
	if by == chess.Black {
		pawnRank = tr + 1
	}
	for _, df := range []int{-1, 1} {
		if at(tf+df, pawnRank, chess.Pawn) {
			n++
		}
	}
	for _, j := range knightJumps {
		if at(tf+j[0], tr+j[1], chess.Knight) {
			n++
		}
	}
	for _, st := range kingSteps {
		if at(tf+st[0], tr+st[1], chess.King) {
			n++
		}
	}

	slide := func(dirs [][2]int, types ...chess.PieceType) {
		for _, d := range dirs {
			f, r := tf+d[0], tr+d[1]
			for onBoard(f, r) {
				if board[r*8+f] != chess.NoPiece {
					if at(f, r, types...) {
						n++
					}
					break
				}
				f, r = f+d[0], r+d[1]
			}
		}
	}
	slide(straight, chess.Rook, chess.Queen)
	slide(diagonal, chess.Bishop, chess.Queen)
	return n
}
