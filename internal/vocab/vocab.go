// Package vocab holds the fixed move vocabulary of the network's policy
// head: every UCI move the network scores, keyed to its output index.
package vocab

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chess-vn/maia/internal/rules"
)

//go:embed data/all_moves.json
var allMovesJSON []byte

var (
	once    sync.Once
	indices map[string]int
	moves   []string
)

func load() {
	once.Do(func() {
		idx, list, err := parse(allMovesJSON)
		if err != nil {
			panic(fmt.Sprintf("vocab: corrupt embedded move table: %v", err))
		}
		indices, moves = idx, list
	})
}

func parse(data []byte) (map[string]int, []string, error) {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal move table: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("empty move table")
	}
	list := make([]string, len(raw))
	for uci, i := range raw {
		if _, err := rules.ParseUci(uci); err != nil {
			return nil, nil, err
		}
		if i < 0 || i >= len(raw) {
			return nil, nil, fmt.Errorf("index %d of %q out of range", i, uci)
		}
		if list[i] != "" {
			return nil, nil, fmt.Errorf("index %d used by %q and %q", i, list[i], uci)
		}
		list[i] = uci
	}
	return raw, list, nil
}

// Size is the width of the policy head.
func Size() int {
	load()
	return len(moves)
}

// Lookup returns the policy index of a move. Rare moves the network was
// never trained on are absent.
func Lookup(uci string) (int, bool) {
	load()
	i, ok := indices[uci]
	return i, ok
}

// Uci returns the move scored at policy index i.
func Uci(i int) (string, bool) {
	load()
	if i < 0 || i >= len(moves) {
		return "", false
	}
	return moves[i], true
}

// Mirror maps a move onto the vertically reflected board, keeping any
// promotion. Malformed input is returned unchanged.
func Mirror(uci string) string {
	m, err := rules.ParseUci(uci)
	if err != nil {
		return uci
	}
	return m.Mirrored().String()
}
