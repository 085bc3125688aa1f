package vocab

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllMovesLoaded(t *testing.T) {
	assert.Equal(t, 1880, Size())

	for _, uci := range []string{"e2e4", "g1f3", "e1g1", "a7a8n", "h7g8q"} {
		i, ok := Lookup(uci)
		require.True(t, ok, uci)
		back, ok := Uci(i)
		require.True(t, ok)
		assert.Equal(t, uci, back)
	}
}

func TestLookupKnownIndices(t *testing.T) {
	for uci, want := range map[string]int{"a1h8": 0, "a1a2": 13, "e2e4": 311, "e7e8q": 1836} {
		i, ok := Lookup(uci)
		require.True(t, ok, uci)
		assert.Equal(t, want, i, uci)
	}
}

func TestLookupMissing(t *testing.T) {
	// Black promotions never reach the network: positions are always
	// presented with White to move.
	for _, uci := range []string{"e2e1q", "", "zz", "e1c1x"} {
		_, ok := Lookup(uci)
		assert.False(t, ok, uci)
	}
	_, ok := Uci(-1)
	assert.False(t, ok)
	_, ok = Uci(Size())
	assert.False(t, ok)
}

func TestMirror(t *testing.T) {
	assert.Equal(t, "e7e5", Mirror("e2e4"))
	assert.Equal(t, "e2e1q", Mirror("e7e8q"))
	assert.Equal(t, "e8g8", Mirror("e1g1"))
	assert.Equal(t, "bogus", Mirror("bogus"))

	for i := 0; i < Size(); i++ {
		uci, _ := Uci(i)
		assert.Equal(t, uci, Mirror(Mirror(uci)))
		j, ok := Lookup(Mirror(Mirror(uci)))
		require.True(t, ok)
		assert.Equal(t, i, j)
	}
}

func TestConcurrentLoad(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := Lookup("d2d4")
			assert.True(t, ok)
			assert.Equal(t, 1880, Size())
		}()
	}
	wg.Wait()
}

func TestParseRejectsCorruptTables(t *testing.T) {
	for name, data := range map[string]string{
		"not json":     `{"e2e4": `,
		"empty":        `{}`,
		"bad move":     `{"e2e4": 0, "e9e4": 1}`,
		"out of range": `{"e2e4": 0, "d2d4": 2}`,
		"duplicate":    `{"e2e4": 0, "d2d4": 0}`,
	} {
		_, _, err := parse([]byte(data))
		assert.Error(t, err, name)
	}
}
