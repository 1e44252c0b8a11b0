package game

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRand(n int) int { return 0 }

func TestHintState_ShortWordsNeverReveal(t *testing.T) {
	t.Parallel()
	h := newHintState("cat", 80, baseTime(), fixedRand)

	assert.False(t, h.active())
	assert.Equal(t, "___", h.mask())
	assert.Zero(t, h.due(baseTime().Add(time.Hour)))
}

func TestHintState_Schedule(t *testing.T) {
	t.Parallel()
	start := baseTime()
	// 8 letters: 4 reveals max, one every 80/(4+1) = 16 seconds.
	h := newHintState("elephant", 80, start, fixedRand)

	require.True(t, h.active())
	assert.Equal(t, 4, h.maxHints)
	assert.Equal(t, 16*time.Second, h.interval)
	assert.Equal(t, "________", h.mask())

	assert.Zero(t, h.due(start))
	assert.Zero(t, h.due(start.Add(15*time.Second)))
	assert.Equal(t, 1, h.due(start.Add(16*time.Second)))
	assert.Equal(t, 2, h.due(start.Add(33*time.Second)))
	// The cap holds no matter how much time passes.
	assert.Equal(t, 4, h.due(start.Add(time.Hour)))
}

func TestHintState_RevealUpTo(t *testing.T) {
	t.Parallel()
	h := newHintState("elephant", 80, baseTime(), fixedRand)

	assert.True(t, h.revealUpTo(1))
	assert.Equal(t, 1, h.revealedCount())
	assert.Equal(t, 7, strings.Count(h.mask(), "_"))

	// Asking for the same count again reveals nothing new.
	assert.False(t, h.revealUpTo(1))

	assert.True(t, h.revealUpTo(3))
	assert.Equal(t, 3, h.revealedCount())
	assert.Equal(t, 5, strings.Count(h.mask(), "_"))

	// Revealed letters are the word's own letters in place.
	for i, r := range []rune(h.word) {
		if h.revealed[i] {
			assert.Equal(t, r, []rune(h.mask())[i])
		}
	}
}

func TestHintState_SpacesStayVisible(t *testing.T) {
	t.Parallel()
	h := newHintState("hot dog", 80, baseTime(), fixedRand)

	assert.Equal(t, "___   ___", h.mask())

	// 7 runes: 3 reveals, none of them the space.
	assert.Equal(t, 3, h.maxHints)
	h.revealUpTo(len(h.positions))
	assert.NotContains(t, h.mask(), "_")
	assert.Contains(t, h.mask(), "   ")
	assert.False(t, h.revealed[3])
}
