package game

import (
	"strings"
	"time"
)

// hintState tracks the masked rendering of the secret word and the reveal
// schedule for the drawing phase. Reveals are driven off wall-clock elapsed
// time rather than tick counts so the cadence survives scheduler jitter.
type hintState struct {
	word      string
	positions []int // permuted indexes of non-space runes, reveal order
	revealed  map[int]bool
	maxHints  int
	interval  time.Duration
	startedAt time.Time
}

func newHintState(word string, drawTime int, now time.Time, randIntn func(int) int) *hintState {
	runes := []rune(word)
	positions := make([]int, 0, len(runes))
	for i, r := range runes {
		if r != ' ' {
			positions = append(positions, i)
		}
	}
	for i := len(positions) - 1; i > 0; i-- {
		j := randIntn(i + 1)
		positions[i], positions[j] = positions[j], positions[i]
	}

	h := &hintState{
		word:      word,
		positions: positions,
		revealed:  make(map[int]bool),
		startedAt: now,
	}
	if len(runes) > 3 {
		h.maxHints = len(runes) / 2
		h.interval = time.Duration(drawTime/(h.maxHints+1)) * time.Second
	}
	return h
}

// active reports whether the reveal schedule runs at all. Short words never
// get letter reveals.
func (h *hintState) active() bool {
	return h.maxHints > 0 && h.interval > 0
}

// due returns how many letters should be revealed by now.
func (h *hintState) due(now time.Time) int {
	if !h.active() {
		return 0
	}
	n := int(now.Sub(h.startedAt) / h.interval)
	if n > h.maxHints {
		n = h.maxHints
	}
	if n > len(h.positions) {
		n = len(h.positions)
	}
	return n
}

// revealUpTo uncovers letters until count positions are visible. Reports
// whether anything new was revealed.
func (h *hintState) revealUpTo(count int) bool {
	changed := false
	for i := 0; i < count && i < len(h.positions); i++ {
		pos := h.positions[i]
		if !h.revealed[pos] {
			h.revealed[pos] = true
			changed = true
		}
	}
	return changed
}

// mask renders the current hint string: one underscore per hidden letter, the
// literal letter where revealed, and a multi-space gap for each space so word
// boundaries stay visible without reading as letters.
func (h *hintState) mask() string {
	var b strings.Builder
	for i, r := range []rune(h.word) {
		switch {
		case r == ' ':
			b.WriteString("   ")
		case h.revealed[i]:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (h *hintState) revealedCount() int {
	return len(h.revealed)
}
