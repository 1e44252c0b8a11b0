package game

import "time"

// roomTimers is the fixed set of timer handles a room may hold. Each kind is
// independently cancellable by nilling its slot, and the whole set clears in
// one place when the room resets, restarts, or dies. All handles live on the
// room's actor goroutine and advance only through handleTick, so a cancelled
// handle can never fire again.
type roomTimers struct {
	choice  *countdown
	draw    *countdown
	hint    *hintState
	advance *advanceTimer
}

// countdown is a 1-second-granularity timer driven by the lobby tick fan-out.
type countdown struct {
	remaining int
}

// advanceTimer delays a turn advance (the round-end display pause and the
// all-guessed celebration window) without blocking the actor.
type advanceTimer struct {
	at time.Time
}

func (t *roomTimers) cancelChoice()  { t.choice = nil }
func (t *roomTimers) cancelDraw()    { t.draw = nil }
func (t *roomTimers) cancelHint()    { t.hint = nil }
func (t *roomTimers) cancelAdvance() { t.advance = nil }

func (t *roomTimers) cancelAll() {
	t.choice = nil
	t.draw = nil
	t.hint = nil
	t.advance = nil
}

func (t *roomTimers) startChoice(seconds int) {
	t.choice = &countdown{remaining: seconds}
}

func (t *roomTimers) startDraw(seconds int) {
	t.draw = &countdown{remaining: seconds}
}

func (t *roomTimers) startHint(h *hintState) {
	if h.active() {
		t.hint = h
	} else {
		t.hint = nil
	}
}

func (t *roomTimers) startAdvance(now time.Time, delay time.Duration) {
	t.advance = &advanceTimer{at: now.Add(delay)}
}
