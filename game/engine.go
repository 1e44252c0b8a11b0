package game

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/tarinagarwal/Skribbl-production/domain"
)

// start begins a game: owner only, at least two connected players.
func (r *Room) start(caller *Player) error {
	if caller.id != r.ownerID {
		return domain.ErrNotOwner
	}
	if r.status != StatusWaiting {
		return domain.ErrWrongPhase
	}

	// Seats restored from persistence that never reconnected lose their spot
	// when a new game actually starts; turn order keeps the survivors' order.
	kept := r.players[:0]
	for _, p := range r.players {
		if p.session != nil {
			kept = append(kept, p)
		}
	}
	r.players = kept

	if len(r.players) < MinPlayersToStart {
		return domain.ErrNotEnough
	}
	if r.playerByID(r.ownerID) == nil {
		r.ownerID = r.players[0].id
	}

	r.status = StatusPlaying
	r.round = 1
	for _, p := range r.players {
		p.hasGuessed = false
	}
	r.enterChoosing(0)

	rec := r.record()
	r.persistAsync("room start", func(ctx context.Context) error {
		return r.store.UpdateRoom(ctx, rec)
	})
	r.pushDescription()
	r.log.Info().Int("players", len(r.players)).Msg("game started")
	return nil
}

// enterChoosing opens a turn: picks the drawer by index, draws word choices
// and arms the choice timer.
func (r *Room) enterChoosing(drawerIdx int) {
	r.timers.cancelAll()
	r.drawerID = r.players[drawerIdx].id
	r.currentWord = ""
	r.hints = nil
	r.wordChoices = r.drawWords()
	r.phase = PhaseChoosing
	r.timeLeft = choosingSeconds
	r.timers.startChoice(choosingSeconds)

	r.players[drawerIdx].Send(mustEnvelope(PacketWordChoices, r.wordChoices))
	r.broadcastRoom()
}

// selectWord is the drawer's explicit pick. A word outside the offered
// choices is rejected outright; accepting it would let the drawer draw a
// word that may not even exist in the catalog.
func (r *Room) selectWord(caller *Player, word string) error {
	if r.status != StatusPlaying || r.phase != PhaseChoosing {
		return domain.ErrWrongPhase
	}
	if caller.id != r.drawerID {
		return domain.ErrNotDrawer
	}
	ok := false
	for _, w := range r.wordChoices {
		if w == word {
			ok = true
			break
		}
	}
	if !ok {
		return domain.ErrBadWordChoice
	}
	r.applySelectWord(word, r.now())
	return nil
}

// applySelectWord performs the choosing → drawing transition. Also the
// choice-timer expiry path, which auto-picks the first offered word.
func (r *Room) applySelectWord(word string, now time.Time) {
	r.timers.cancelChoice()
	r.wordChoices = nil
	r.currentWord = word
	r.hints = newHintState(word, r.configs.DrawTime, now, r.randIntn)
	r.phase = PhaseDrawing
	r.timeLeft = r.configs.DrawTime
	r.timers.startDraw(r.configs.DrawTime)
	r.timers.startHint(r.hints)

	drawerName := ""
	if d := r.playerByID(r.drawerID); d != nil {
		drawerName = d.name
	}
	r.broadcastEvent(PacketWordPicked, map[string]string{
		"drawerName": drawerName,
		"hints":      r.hints.mask(),
	})
	r.broadcastRoom()
	r.log.Info().Str("phase", string(r.phase)).Msg("word selected")
}

// handleChat treats every line as a potential guess first, then as chat.
func (r *Room) handleChat(from *Player, text string) {
	text = sanitizeChat(text)
	if text == "" {
		return
	}

	if r.isCorrectGuess(from, text) {
		r.scoreGuess(from)
		return
	}

	r.broadcastChat(from, text)
	line := domain.ChatRecord{
		RoomID:        r.id,
		ParticipantID: from.id,
		Message:       text,
	}
	r.persistAsync("append chat", func(ctx context.Context) error {
		return r.store.AppendChat(ctx, line)
	})
}

func (r *Room) isCorrectGuess(from *Player, text string) bool {
	if r.status != StatusPlaying || r.phase != PhaseDrawing {
		return false
	}
	// The drawer can never guess; neither can someone who already has.
	if from.id == r.drawerID || from.hasGuessed {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(text), r.currentWord)
}

func (r *Room) scoreGuess(from *Player) {
	points := 100 + r.timeLeft*50/r.configs.DrawTime
	if points < 10 {
		points = 10
	}
	from.score += points
	from.hasGuessed = true

	// The drawer earns a flat bonus per distinct correct guesser, uncapped.
	if drawer := r.playerByID(r.drawerID); drawer != nil {
		drawer.score += 25
		drawerID, drawerScore := drawer.id, drawer.score
		r.persistAsync("upsert drawer score", func(ctx context.Context) error {
			return r.store.UpsertScore(ctx, r.id, drawerID, drawerScore)
		})
	}
	guesserID, guesserScore := from.id, from.score
	r.persistAsync("upsert guesser score", func(ctx context.Context) error {
		return r.store.UpsertScore(ctx, r.id, guesserID, guesserScore)
	})
	guess := domain.ChatRecord{
		RoomID:        r.id,
		ParticipantID: from.id,
		Message:       r.currentWord,
		CorrectGuess:  true,
	}
	r.persistAsync("append guess", func(ctx context.Context) error {
		return r.store.AppendChat(ctx, guess)
	})

	// The reveal carries the word only for recipients who may see it.
	allowed := playersWhoCanSeeWord(r)
	r.broadcastEventTo(allowed, PacketCorrect, correctGuessNotice{
		PlayerID: from.id,
		Name:     from.name,
		Points:   points,
		Word:     r.currentWord,
	})
	r.broadcastEvent(PacketChat, chatBroadcast{
		From:    "system",
		Message: from.name + " guessed the word!",
		System:  true,
	})
	r.broadcastRoom()
	r.log.Info().Str("player", from.name).Int("points", points).Msg("correct guess")

	if r.allGuessed() {
		r.endTurn(r.now())
	}
}

func (r *Room) allGuessed() bool {
	guessers := 0
	for _, p := range r.players {
		if p.id == r.drawerID {
			continue
		}
		if !p.hasGuessed {
			return false
		}
		guessers++
	}
	return guessers > 0
}

// handleDraw relays one stroke. Anything invalid is dropped without a reply
// so a single bad frame never interrupts the stream.
func (r *Room) handleDraw(from *Player, raw json.RawMessage) {
	if r.status != StatusPlaying || r.phase != PhaseDrawing || from.id != r.drawerID {
		return
	}
	if !validStroke(raw) {
		return
	}
	frame := mustEnvelope(PacketDraw, raw)
	if len(r.drawing) >= maxDrawLog {
		r.drawing = r.drawing[1:]
	}
	r.drawing = append(r.drawing, frame)
	r.broadcastExcept(from.id, frame)
}

func (r *Room) clearCanvas(from *Player) error {
	if r.status != StatusPlaying {
		return domain.ErrWrongPhase
	}
	if from.id != r.drawerID {
		return domain.ErrNotDrawer
	}
	r.drawing = nil
	r.broadcastExcept(from.id, mustEnvelope(PacketClearCanvas, struct{}{}))
	return nil
}

// endTurn closes the drawing phase and shows results for a fixed pause
// before the rotation advances. Idempotent: the draw-timer expiry and the
// all-guessed fast path can both reach it in the same second.
func (r *Room) endTurn(now time.Time) {
	if r.phase == PhaseResults {
		return
	}
	r.timers.cancelChoice()
	r.timers.cancelDraw()
	r.timers.cancelHint()
	r.phase = PhaseResults
	r.timeLeft = 0

	drawerName := ""
	if d := r.playerByID(r.drawerID); d != nil {
		drawerName = d.name
	}
	r.broadcastEvent(PacketRoundEnd, roundEndNotice{
		Word:       r.currentWord,
		DrawerName: drawerName,
		Round:      r.round,
		MaxRounds:  r.configs.MaxRounds,
	})
	r.broadcastRoom()
	r.timers.startAdvance(now, resultsSeconds)
}

// nextTurn rotates the drawer and either opens the next choosing phase or
// finishes the game. A vanished drawer restarts the rotation from the front.
func (r *Room) nextTurn(now time.Time) {
	r.timers.cancelAll()
	if r.status != StatusPlaying || len(r.players) == 0 {
		return
	}

	idx := r.playerIndex(r.drawerID)
	next := (idx + 1) % len(r.players)
	if next == 0 {
		r.round++
	}

	if r.round > r.configs.MaxRounds {
		r.finish(now)
		return
	}

	for _, p := range r.players {
		p.hasGuessed = false
	}
	r.currentWord = ""
	r.drawing = nil
	r.hints = nil
	r.broadcastEvent(PacketTurnStart, map[string]int{"round": r.round})
	r.enterChoosing(next)

	rec := r.record()
	r.persistAsync("room round", func(ctx context.Context) error {
		return r.store.UpdateRoom(ctx, rec)
	})
}

func (r *Room) finish(now time.Time) {
	r.status = StatusFinished
	r.phase = PhaseNone
	r.currentWord = ""
	r.wordChoices = nil
	r.hints = nil
	r.drawing = nil
	r.drawerID = ""
	r.timeLeft = 0
	r.finishedAt = now
	for _, p := range r.players {
		p.hasGuessed = false
	}
	r.ready = map[string]struct{}{r.ownerID: {}}

	rec := r.record()
	r.persistAsync("room finished", func(ctx context.Context) error {
		return r.store.UpdateRoom(ctx, rec)
	})
	r.broadcastRoom()
	r.pushDescription()
	r.log.Info().Msg("game finished")
}

// restart resets a finished game back to the lobby with fresh settings.
func (r *Room) restart(caller *Player, configs RoomConfigs) error {
	if caller.id != r.ownerID {
		return domain.ErrNotOwner
	}
	if r.status != StatusFinished {
		return domain.ErrWrongPhase
	}

	// Zero-valued fields keep the current setting; anything explicit must be
	// inside the allowed ranges.
	merged := r.configs
	if configs.MaxRounds != 0 {
		merged.MaxRounds = configs.MaxRounds
	}
	if configs.DrawTime != 0 {
		merged.DrawTime = configs.DrawTime
	}
	if configs.MaxPlayers != 0 {
		merged.MaxPlayers = configs.MaxPlayers
	}
	if configs.Difficulty != "" {
		merged.Difficulty = configs.Difficulty
	}
	if err := merged.Validate(); err != nil {
		return err
	}

	r.timers.cancelAll()
	r.configs = merged
	r.status = StatusWaiting
	r.phase = PhaseNone
	r.round = 1
	r.currentWord = ""
	r.wordChoices = nil
	r.hints = nil
	r.drawing = nil
	r.drawerID = ""
	r.timeLeft = 0
	r.finishedAt = time.Time{}
	for _, p := range r.players {
		p.score = 0
		p.hasGuessed = false
	}
	r.ready = map[string]struct{}{r.ownerID: {}}

	r.broadcastEvent(PacketRestarted, struct{}{})
	r.broadcastRoom()
	r.pushDescription()
	rec := r.record()
	r.persistAsync("room restart", func(ctx context.Context) error {
		return r.store.UpdateRoom(ctx, rec)
	})
	r.log.Info().Msg("game restarted")
	return nil
}

func (r *Room) toggleReady(caller *Player) {
	if r.status != StatusFinished {
		return
	}
	if _, ok := r.ready[caller.id]; ok {
		delete(r.ready, caller.id)
	} else {
		r.ready[caller.id] = struct{}{}
	}
	r.broadcastRoom()
}

// kick bans a player from the room and removes them. Owner only, never self.
func (r *Room) kick(caller *Player, targetID string) error {
	if caller.id != r.ownerID {
		return domain.ErrNotOwner
	}
	if targetID == caller.id {
		return domain.ErrCannotKickSelf
	}
	target := r.playerByID(targetID)
	if target == nil {
		return domain.ErrNotMember
	}

	r.banned[targetID] = struct{}{}
	r.bannedNames[target.name] = struct{}{}
	r.broadcastEvent(PacketKicked, map[string]string{"id": target.id, "name": target.name})
	wasDrawer := r.removePlayer(target, true)
	if len(r.players) > 0 && wasDrawer && r.status == StatusPlaying {
		r.nextTurn(r.now())
	}
	return nil
}

// removePlayer takes a seat out of the room. It cancels the turn's timers
// when the drawer leaves but never advances the rotation itself; exactly one
// caller does that afterwards, which keeps double-advance races impossible.
func (r *Room) removePlayer(p *Player, kicked bool) (wasDrawer bool) {
	idx := r.playerIndex(p.id)
	if idx < 0 {
		return false
	}
	wasDrawer = p.id == r.drawerID && r.status == StatusPlaying

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.ready, p.id)
	if p.session != nil {
		reason := ""
		if kicked {
			reason = "kicked"
		}
		p.session.Close(reason)
	}

	if len(r.players) == 0 {
		r.timers.cancelAll()
		if r.lobby != nil {
			r.lobby.RemoveRoom(r.code)
		}
		r.log.Info().Msg("last player left, room released")
		return wasDrawer
	}

	if wasDrawer {
		r.timers.cancelAll()
	}

	if p.id == r.ownerID {
		newOwner := r.players[r.randIntn(len(r.players))]
		r.ownerID = newOwner.id
		if r.status == StatusFinished {
			r.ready[newOwner.id] = struct{}{}
		}
		rec := r.record()
		r.persistAsync("room owner", func(ctx context.Context) error {
			return r.store.UpdateRoom(ctx, rec)
		})
	}

	if !kicked {
		r.broadcastEvent(PacketPlayerLeft, map[string]string{"id": p.id, "name": p.name})
	}

	// Losing the last pending guesser can complete the all-guessed condition.
	if !wasDrawer && r.status == StatusPlaying && r.phase == PhaseDrawing && r.allGuessed() {
		r.endTurn(r.now())
	}

	r.broadcastRoom()
	r.pushDescription()
	return wasDrawer
}

// handleTick advances whichever timers are armed. Runs once per second per
// room off the lobby fan-out.
func (r *Room) handleTick(now time.Time) {
	if c := r.timers.choice; c != nil {
		c.remaining--
		r.timeLeft = c.remaining
		r.broadcastEvent(PacketTick, tickNotice{Phase: PhaseChoosing, TimeLeft: r.timeLeft})
		r.broadcastRoom()
		if c.remaining <= 0 {
			r.timers.cancelChoice()
			if len(r.wordChoices) > 0 {
				r.applySelectWord(r.wordChoices[0], now)
			}
		}
	} else if c := r.timers.draw; c != nil {
		c.remaining--
		r.timeLeft = c.remaining
		r.broadcastEvent(PacketTick, tickNotice{Phase: PhaseDrawing, TimeLeft: r.timeLeft})
		if c.remaining <= 0 {
			r.endTurn(now)
		}
	}

	if h := r.timers.hint; h != nil && r.phase == PhaseDrawing {
		if h.revealUpTo(h.due(now)) {
			r.broadcastEvent(PacketHint, hintNotice{Hints: h.mask()})
		}
	}

	if a := r.timers.advance; a != nil && !now.Before(a.at) {
		r.timers.cancelAdvance()
		r.nextTurn(now)
	}
}

// drawWords asks the word supplier for the turn's candidates, topping up from
// the built-in list so an unreachable store can never stall a transition.
func (r *Room) drawWords() []string {
	var words []string
	if r.words != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		drawn, err := r.words.Draw(ctx, wordChoiceCount, r.configs.Difficulty)
		if err != nil {
			r.log.Warn().Err(err).Msg("word draw failed, using fallback list")
		}
		words = drawn
	}
	for len(words) < wordChoiceCount {
		words = append(words, fallbackWords[r.randIntn(len(fallbackWords))])
	}
	return words[:wordChoiceCount]
}
