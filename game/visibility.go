package game

import (
	"regexp"
	"strings"
)

// canSeeWord decides whether one viewer may see the secret word right now.
// Pure over the room snapshot: same inputs, same answer.
func canSeeWord(r *Room, viewerID string) bool {
	if r.status != StatusPlaying {
		return true
	}
	if r.currentWord == "" {
		return false
	}
	if viewerID == r.drawerID {
		return true
	}
	if p := r.playerByID(viewerID); p != nil && p.hasGuessed {
		return true
	}
	switch r.phase {
	case PhaseChoosing:
		return false
	case PhaseResults:
		return true
	}
	return false
}

// playersWhoCanSeeWord lists the ids eligible for reveal notifications: the
// drawer plus everyone who already guessed. Scoping delivery here means the
// literal word never crosses the wire to anyone else.
func playersWhoCanSeeWord(r *Room) []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if p.id == r.drawerID || p.hasGuessed {
			ids = append(ids, p.id)
		}
	}
	return ids
}

// redactRoomForViewer builds a fresh snapshot for exactly one viewer. Never
// reuse the result across viewers: the word and the choices leak otherwise.
func redactRoomForViewer(r *Room, viewerID string) RoomView {
	view := RoomView{
		Code:      r.code,
		OwnerID:   r.ownerID,
		Status:    r.status,
		Phase:     r.phase,
		Round:     r.round,
		MaxRounds: r.configs.MaxRounds,
		DrawTime:  r.configs.DrawTime,
		TimeLeft:  r.timeLeft,
		DrawerID:  r.drawerID,
		Players:   make([]PlayerView, 0, len(r.players)),
	}
	for _, p := range r.players {
		_, ready := r.ready[p.id]
		view.Players = append(view.Players, PlayerView{
			ID:         p.id,
			Name:       p.name,
			Avatar:     p.avatar,
			Score:      p.score,
			HasGuessed: p.hasGuessed,
			Connected:  p.session != nil,
			Ready:      ready,
		})
	}

	if canSeeWord(r, viewerID) {
		view.CurrentWord = r.currentWord
	}
	if r.hints != nil {
		view.Hints = r.hints.mask()
	}
	// Word choices are for the drawer alone.
	if viewerID == r.drawerID {
		view.WordChoices = r.wordChoices
	}
	return view
}

// redactChatMessage masks every standalone occurrence of the secret word in a
// message with an equal-length run of asterisks. Matching is case-insensitive,
// word-boundary anchored, and survives regex metacharacters and multi-word
// secrets. Substring hits like plural forms pass through untouched.
func redactChatMessage(text, secret string) string {
	if secret == "" || text == "" {
		return text
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(secret) + `\b`)
	if err != nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Repeat("*", len([]rune(m)))
	})
}
