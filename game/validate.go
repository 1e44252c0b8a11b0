package game

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/tarinagarwal/Skribbl-production/domain"
)

var (
	roomCodeRe = regexp.MustCompile(`^[A-Z0-9]{4,8}$`)
	htmlTagRe  = regexp.MustCompile(`<[^>]*>`)
	colorRe    = regexp.MustCompile(`^#[0-9A-F]{6}$`)
)

// NormalizeRoomCode upcases and validates a client-supplied room code.
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !roomCodeRe.MatchString(code) {
		return "", domain.ErrBadRoomCode
	}
	return code, nil
}

// SanitizeName strips markup and trims a display name to the allowed length.
func SanitizeName(name string) (string, error) {
	name = strings.TrimSpace(htmlTagRe.ReplaceAllString(name, ""))
	runes := []rune(name)
	if len(runes) > maxNameRunes {
		name = string(runes[:maxNameRunes])
	}
	if name == "" {
		return "", domain.ErrBadName
	}
	return name, nil
}

func sanitizeChat(text string) string {
	text = strings.TrimSpace(htmlTagRe.ReplaceAllString(text, ""))
	runes := []rune(text)
	if len(runes) > maxChatRunes {
		text = string(runes[:maxChatRunes])
	}
	return text
}

// avatarFor derives a stable avatar slot from a display name, so the same
// name always renders the same face without storing anything extra.
func avatarFor(name string) string {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(name)))
	return fmt.Sprintf("avatar-%02d", h.Sum32()%20)
}

type strokePayload struct {
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	PrevX     float64 `json:"prevX"`
	PrevY     float64 `json:"prevY"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
}

func coordInBounds(v float64) bool {
	return v >= 0 && v <= 10000
}

// validStroke rejects malformed drawing frames. Callers drop rejected frames
// silently so one bad frame never breaks the drawing stream.
func validStroke(raw json.RawMessage) bool {
	var s strokePayload
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	if s.Type != "draw" && s.Type != "erase" {
		return false
	}
	if !coordInBounds(s.X) || !coordInBounds(s.Y) || !coordInBounds(s.PrevX) || !coordInBounds(s.PrevY) {
		return false
	}
	if !colorRe.MatchString(s.Color) {
		return false
	}
	if s.LineWidth < 1 || s.LineWidth > 50 {
		return false
	}
	return true
}
