package game

import (
	"encoding/json"
)

// Wire format: a JSON envelope both directions. Data stays raw on the inbound
// side so each handler can decode its own payload.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound message types.
const (
	PacketStart       = "start"
	PacketSelectWord  = "selectWord"
	PacketDraw        = "draw"
	PacketClearCanvas = "clearCanvas"
	PacketChat        = "chat"
	PacketRestart     = "restart"
	PacketToggleReady = "toggleReady"
	PacketKickPlayer  = "kickPlayer"
)

// Outbound message types.
const (
	PacketRoom        = "room"
	PacketWordChoices = "wordChoices"
	PacketWordPicked  = "wordSelected"
	PacketHint        = "hint"
	PacketCorrect     = "correctGuess"
	PacketRoundEnd    = "roundEnd"
	PacketTurnStart   = "nextTurn"
	PacketPlayerLeft  = "playerLeft"
	PacketKicked      = "playerKicked"
	PacketRestarted   = "gameRestarted"
	PacketTick        = "timerTick"
	PacketError       = "error"
)

type selectWordPayload struct {
	Word string `json:"word"`
}

type chatPayload struct {
	Message string `json:"message"`
}

type kickPayload struct {
	TargetID string `json:"targetId"`
}

type restartPayload struct {
	Configs RoomConfigs `json:"configs"`
}

type chatBroadcast struct {
	From    string `json:"from"`
	FromID  string `json:"fromId"`
	Message string `json:"message"`
	System  bool   `json:"system,omitempty"`
}

type correctGuessNotice struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	// Word is only populated for recipients already allowed to see it.
	Word string `json:"word,omitempty"`
}

type roundEndNotice struct {
	Word       string `json:"word"`
	DrawerName string `json:"drawerName"`
	Round      int    `json:"round"`
	MaxRounds  int    `json:"maxRounds"`
}

type tickNotice struct {
	Phase    GamePhase `json:"phase"`
	TimeLeft int       `json:"timeLeft"`
}

type hintNotice struct {
	Hints string `json:"hints"`
}

type errorNotice struct {
	Reason string `json:"reason"`
}

func decode(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, into)
}

func mustEnvelope(typ string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are our own structs; a marshal failure is a programming error.
		panic(err)
	}
	out, err := json.Marshal(Message{Type: typ, Data: data})
	if err != nil {
		panic(err)
	}
	return out
}

// PlayerView is the per-player slice of a room snapshot.
type PlayerView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Score      int    `json:"score"`
	HasGuessed bool   `json:"hasGuessed"`
	Connected  bool   `json:"connected"`
	Ready      bool   `json:"ready"`
}

// RoomView is the authoritative room snapshot pushed after every mutating
// action. It is always built per viewer; see redactRoomForViewer.
type RoomView struct {
	Code        string       `json:"code"`
	OwnerID     string       `json:"ownerId"`
	Status      RoomStatus   `json:"status"`
	Phase       GamePhase    `json:"phase,omitempty"`
	Round       int          `json:"round"`
	MaxRounds   int          `json:"maxRounds"`
	DrawTime    int          `json:"drawTime"`
	TimeLeft    int          `json:"timeLeft"`
	DrawerID    string       `json:"drawerId,omitempty"`
	CurrentWord string       `json:"currentWord,omitempty"`
	WordChoices []string     `json:"wordChoices,omitempty"`
	Hints       string       `json:"hints,omitempty"`
	Players     []PlayerView `json:"players"`
}
