package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tarinagarwal/Skribbl-production/domain"
)

type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

type GamePhase string

const (
	PhaseNone     GamePhase = ""
	PhaseChoosing GamePhase = "choosing"
	PhaseDrawing  GamePhase = "drawing"
	PhaseResults  GamePhase = "results"
)

const (
	MinPlayersToStart = 2
	MaxRoundsCeiling  = 10
	MinDrawTime       = 30
	MaxDrawTime       = 300

	choosingSeconds = 10
	resultsSeconds  = 3 * time.Second
	wordChoiceCount = 3

	maxDrawLog   = 4096
	maxNameRunes = 20
	maxChatRunes = 200
)

// RoomConfigs carries the owner-tunable settings of a room.
type RoomConfigs struct {
	MaxRounds  int    `json:"maxRounds"`
	DrawTime   int    `json:"drawTime"`
	MaxPlayers int    `json:"maxPlayers"`
	Difficulty string `json:"difficulty"`
}

func DefaultConfigs() RoomConfigs {
	return RoomConfigs{MaxRounds: 3, DrawTime: 80, MaxPlayers: 8}
}

func (c RoomConfigs) Validate() error {
	if c.MaxRounds < 1 || c.MaxRounds > MaxRoundsCeiling {
		return domain.ErrBadSettings
	}
	if c.DrawTime < MinDrawTime || c.DrawTime > MaxDrawTime {
		return domain.ErrBadSettings
	}
	if c.MaxPlayers < MinPlayersToStart || c.MaxPlayers > 16 {
		return domain.ErrBadSettings
	}
	return nil
}

// NetworkSession abstracts the websocket so rooms and tests never touch the
// raw connection.
type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Ping() error
	Read() ([]byte, error)
}

// Store is the persistence gateway contract. The live room is authoritative
// during play; every write here is best-effort durability.
type Store interface {
	InsertRoom(ctx context.Context, rec domain.RoomRecord) error
	UpdateRoom(ctx context.Context, rec domain.RoomRecord) error
	UpsertParticipant(ctx context.Context, rec domain.ParticipantRecord) error
	UpsertScore(ctx context.Context, roomID, participantID string, points int) error
	AppendChat(ctx context.Context, rec domain.ChatRecord) error
	LatestRoomByCode(ctx context.Context, code string) (domain.RoomRecord, error)
	ParticipantsForRoom(ctx context.Context, roomID string) ([]domain.ParticipantRecord, error)
}

// RandomWordsGenerator draws candidate words for the choosing phase.
type RandomWordsGenerator interface {
	Draw(ctx context.Context, count int, difficulty string) ([]string, error)
}

// Lobby is the slice of the session store a room is allowed to call back into.
type Lobby interface {
	RemoveRoom(code string)
	UpdateDescription(desc RoomDescription)
}

// RoomDescription is the lobby-side summary of a room, kept current by the
// room actor so listings and the maintenance sweep never have to touch live
// room state.
type RoomDescription struct {
	ID         string
	Code       string
	Players    int
	Connected  int
	MaxPlayers int
	Status     RoomStatus
	FinishedAt time.Time
}

type joinResult struct {
	player *Player
	err    error
}

type joinRequest struct {
	player *Player
	resp   chan joinResult
}

type packetEnvelope struct {
	from *Player
	msg  Message
}

// Room is one live play session. Every field below the channel block is owned
// exclusively by the room's actor goroutine; nothing else reads or writes it.
type Room struct {
	id        string
	code      string
	ownerID   string
	status    RoomStatus
	phase     GamePhase
	round     int
	configs   RoomConfigs
	timeLeft  int
	drawerID  string
	players   []*Player
	ready     map[string]struct{}
	banned    map[string]struct{}
	// Ids end with their connection, so a ban also pins the display name;
	// otherwise a kicked player walks back in under a fresh id.
	bannedNames map[string]struct{}
	wordChoices []string
	currentWord string
	hints       *hintState
	drawing     [][]byte
	timers      roomTimers
	finishedAt  time.Time

	lobby    Lobby
	store    Store
	words    RandomWordsGenerator
	log      zerolog.Logger
	randIntn func(n int) int
	now      func() time.Time

	inbox        chan packetEnvelope
	joinRequests chan joinRequest
	removals     chan *Player
	ticks        chan time.Time
	pingReqs     chan struct{}
	done         chan struct{}
}
