package domain

import "time"

// RoomRecord is the durable shape of a room. The live game.Room is
// authoritative while a session is resident; rows exist so a room can be
// rehydrated after eviction and so finished games survive restarts.
type RoomRecord struct {
	ID         string
	Code       string
	OwnerID    string
	Status     string
	Round      int
	MaxRounds  int
	DrawTime   int
	FinishedAt *time.Time
	CreatedAt  time.Time
}

type ParticipantRecord struct {
	ID        string
	RoomID    string
	Name      string
	Avatar    string
	Score     int
	TurnOrder int
}

type ChatRecord struct {
	RoomID        string
	ParticipantID string
	Message       string
	CorrectGuess  bool
}
