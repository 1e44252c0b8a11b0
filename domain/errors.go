package domain

import "errors"

var (
	DatabaseError   = errors.New("database-error")
	ErrRoomNotFound = errors.New("room-not-found")
)

var (
	ErrRoomFull       = errors.New("room-full")
	ErrBanned         = errors.New("banned-from-room")
	ErrNameTaken      = errors.New("name-taken")
	ErrBadRoomCode    = errors.New("bad-room-code")
	ErrBadName        = errors.New("bad-name")
	ErrBadSettings    = errors.New("bad-settings")
	ErrNotOwner       = errors.New("not-owner")
	ErrNotDrawer      = errors.New("not-drawer")
	ErrWrongPhase     = errors.New("wrong-phase")
	ErrNotEnough      = errors.New("not-enough-players")
	ErrBadWordChoice  = errors.New("bad-word-choice")
	ErrNotMember      = errors.New("not-member")
	ErrCannotKickSelf = errors.New("cannot-kick-self")
	ErrThrottled      = errors.New("throttled")
	ErrRoomClosed     = errors.New("room-closed")
)
