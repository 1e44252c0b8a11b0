package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PeriodicTickerChannelCreator exists so tests can drive lobby time by hand.
type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

type ticker struct{}

func (t *ticker) Create(duration time.Duration) <-chan time.Time {
	return time.NewTicker(duration).C
}

func NewTickerGen() PeriodicTickerChannelCreator {
	return &ticker{}
}

const (
	sweepInterval = 30 * time.Minute
	sweepIdleAge  = time.Hour
	pingInterval  = 30 * time.Second
)

type lookupRequest struct {
	code string
	resp chan *Room
}

type adoptRequest struct {
	room *Room
	resp chan *Room
}

// SessionLobby is the in-memory session store: the single authority over
// which rooms are live. One actor goroutine owns the maps; rooms, handlers
// and tickers all talk to it through channels.
type SessionLobby struct {
	rooms map[string]*Room
	descs map[string]RoomDescription

	deps          RoomDeps
	tickerCreator PeriodicTickerChannelCreator
	log           zerolog.Logger

	lookupReqs  chan lookupRequest
	adoptReqs   chan adoptRequest
	removeReqs  chan string
	descUpdates chan RoomDescription
	listReqs    chan chan []RoomDescription
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewSessionLobby(deps RoomDeps, tickerCreator PeriodicTickerChannelCreator) *SessionLobby {
	return &SessionLobby{
		rooms:         make(map[string]*Room),
		descs:         make(map[string]RoomDescription),
		deps:          deps,
		tickerCreator: tickerCreator,
		log:           deps.Log.With().Str("component", "lobby").Logger(),
		lookupReqs:    make(chan lookupRequest, 64),
		adoptReqs:     make(chan adoptRequest, 32),
		removeReqs:    make(chan string, 32),
		descUpdates:   make(chan RoomDescription, 256),
		listReqs:      make(chan chan []RoomDescription, 64),
		stop:          make(chan struct{}),
	}
}

// LobbyActor runs the store. It fans the shared 1s tick out to every live
// room, pings connections, and sweeps abandoned finished rooms.
func (l *SessionLobby) LobbyActor(started chan struct{}) {
	tick := l.tickerCreator.Create(time.Second)
	ping := l.tickerCreator.Create(pingInterval)
	sweep := l.tickerCreator.Create(sweepInterval)

	close(started)

	for {
		select {
		case <-l.stop:
			for code, r := range l.rooms {
				delete(l.rooms, code)
				delete(l.descs, code)
				r.CloseAndRelease()
			}
			return

		case now := <-tick:
			for _, r := range l.rooms {
				r.Tick(now)
			}

		case <-ping:
			for _, r := range l.rooms {
				r.PingPlayers()
			}

		case <-sweep:
			l.handleSweep(time.Now())

		case req := <-l.lookupReqs:
			req.resp <- l.rooms[req.code]

		case req := <-l.adoptReqs:
			l.handleAdopt(req)

		case code := <-l.removeReqs:
			l.handleRemove(code)

		case desc := <-l.descUpdates:
			if _, live := l.rooms[desc.Code]; live {
				l.descs[desc.Code] = desc
			}

		case resp := <-l.listReqs:
			list := make([]RoomDescription, 0, len(l.descs))
			for _, d := range l.descs {
				list = append(list, d)
			}
			resp <- list
		}
	}
}

// Shutdown stops the actor and releases every room. Idempotent.
func (l *SessionLobby) Shutdown() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Lookup returns the live room for a code, or nil when none is resident.
func (l *SessionLobby) Lookup(ctx context.Context, code string) *Room {
	resp := make(chan *Room, 1)
	select {
	case l.lookupReqs <- lookupRequest{code: code, resp: resp}:
	case <-ctx.Done():
		return nil
	}
	select {
	case r := <-resp:
		return r
	case <-ctx.Done():
		return nil
	}
}

// Adopt makes a freshly built or rehydrated room resident and starts its
// actor. When another goroutine won the race for the same code, the already
// resident room comes back instead and the candidate is discarded unstarted.
func (l *SessionLobby) Adopt(ctx context.Context, room *Room) *Room {
	resp := make(chan *Room, 1)
	select {
	case l.adoptReqs <- adoptRequest{room: room, resp: resp}:
	case <-ctx.Done():
		return nil
	}
	select {
	case r := <-resp:
		return r
	case <-ctx.Done():
		return nil
	}
}

// RemoveRoom is the room actor's self-delete path (last player left).
func (l *SessionLobby) RemoveRoom(code string) {
	select {
	case l.removeReqs <- code:
	case <-l.stop:
	}
}

// UpdateDescription refreshes the lobby-side summary. Lossy on backpressure;
// the next update wins anyway.
func (l *SessionLobby) UpdateDescription(desc RoomDescription) {
	select {
	case l.descUpdates <- desc:
	default:
	}
}

// ListRooms snapshots the summaries of all live rooms.
func (l *SessionLobby) ListRooms(ctx context.Context) []RoomDescription {
	resp := make(chan []RoomDescription, 1)
	select {
	case l.listReqs <- resp:
	case <-ctx.Done():
		return nil
	}
	select {
	case list := <-resp:
		return list
	case <-ctx.Done():
		return nil
	}
}

func (l *SessionLobby) handleAdopt(req adoptRequest) {
	code := req.room.Code()
	if existing, ok := l.rooms[code]; ok {
		req.resp <- existing
		return
	}
	req.room.SetParentLobby(l)
	l.rooms[code] = req.room
	l.descs[code] = RoomDescription{
		ID:         req.room.id,
		Code:       code,
		MaxPlayers: req.room.configs.MaxPlayers,
		Status:     req.room.status,
	}
	go req.room.GameLoop()
	l.log.Info().Str("room", code).Msg("room adopted")
	req.resp <- req.room
}

func (l *SessionLobby) handleRemove(code string) {
	room, ok := l.rooms[code]
	if !ok {
		return
	}
	delete(l.rooms, code)
	delete(l.descs, code)
	room.CloseAndRelease()
	l.log.Info().Str("room", code).Msg("room released")
}

// handleSweep evicts rooms that finished, emptied out, and stayed that way
// past the idle age. Housekeeping only; active rooms are never touched.
func (l *SessionLobby) handleSweep(now time.Time) {
	for code, d := range l.descs {
		if d.Status != StatusFinished || d.Connected > 0 {
			continue
		}
		if d.FinishedAt.IsZero() || now.Sub(d.FinishedAt) < sweepIdleAge {
			continue
		}
		l.handleRemove(code)
	}
}
