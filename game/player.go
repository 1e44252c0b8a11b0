package game

import (
	"encoding/json"

	"golang.org/x/time/rate"
)

// Player is one participant seat. The identity is transport-session scoped:
// a new connection is a new id. A seat restored from persistence has no
// session until its owner reconnects; Send and Ping are no-ops meanwhile.
type Player struct {
	id         string
	name       string
	avatar     string
	score      int
	hasGuessed bool

	chatLimiter *rate.Limiter
	drawLimiter *rate.Limiter

	session NetworkSession
	inbox   chan []byte
	pings   chan struct{}
	room    *Room
}

func NewPlayer(id, name string, session NetworkSession) *Player {
	return &Player{
		id:     id,
		name:   name,
		avatar: avatarFor(name),
		// chat 10 per 5s, draw 100 per second
		chatLimiter: rate.NewLimiter(rate.Limit(2), 10),
		drawLimiter: rate.NewLimiter(rate.Limit(100), 100),
		session:     session,
		inbox:       make(chan []byte, 256),
		pings:       make(chan struct{}, 1),
	}
}

// newOfflinePlayer builds a rehydrated seat with no live connection.
func newOfflinePlayer(id, name, avatar string, score int) *Player {
	return &Player{id: id, name: name, avatar: avatar, score: score}
}

func (p *Player) ID() string   { return p.id }
func (p *Player) Name() string { return p.name }

// Send queues one outbound frame. A slow or stalled client drops frames
// instead of stalling the room actor; the next snapshot resynchronizes it.
func (p *Player) Send(data []byte) {
	if p.session == nil {
		return
	}
	select {
	case p.inbox <- data:
	default:
	}
}

func (p *Player) Ping() {
	if p.session == nil {
		return
	}
	select {
	case p.pings <- struct{}{}:
	default:
	}
}

func (p *Player) sendErr(reason string) {
	p.Send(mustEnvelope(PacketError, errorNotice{Reason: reason}))
}

// attach rebinds a live connection onto a rehydrated seat.
func (p *Player) attach(fresh *Player) {
	p.id = fresh.id
	p.session = fresh.session
	p.inbox = fresh.inbox
	p.pings = fresh.pings
	p.chatLimiter = fresh.chatLimiter
	p.drawLimiter = fresh.drawLimiter
}

// ReadPump decodes inbound frames and forwards them to the room actor. It
// exits on the first read error; the deferred removal request tears the seat
// down inside the actor so no handler ever races the disconnect.
func (p *Player) ReadPump() {
	room := p.room
	defer room.RequestRemoval(p)

	for {
		data, err := p.session.Read()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		select {
		case room.inbox <- packetEnvelope{from: p, msg: msg}:
		case <-room.done:
			return
		}
	}
}

// WritePump owns the socket's write side: queued frames and keepalive pings.
func (p *Player) WritePump() {
	for {
		select {
		case data, ok := <-p.inbox:
			if !ok {
				return
			}
			if err := p.session.Write(data); err != nil {
				return
			}
		case _, ok := <-p.pings:
			if !ok {
				return
			}
			if err := p.session.Ping(); err != nil {
				return
			}
		}
	}
}
