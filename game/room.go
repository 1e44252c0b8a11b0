package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tarinagarwal/Skribbl-production/domain"
)

// RoomDeps are the collaborators a room needs besides its own state.
type RoomDeps struct {
	Store Store
	Words RandomWordsGenerator
	Log   zerolog.Logger
}

func NewRoom(code string, configs RoomConfigs, deps RoomDeps) *Room {
	r := newBareRoom(code, configs, deps)
	r.id = uuid.NewString()
	return r
}

// RehydrateRoom reconstructs a room from its durable record after the live
// session was evicted. Transient fields (word choices, drawing log, hints,
// ready set) are not persisted and start empty. A room that was mid-play when
// it died comes back in the lobby; there is no word or timer left to resume.
func RehydrateRoom(rec domain.RoomRecord, participants []domain.ParticipantRecord, deps RoomDeps) *Room {
	configs := DefaultConfigs()
	// A damaged row must not produce a room that divides by a zero draw time.
	if rec.MaxRounds >= 1 && rec.MaxRounds <= MaxRoundsCeiling {
		configs.MaxRounds = rec.MaxRounds
	}
	if rec.DrawTime >= MinDrawTime && rec.DrawTime <= MaxDrawTime {
		configs.DrawTime = rec.DrawTime
	}

	r := newBareRoom(rec.Code, configs, deps)
	r.id = rec.ID
	r.round = rec.Round
	r.status = RoomStatus(rec.Status)
	if r.status == StatusPlaying {
		r.status = StatusWaiting
		r.round = 1
	}
	if rec.FinishedAt != nil {
		r.finishedAt = *rec.FinishedAt
	}
	for _, p := range participants {
		seat := newOfflinePlayer(p.ID, p.Name, p.Avatar, p.Score)
		seat.room = r
		r.players = append(r.players, seat)
	}
	r.ownerID = rec.OwnerID
	if r.playerByID(r.ownerID) == nil && len(r.players) > 0 {
		r.ownerID = r.players[0].id
	}
	return r
}

func newBareRoom(code string, configs RoomConfigs, deps RoomDeps) *Room {
	return &Room{
		code:        code,
		status:      StatusWaiting,
		round:       1,
		configs:     configs,
		ready:       make(map[string]struct{}),
		banned:      make(map[string]struct{}),
		bannedNames: make(map[string]struct{}),
		store:       deps.Store,
		words:       deps.Words,
		log:         deps.Log.With().Str("room", code).Logger(),
		randIntn:    rand.Intn,
		now:         time.Now,

		inbox:        make(chan packetEnvelope, 1024),
		joinRequests: make(chan joinRequest, 16),
		removals:     make(chan *Player, 64),
		ticks:        make(chan time.Time, 24),
		pingReqs:     make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

func (r *Room) Code() string { return r.code }
func (r *Room) ID() string   { return r.id }

// SetParentLobby wires the lobby callback surface. Called once on adoption,
// before the actor starts.
func (r *Room) SetParentLobby(l Lobby) { r.lobby = l }

// RequestJoin hands a player to the room actor and waits for its verdict.
// The returned player is the effective seat: when a disconnected seat is
// reclaimed, the fresh connection is grafted onto it and the seat keeps its
// score, so the caller must pump the seat rather than its own argument.
func (r *Room) RequestJoin(p *Player) (*Player, error) {
	jr := joinRequest{player: p, resp: make(chan joinResult, 1)}
	select {
	case r.joinRequests <- jr:
	case <-r.done:
		return nil, domain.ErrRoomClosed
	}
	select {
	case res := <-jr.resp:
		return res.player, res.err
	case <-r.done:
		return nil, domain.ErrRoomClosed
	}
}

// RequestRemoval queues a disconnect for the actor. Safe from any goroutine.
func (r *Room) RequestRemoval(p *Player) {
	select {
	case r.removals <- p:
	case <-r.done:
	}
}

// Tick delivers one 1-second tick from the lobby fan-out. Non-blocking: a
// wedged room must not stall ticking for every other room.
func (r *Room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

// PingPlayers asks the actor to ping every live connection.
func (r *Room) PingPlayers() {
	select {
	case r.pingReqs <- struct{}{}:
	default:
	}
}

// CloseAndRelease stops the actor. Idempotent via the lobby: only the lobby
// calls it, exactly once, after unmapping the room.
func (r *Room) CloseAndRelease() {
	close(r.done)
}

// GameLoop is the room actor. Every mutation of room state happens inside
// this loop, one event at a time; that is the whole concurrency model.
func (r *Room) GameLoop() {
	r.log.Info().Msg("room actor started")
	for {
		select {
		case <-r.done:
			r.shutdown()
			return
		case jr := <-r.joinRequests:
			r.handleJoinRequest(jr)
		case p := <-r.removals:
			r.handleRemoval(p)
		case env := <-r.inbox:
			r.handlePacket(env)
		case now := <-r.ticks:
			r.handleTick(now)
		case <-r.pingReqs:
			for _, p := range r.players {
				p.Ping()
			}
		}
	}
}

func (r *Room) shutdown() {
	r.timers.cancelAll()
	for _, p := range r.players {
		if p.session != nil {
			p.session.Close("room-closed")
		}
	}
	r.log.Info().Msg("room actor stopped")
}

func (r *Room) handleJoinRequest(jr joinRequest) {
	p := jr.player

	if _, isBanned := r.banned[p.id]; isBanned {
		jr.resp <- joinResult{err: domain.ErrBanned}
		return
	}
	if _, isBanned := r.bannedNames[p.name]; isBanned {
		jr.resp <- joinResult{err: domain.ErrBanned}
		return
	}

	// A rehydrated seat with the same name reclaims its score; a live player
	// with that name blocks the join.
	if seat := r.playerByName(p.name); seat != nil {
		if seat.session != nil {
			jr.resp <- joinResult{err: domain.ErrNameTaken}
			return
		}
		if _, isBanned := r.banned[seat.id]; isBanned {
			jr.resp <- joinResult{err: domain.ErrBanned}
			return
		}
		seat.attach(p)
		seat.room = r
		p = seat
	} else {
		if len(r.players) >= r.configs.MaxPlayers {
			jr.resp <- joinResult{err: domain.ErrRoomFull}
			return
		}
		p.room = r
		r.players = append(r.players, p)
	}

	if r.ownerID == "" || r.playerByID(r.ownerID) == nil {
		r.ownerID = p.id
	}

	seatRec := r.participantRecord(p)
	r.persistAsync("upsert participant", func(ctx context.Context) error {
		return r.store.UpsertParticipant(ctx, seatRec)
	})

	jr.resp <- joinResult{player: p}
	r.log.Info().Str("player", p.name).Int("players", len(r.players)).Msg("player joined")

	// Late joiners catch up from the snapshot plus the drawing log replay.
	p.Send(mustEnvelope(PacketRoom, redactRoomForViewer(r, p.id)))
	for _, frame := range r.drawing {
		p.Send(frame)
	}
	if p.id == r.drawerID && len(r.wordChoices) > 0 {
		p.Send(mustEnvelope(PacketWordChoices, r.wordChoices))
	}
	r.broadcastRoom()
	r.pushDescription()
}

func (r *Room) handleRemoval(p *Player) {
	// The pump may request removal for a seat that was already kicked.
	if r.playerByID(p.id) == nil {
		return
	}
	wasDrawer := r.removePlayer(p, false)
	if len(r.players) == 0 {
		return // room already asked the lobby to delete it
	}
	if wasDrawer && r.status == StatusPlaying {
		// This is the single advance path after a drawer disconnect; the
		// removal already cancelled the turn's timers so nothing else fires.
		r.nextTurn(r.now())
	}
}

func (r *Room) handlePacket(env packetEnvelope) {
	p := env.from
	if r.playerByID(p.id) == nil {
		return
	}

	var err error
	switch env.msg.Type {
	case PacketStart:
		err = r.start(p)
	case PacketSelectWord:
		var payload selectWordPayload
		if jsonErr := decode(env.msg.Data, &payload); jsonErr != nil {
			return
		}
		err = r.selectWord(p, payload.Word)
	case PacketDraw:
		if !p.drawLimiter.Allow() {
			return // silent drop, same as an invalid frame
		}
		r.handleDraw(p, env.msg.Data)
	case PacketClearCanvas:
		err = r.clearCanvas(p)
	case PacketChat:
		if !p.chatLimiter.Allow() {
			err = domain.ErrThrottled
			break
		}
		var payload chatPayload
		if jsonErr := decode(env.msg.Data, &payload); jsonErr != nil {
			return
		}
		r.handleChat(p, payload.Message)
	case PacketRestart:
		var payload restartPayload
		if jsonErr := decode(env.msg.Data, &payload); jsonErr != nil {
			return
		}
		err = r.restart(p, payload.Configs)
	case PacketToggleReady:
		r.toggleReady(p)
	case PacketKickPlayer:
		var payload kickPayload
		if jsonErr := decode(env.msg.Data, &payload); jsonErr != nil {
			return
		}
		err = r.kick(p, payload.TargetID)
	default:
		return
	}

	if err != nil {
		p.sendErr(err.Error())
	}
}

// --- broadcast helpers ---

// broadcastRoom pushes the authoritative snapshot, redacted per viewer. One
// snapshot object per recipient, never shared.
func (r *Room) broadcastRoom() {
	for _, p := range r.players {
		p.Send(mustEnvelope(PacketRoom, redactRoomForViewer(r, p.id)))
	}
}

func (r *Room) broadcastEvent(typ string, payload any) {
	data := mustEnvelope(typ, payload)
	for _, p := range r.players {
		p.Send(data)
	}
}

func (r *Room) broadcastEventTo(ids []string, typ string, payload any) {
	data := mustEnvelope(typ, payload)
	for _, p := range r.players {
		for _, id := range ids {
			if p.id == id {
				p.Send(data)
				break
			}
		}
	}
}

func (r *Room) broadcastExcept(exceptID string, data []byte) {
	for _, p := range r.players {
		if p.id != exceptID {
			p.Send(data)
		}
	}
}

// broadcastChat delivers one chat line, redacting the secret word per
// recipient. The same message can arrive verbatim at one player and masked
// at the next.
func (r *Room) broadcastChat(from *Player, text string) {
	for _, p := range r.players {
		delivered := text
		if !canSeeWord(r, p.id) {
			delivered = redactChatMessage(text, r.currentWord)
		}
		p.Send(mustEnvelope(PacketChat, chatBroadcast{
			From:    from.name,
			FromID:  from.id,
			Message: delivered,
		}))
	}
}

// --- lookups ---

func (r *Room) playerByID(id string) *Player {
	for _, p := range r.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (r *Room) playerByName(name string) *Player {
	for _, p := range r.players {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (r *Room) playerIndex(id string) int {
	for i, p := range r.players {
		if p.id == id {
			return i
		}
	}
	return -1
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.session != nil {
			n++
		}
	}
	return n
}

// --- persistence plumbing ---

// persistAsync runs one best-effort durable write off the actor goroutine.
// The in-memory transition already happened; a failed write is logged and
// live play continues. Callers must capture only value snapshots in fn:
// room and player fields belong to the actor and fn runs concurrently with
// it.
func (r *Room) persistAsync(op string, fn func(ctx context.Context) error) {
	if r.store == nil {
		return
	}
	logCopy := r.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			logCopy.Error().Err(err).Str("op", op).Msg("persistence write failed")
		}
	}()
}

func (r *Room) record() domain.RoomRecord {
	rec := domain.RoomRecord{
		ID:        r.id,
		Code:      r.code,
		OwnerID:   r.ownerID,
		Status:    string(r.status),
		Round:     r.round,
		MaxRounds: r.configs.MaxRounds,
		DrawTime:  r.configs.DrawTime,
	}
	if !r.finishedAt.IsZero() {
		t := r.finishedAt
		rec.FinishedAt = &t
	}
	return rec
}

func (r *Room) participantRecord(p *Player) domain.ParticipantRecord {
	return domain.ParticipantRecord{
		ID:        p.id,
		RoomID:    r.id,
		Name:      p.name,
		Avatar:    p.avatar,
		Score:     p.score,
		TurnOrder: r.playerIndex(p.id),
	}
}

func (r *Room) pushDescription() {
	if r.lobby == nil {
		return
	}
	r.lobby.UpdateDescription(RoomDescription{
		ID:         r.id,
		Code:       r.code,
		Players:    len(r.players),
		Connected:  r.connectedCount(),
		MaxPlayers: r.configs.MaxPlayers,
		Status:     r.status,
		FinishedAt: r.finishedAt,
	})
}
