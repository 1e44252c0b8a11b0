package game

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tarinagarwal/Skribbl-production/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the router middleware.
		return true
	},
}

const (
	joinLimiterCap     = 4096
	joinLimiterIdleAge = 10 * time.Minute
)

// joinLimiters throttles join attempts per remote address: 5 per 10 seconds.
// The map is bounded: once it reaches the cap, idle addresses are evicted
// before a new one is admitted.
type joinLimiters struct {
	mu       sync.Mutex
	limiters map[string]*joinLimiterEntry
}

type joinLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newJoinLimiters() *joinLimiters {
	return &joinLimiters{limiters: make(map[string]*joinLimiterEntry)}
}

func (jl *joinLimiters) allow(addr string) bool {
	jl.mu.Lock()
	defer jl.mu.Unlock()
	now := time.Now()
	e, ok := jl.limiters[addr]
	if !ok {
		if len(jl.limiters) >= joinLimiterCap {
			jl.evictIdle(now)
		}
		e = &joinLimiterEntry{limiter: rate.NewLimiter(rate.Every(2*time.Second), 5)}
		jl.limiters[addr] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

// evictIdle drops addresses idle past the age. When every entry is fresh the
// map is cleared outright; memory stays bounded at the cost of one fresh
// burst allowance per address.
func (jl *joinLimiters) evictIdle(now time.Time) {
	for addr, e := range jl.limiters {
		if now.Sub(e.lastSeen) > joinLimiterIdleAge {
			delete(jl.limiters, addr)
		}
	}
	if len(jl.limiters) >= joinLimiterCap {
		jl.limiters = make(map[string]*joinLimiterEntry)
	}
}

type GameHandler struct {
	lobby *SessionLobby
	store Store
	joins *joinLimiters
	deps  RoomDeps
}

func NewGameHandler(lobby *SessionLobby, deps RoomDeps) *GameHandler {
	return &GameHandler{
		lobby: lobby,
		store: deps.Store,
		joins: newJoinLimiters(),
		deps:  deps,
	}
}

func (h *GameHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws/:code", h.JoinHandler)
	r.GET("/rooms", h.ListRoomsHandler)
}

// ListRoomsHandler returns the live room summaries for a public listing.
func (h *GameHandler) ListRoomsHandler(ctx *gin.Context) {
	descs := h.lobby.ListRooms(ctx.Request.Context())
	out := make([]gin.H, 0, len(descs))
	for _, d := range descs {
		out = append(out, gin.H{
			"code":       d.Code,
			"players":    d.Players,
			"maxPlayers": d.MaxPlayers,
			"status":     d.Status,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"rooms": out})
}

// JoinHandler upgrades the connection and seats the player in the room for
// the given code, creating or rehydrating the room when it is not resident.
func (h *GameHandler) JoinHandler(ctx *gin.Context) {
	if !h.joins.allow(ctx.ClientIP()) {
		ctx.JSON(http.StatusTooManyRequests, gin.H{"error": "too many join attempts, try again shortly"})
		return
	}

	code, err := NormalizeRoomCode(ctx.Param("code"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "room code must be 4-8 letters or digits"})
		return
	}
	name, err := SanitizeName(ctx.Query("name"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid player name"})
		return
	}
	configs, err := configsFromQuery(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid room settings"})
		return
	}

	room, err := h.resolveRoom(ctx.Request.Context(), code, configs)
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not open room, try again shortly"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.deps.Log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	session := NewWebsocketConnection(conn)

	player := NewPlayer(uuid.NewString(), name, session)
	seated, err := room.RequestJoin(player)
	if err != nil {
		session.Close(err.Error())
		return
	}

	go seated.WritePump()
	seated.ReadPump()
}

// resolveRoom finds the live session for a code, rehydrates it from the
// store, or creates it fresh. The lobby actor settles concurrent attempts on
// the same code: whichever room is adopted first wins, the rest are dropped
// before their actor ever starts.
func (h *GameHandler) resolveRoom(ctx context.Context, code string, configs RoomConfigs) (*Room, error) {
	if room := h.lobby.Lookup(ctx, code); room != nil {
		return room, nil
	}

	deps := h.deps
	var candidate *Room

	storeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rec, err := h.store.LatestRoomByCode(storeCtx, code)
	switch {
	case err == nil:
		participants, perr := h.store.ParticipantsForRoom(storeCtx, rec.ID)
		if perr != nil {
			deps.Log.Warn().Err(perr).Str("room", code).Msg("participant fetch failed, rehydrating empty")
		}
		candidate = RehydrateRoom(rec, participants, deps)
	case errors.Is(err, domain.ErrRoomNotFound):
		candidate = NewRoom(code, configs, deps)
		if ierr := h.store.InsertRoom(storeCtx, candidate.record()); ierr != nil {
			// The in-memory session is authoritative; a failed insert costs
			// durability, not the game.
			deps.Log.Error().Err(ierr).Str("room", code).Msg("room insert failed")
		}
	default:
		deps.Log.Error().Err(err).Str("room", code).Msg("room lookup failed")
		candidate = NewRoom(code, configs, deps)
	}

	room := h.lobby.Adopt(ctx, candidate)
	if room == nil {
		return nil, domain.ErrRoomClosed
	}
	return room, nil
}

func configsFromQuery(ctx *gin.Context) (RoomConfigs, error) {
	configs := DefaultConfigs()
	if v := ctx.Query("maxRounds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return configs, domain.ErrBadSettings
		}
		configs.MaxRounds = n
	}
	if v := ctx.Query("drawTime"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return configs, domain.ErrBadSettings
		}
		configs.DrawTime = n
	}
	if v := ctx.Query("maxPlayers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return configs, domain.ErrBadSettings
		}
		configs.MaxPlayers = n
	}
	configs.Difficulty = ctx.Query("difficulty")
	if err := configs.Validate(); err != nil {
		return configs, err
	}
	return configs, nil
}
