package game

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tarinagarwal/Skribbl-production/domain"
)

func newHandlerFixture(t *testing.T, store *MockStore) (*gin.Engine, *SessionLobby) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := RoomDeps{Store: store, Log: zerolog.Nop()}
	lobby := NewSessionLobby(deps, NewTickerGen())
	started := make(chan struct{})
	go lobby.LobbyActor(started)
	<-started
	t.Cleanup(lobby.Shutdown)

	router := gin.New()
	NewGameHandler(lobby, deps).RegisterRoutes(router)
	return router, lobby
}

func TestJoinHandler_Validation(t *testing.T) {
	t.Parallel()
	router, _ := newHandlerFixture(t, &MockStore{})

	testCases := []struct {
		desc         string
		path         string
		expectedCode int
	}{
		{desc: "code too short", path: "/ws/ab?name=ana", expectedCode: http.StatusBadRequest},
		{desc: "code with symbols", path: "/ws/ga!me?name=ana", expectedCode: http.StatusBadRequest},
		{desc: "missing name", path: "/ws/GAME42", expectedCode: http.StatusBadRequest},
		{desc: "markup-only name", path: "/ws/GAME42?name=%3Cb%3E%3C%2Fb%3E", expectedCode: http.StatusBadRequest},
		{desc: "non-numeric maxRounds", path: "/ws/GAME42?name=ana&maxRounds=lots", expectedCode: http.StatusBadRequest},
		{desc: "drawTime out of range", path: "/ws/GAME42?name=ana&drawTime=9000", expectedCode: http.StatusBadRequest},
		{desc: "maxPlayers too small", path: "/ws/GAME42?name=ana&maxPlayers=1", expectedCode: http.StatusBadRequest},
	}
	for i, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tC.path, nil)
			// Distinct addresses keep the per-IP join limiter out of the way.
			req.RemoteAddr = "10.0.0." + string(rune('1'+i)) + ":1234"
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tC.expectedCode, rec.Code)
		})
	}
}

func TestJoinHandler_RateLimitsPerAddress(t *testing.T) {
	t.Parallel()
	router, _ := newHandlerFixture(t, &MockStore{})

	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ws/ab?name=ana", nil)
		req.RemoteAddr = "10.9.9.9:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// Another address is unaffected.
	req := httptest.NewRequest(http.MethodGet, "/ws/ab?name=ana", nil)
	req.RemoteAddr = "10.9.9.8:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinLimiters_BoundedByIdleEviction(t *testing.T) {
	t.Parallel()
	jl := newJoinLimiters()
	for i := 0; i < joinLimiterCap; i++ {
		jl.allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	require.Len(t, jl.limiters, joinLimiterCap)

	// Age every entry out; the next new address triggers the eviction pass.
	past := time.Now().Add(-2 * joinLimiterIdleAge)
	for _, e := range jl.limiters {
		e.lastSeen = past
	}
	assert.True(t, jl.allow("203.0.113.9"))
	assert.Len(t, jl.limiters, 1)

	// A flood of fresh addresses still cannot grow the map past the cap.
	for i := 0; i < joinLimiterCap+500; i++ {
		jl.allow(fmt.Sprintf("192.168.%d.%d", i/256, i%256))
	}
	assert.LessOrEqual(t, len(jl.limiters), joinLimiterCap)
}

func TestJoinHandler_WebsocketFlow(t *testing.T) {
	t.Parallel()
	store := &MockStore{}
	store.On("LatestRoomByCode", mock.Anything, "GAME42").
		Return(domain.RoomRecord{}, domain.ErrRoomNotFound).Once()
	store.On("InsertRoom", mock.Anything, mock.Anything).Return(nil)
	store.On("UpsertParticipant", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateRoom", mock.Anything, mock.Anything).Return(nil).Maybe()

	router, lobby := newHandlerFixture(t, store)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	wsBase := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/game42?name=ana", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, PacketRoom, msg.Type)

	var view RoomView
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	assert.Equal(t, "GAME42", view.Code)
	assert.Equal(t, StatusWaiting, view.Status)
	require.Len(t, view.Players, 1)
	assert.Equal(t, "ana", view.Players[0].Name)
	assert.Equal(t, view.Players[0].ID, view.OwnerID)

	t.Run("the session is resident and listed", func(t *testing.T) {
		require.Eventually(t, func() bool {
			req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
			req.RemoteAddr = "10.1.1.1:1234"
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			return rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), "GAME42")
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("a duplicate name is turned away at the socket", func(t *testing.T) {
		dup, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/game42?name=ana", nil)
		require.NoError(t, err)
		t.Cleanup(func() { dup.Close() })

		dup.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = dup.ReadMessage()
		require.Error(t, err)
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Contains(t, closeErr.Text, "name")
	})

	_ = lobby
}
