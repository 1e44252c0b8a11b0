package game

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// The room actor closes a session while the write pump still owns the write
// side, so Write, Ping and Close must tolerate running at once. Write errors
// after the close are expected and just end the writers.
func TestWebsocketConnection_ConcurrentWritesAndClose(t *testing.T) {
	t.Parallel()

	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()
	go func() {
		for {
			if _, _, rerr := client.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	session := NewWebsocketConnection(<-serverConns)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if session.Write([]byte(`{"type":"timerTick"}`)) != nil {
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if session.Ping() != nil {
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		session.Close("room-closed")
	}()
	wg.Wait()
}
