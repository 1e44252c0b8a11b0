package game

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 20 * time.Second
	pongWait  = time.Minute
)

// websocketConnection adapts a gorilla connection to NetworkSession. The
// write pump and the room actor both reach the write side (Close comes from
// the actor), and gorilla allows only one concurrent writer, so every
// write-side call holds writeMu.
type websocketConnection struct {
	writeMu sync.Mutex
	socket  *websocket.Conn
}

func NewWebsocketConnection(conn *websocket.Conn) *websocketConnection {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &websocketConnection{socket: conn}
}

func (wc *websocketConnection) Write(data []byte) error {
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *websocketConnection) Ping() error {
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return wc.socket.WriteMessage(websocket.PingMessage, nil)
}

func (wc *websocketConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *websocketConnection) Close(errCode string) {
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	wc.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, errCode))
	wc.socket.Close()
}