package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestRoom builds a room with deterministic randomness and no persistence,
// ready to be driven handler-by-handler without starting the actor goroutine.
func newTestRoom(configs RoomConfigs, words RandomWordsGenerator) *Room {
	r := newBareRoom("ROOM1", configs, RoomDeps{Words: words, Log: zerolog.Nop()})
	r.id = "room-1"
	r.randIntn = func(n int) int { return 0 }
	return r
}

func newTestSession() *MockNetworkSession {
	sess := &MockNetworkSession{}
	sess.On("Close", mock.Anything).Return().Maybe()
	return sess
}

func tryJoin(r *Room, name string) (*Player, error) {
	p := NewPlayer(name+"-id", name, newTestSession())
	jr := joinRequest{player: p, resp: make(chan joinResult, 1)}
	r.handleJoinRequest(jr)
	res := <-jr.resp
	return res.player, res.err
}

func joinPlayer(t *testing.T, r *Room, name string) *Player {
	t.Helper()
	p, err := tryJoin(r, name)
	require.NoError(t, err)
	return p
}

func sendPacket(t *testing.T, r *Room, from *Player, typ string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = data
	}
	r.handlePacket(packetEnvelope{from: from, msg: Message{Type: typ, Data: raw}})
}

// drainMessages empties a player's outbound queue into decoded envelopes.
func drainMessages(p *Player) []Message {
	var msgs []Message
	for {
		select {
		case data := <-p.inbox:
			var m Message
			if err := json.Unmarshal(data, &m); err == nil {
				msgs = append(msgs, m)
			}
		default:
			return msgs
		}
	}
}

func messagesOfType(msgs []Message, typ string) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func countOfType(msgs []Message, typ string) int {
	return len(messagesOfType(msgs, typ))
}

// lastRoomView decodes the most recent snapshot a player received.
func lastRoomView(t *testing.T, msgs []Message) RoomView {
	t.Helper()
	snaps := messagesOfType(msgs, PacketRoom)
	require.NotEmpty(t, snaps, "no room snapshot delivered")
	var view RoomView
	require.NoError(t, json.Unmarshal(snaps[len(snaps)-1].Data, &view))
	return view
}

func decodePayload(t *testing.T, m Message, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(m.Data, into))
}

func baseTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}
