package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"github.com/DoyleJ11/card-arena-backend/internal/hub"
	"github.com/DoyleJ11/card-arena-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.MaxSeats = 2
	cfg.CountdownStep = time.Hour
	cfg.TickInterval = time.Hour
	cfg.StallDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h, err := hub.NewHub(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(Handler(h, Options{HeartbeatInterval: time.Hour}, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
}

func readRaw(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	return string(data)
}

// readType skips frames until one with the given "type" arrives.
func readType(t *testing.T, conn *websocket.Conn, kind string, into any) {
	t.Helper()
	for range 20 {
		raw := readRaw(t, conn)
		var head struct {
			Type string `json:"type"`
		}
		if json.Unmarshal([]byte(raw), &head) != nil || head.Type != kind {
			continue
		}
		require.NoError(t, json.Unmarshal([]byte(raw), into))
		return
	}
	t.Fatalf("no %s frame received", kind)
}

func TestHandler_JoinAndMove(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv)
	b := dial(t, srv)

	send(t, a, types.ClientMessage{Type: types.MsgInitiateGame, Username: "alice"})
	var pa types.Player
	readType(t, a, "Player", &pa)
	assert.Equal(t, "alice", pa.Username)
	assert.Len(t, pa.PrivateKey, engine.PrivateKeyLength)

	send(t, b, types.ClientMessage{Type: types.MsgInitiateGame, Username: "bob", CharacterType: 1})
	var joined types.Player
	readType(t, a, "PlayerJoined", &joined)
	assert.Equal(t, "bob", joined.Username)
	assert.Empty(t, joined.PrivateKey)
	assert.Equal(t, pa.GameID, joined.GameID)

	var offer types.CardOptions
	readType(t, a, "CardOptions", &offer)
	require.Len(t, offer.CardOptions, 3)

	send(t, a, types.ClientMessage{
		Type:       types.MsgChooseCard,
		PlayerID:   pa.ID,
		PrivateKey: pa.PrivateKey,
		TurnID:     offer.TurnID,
		CardNumber: offer.CardOptions[0],
		Location:   2,
	})
	var mv types.Mutation
	readType(t, b, "Mutation", &mv)
	assert.Equal(t, types.Mutation{Type: "Mutation", PlayerID: pa.ID, TurnID: 0, CardType: offer.CardOptions[0], CardLocation: 2}, mv)
}

func TestHandler_Rejections(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv)

	require.NoError(t, a.Write(context.Background(), websocket.MessageText, []byte("{")))
	assert.True(t, strings.HasPrefix(readRaw(t, a), types.ErrBadJSON.Error()))

	send(t, a, types.ClientMessage{Type: types.MsgAnimationsDone, PlayerID: 0})
	assert.Equal(t, ErrNotJoined.Error(), readRaw(t, a))

	send(t, a, types.ClientMessage{Type: types.MsgInitiateGame, Username: "alice"})
	var pa types.Player
	readType(t, a, "Player", &pa)
	var roster types.Roster
	readType(t, a, "Roster", &roster)
	require.Len(t, roster.Players, 1)
	assert.Empty(t, roster.Players[0].PrivateKey)

	send(t, a, types.ClientMessage{Type: types.MsgInitiateGame, Username: "again"})
	assert.Equal(t, ErrAlreadyJoined.Error(), readRaw(t, a))

	send(t, a, types.ClientMessage{Type: types.MsgVoteDeath, PlayerID: pa.ID, TargetID: pa.ID, PrivateKey: "wrong"})
	assert.Equal(t, engine.ErrWrongKey.Error(), readRaw(t, a))
}
