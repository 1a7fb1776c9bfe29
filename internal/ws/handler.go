package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"github.com/DoyleJ11/card-arena-backend/internal/hub"
	"github.com/DoyleJ11/card-arena-backend/internal/session"
	"github.com/DoyleJ11/card-arena-backend/internal/types"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

var (
	ErrAlreadyJoined = errors.New("already joined")
	ErrNotJoined     = errors.New("not joined")
)

const writeTimeout = 3 * time.Second

type Options struct {
	HeartbeatInterval time.Duration
	ClientTimeout     time.Duration
	OutboxSize        int
}

func (o Options) withDefaults() Options {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 5 * time.Second
	}
	if o.ClientTimeout <= 0 {
		o.ClientTimeout = 10 * time.Second
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 32
	}
	return o
}

// client is one websocket connection. It joins at most one session; the
// joined fields belong to the reader goroutine.
type client struct {
	conn *websocket.Conn
	out  *session.Outbox
	hub  *hub.Hub
	log  *zap.Logger

	joined    bool
	sessionID string
	playerID  int
}

func Handler(h *hub.Hub, opts Options, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := &client{
			conn: conn,
			out:  session.NewOutbox(opts.OutboxSize),
			hub:  h,
			log:  log.With(zap.String("remote", r.RemoteAddr)),
		}
		defer c.leave()

		go c.writeLoop(ctx, cancel)
		go c.heartbeat(ctx, cancel, opts)
		c.readLoop(ctx)
	}
}

// writeLoop drains the outbox. A closed outbox means the session dropped us
// or ended, so the connection goes too.
func (c *client) writeLoop(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-c.out.C():
			if !ok {
				return
			}
			payload, err := types.EncodeNotice(n)
			if err != nil {
				c.log.Error("encode notice", zap.Error(err))
				continue
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err = c.conn.Write(wctx, websocket.MessageText, payload)
			wcancel()
			if err != nil {
				c.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *client) heartbeat(ctx context.Context, cancel context.CancelFunc, opts Options) {
	t := time.NewTicker(opts.HeartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, opts.ClientTimeout)
			err := c.conn.Ping(pctx)
			pcancel()
			if err != nil {
				c.log.Info("client heartbeat failed, disconnecting", zap.Error(err))
				cancel()
				return
			}
		}
	}
}

func (c *client) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				c.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		cm, err := types.ParseClientMessage(data)
		if err != nil {
			c.out.Push(session.Rejection{Reason: err.Error()})
			continue
		}
		c.dispatch(ctx, cm)
	}
}

func (c *client) dispatch(ctx context.Context, cm types.ClientMessage) {
	if cm.Type == types.MsgInitiateGame {
		c.join(ctx, cm)
		return
	}

	sessionID := cm.GameID
	if sessionID == "" {
		if !c.joined {
			c.out.Push(session.Rejection{Reason: ErrNotJoined.Error()})
			return
		}
		sessionID = c.sessionID
	}

	s := c.hub.Lookup(ctx, sessionID)
	if s == nil {
		c.log.Debug("command for unknown session dropped", zap.String("session_id", sessionID), zap.String("type", cm.Type))
		return
	}
	cmd, ok := cm.Command(c.out)
	if !ok {
		return
	}
	s.Send(cmd)
}

func (c *client) join(ctx context.Context, cm types.ClientMessage) {
	if c.joined {
		c.out.Push(session.Rejection{Reason: ErrAlreadyJoined.Error()})
		return
	}
	p, err := c.hub.Join(ctx, cm.Username, cm.CharacterType, c.out)
	if err != nil {
		if !errors.Is(err, engine.ErrSessionFull) {
			c.log.Warn("join failed", zap.Error(err))
		}
		c.out.Push(session.Rejection{Reason: err.Error()})
		return
	}
	c.joined = true
	c.sessionID = p.SessionID
	c.playerID = p.ID
	c.log.Info("player connected", zap.String("session_id", p.SessionID), zap.Int("player_id", p.ID))
}

// leave detaches the outbox; the session's next tick marks the player inactive.
func (c *client) leave() {
	if !c.joined {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if s := c.hub.Lookup(ctx, c.sessionID); s != nil {
		s.Send(session.Leave{ParticipantID: c.playerID, Outbox: c.out})
	}
}
