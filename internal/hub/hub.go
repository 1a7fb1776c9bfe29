package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"github.com/DoyleJ11/card-arena-backend/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("hub closed")

// maxJoinAttempts bounds retries when the chosen open session starts or
// closes between being picked and seating the player.
const maxJoinAttempts = 4

type HubMsg interface{ isHubMsg() }

// FindOpen replies with a session still in its lobby, creating one if needed.
type FindOpen struct {
	Reply chan openResult
}

type openResult struct {
	s   *session.Session
	err error
}

type GetSession struct {
	ID    string
	Reply chan *session.Session
}

type ListSessions struct {
	Reply chan []*session.Session
}

type MarkStarted struct{ ID string }

type RemoveSession struct{ ID string }

type ShutdownHub struct{}

func (FindOpen) isHubMsg()      {}
func (GetSession) isHubMsg()    {}
func (ListSessions) isHubMsg()  {}
func (MarkStarted) isHubMsg()   {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type entry struct {
	s    *session.Session
	open bool
}

// Hub is the session registry: the only place sessions are added to or
// removed from the map. It never blocks on a session.
type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*entry
	cfg      engine.Config
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, cfg engine.Config, log *zap.Logger) (*Hub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new hub: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*entry),
		cfg:      cfg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h, nil
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case FindOpen:
				msg.Reply <- h.findOpen()

			case GetSession:
				if e := h.sessions[msg.ID]; e != nil {
					msg.Reply <- e.s
					break
				}
				msg.Reply <- nil

			case ListSessions:
				out := make([]*session.Session, 0, len(h.sessions))
				for _, e := range h.sessions {
					out = append(out, e.s)
				}
				msg.Reply <- out

			case MarkStarted:
				if e := h.sessions[msg.ID]; e != nil {
					e.open = false
				}

			case RemoveSession:
				if _, ok := h.sessions[msg.ID]; ok {
					delete(h.sessions, msg.ID)
					h.log.Info("session removed", zap.String("session_id", msg.ID), zap.Int("sessions", len(h.sessions)))
				}

			case ShutdownHub:
				// Sessions run under h.ctx and stop with it.
				clear(h.sessions)
				h.cancel()
			}
		}
	}
}

func (h *Hub) findOpen() openResult {
	for _, e := range h.sessions {
		if e.open {
			return openResult{s: e.s}
		}
	}

	id := uuid.NewString()
	s, err := session.New(h.ctx, id, h.cfg, h, h.log)
	if err != nil {
		return openResult{err: err}
	}
	h.sessions[id] = &entry{s: s, open: true}
	return openResult{s: s}
}

func (h *Hub) post(ctx context.Context, m HubMsg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func await[T any](ctx context.Context, h *Hub, reply chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-h.ctx.Done():
		return zero, ErrHubClosed
	}
}

// MarkStarted and Remove make the hub the sessions' Registry.
func (h *Hub) MarkStarted(id string) { h.post(context.Background(), MarkStarted{ID: id}) }

func (h *Hub) Remove(id string) { h.post(context.Background(), RemoveSession{ID: id}) }

// Join seats a human in the open session, creating one when none is open.
func (h *Hub) Join(ctx context.Context, username string, character int, out *session.Outbox) (engine.Participant, error) {
	var err error
	for range maxJoinAttempts {
		reply := make(chan openResult, 1)
		if !h.post(ctx, FindOpen{Reply: reply}) {
			if ctx.Err() != nil {
				return engine.Participant{}, ctx.Err()
			}
			return engine.Participant{}, ErrHubClosed
		}
		var res openResult
		res, err = await(ctx, h, reply)
		if err != nil {
			return engine.Participant{}, err
		}
		if res.err != nil {
			return engine.Participant{}, fmt.Errorf("open session: %w", res.err)
		}

		var p engine.Participant
		p, err = res.s.Join(ctx, username, character, out)
		if errors.Is(err, engine.ErrSessionFull) || errors.Is(err, session.ErrSessionClosed) {
			h.log.Debug("open session unavailable, retrying", zap.String("session_id", res.s.ID()), zap.Error(err))
			continue
		}
		if err != nil && ctx.Err() != nil {
			// The session may have seated us before the caller gave up.
			res.s.Send(session.Leave{ParticipantID: session.AnyParticipant, Outbox: out})
		}
		return p, err
	}
	return engine.Participant{}, err
}

// Lookup returns nil when the session does not exist (any more).
func (h *Hub) Lookup(ctx context.Context, id string) *session.Session {
	reply := make(chan *session.Session, 1)
	if !h.post(ctx, GetSession{ID: id, Reply: reply}) {
		return nil
	}
	s, _ := await(ctx, h, reply)
	return s
}

func (h *Hub) Sessions(ctx context.Context) ([]*session.Session, error) {
	reply := make(chan []*session.Session, 1)
	if !h.post(ctx, ListSessions{Reply: reply}) {
		return nil, ErrHubClosed
	}
	return await(ctx, h, reply)
}

// Prune removes every session without an active human participant.
func (h *Hub) Prune(ctx context.Context) (int, error) {
	sessions, err := h.Sessions(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, s := range sessions {
		ok, err := s.Prune(ctx)
		if errors.Is(err, session.ErrSessionClosed) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("prune %s: %w", s.ID(), err)
		}
		if ok {
			h.Remove(s.ID())
			removed++
		}
	}
	h.log.Info("sessions pruned", zap.Int("removed", removed))
	return removed, nil
}

// FullClean removes every session unconditionally.
func (h *Hub) FullClean(ctx context.Context) (int, error) {
	sessions, err := h.Sessions(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, s := range sessions {
		ended, err := s.Terminate(ctx)
		if err != nil {
			return removed, fmt.Errorf("terminate %s: %w", s.ID(), err)
		}
		h.Remove(s.ID())
		if ended {
			removed++
		}
	}
	h.log.Info("sessions cleaned", zap.Int("removed", removed))
	return removed, nil
}

func (h *Hub) Shutdown() { h.post(context.Background(), ShutdownHub{}) }
