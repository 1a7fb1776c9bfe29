package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"go.uber.org/zap"
)

var ErrSessionClosed = errors.New("session closed")

type Msg interface{ isSessionMsg() }

type Join struct {
	Username  string
	Character int
	IsAI      bool
	Outbox    *Outbox // nil for AI
	Reply     chan JoinResult
}

type JoinResult struct {
	Participant engine.Participant
	Err         error
}

// SubmitMove, AnimationDone and VoteDeath carry the sender's outbox in From so
// rejections reach whoever sent the command, not whoever it claims to be.
type SubmitMove struct {
	ParticipantID int
	PrivateKey    string
	Turn          int
	Card          int
	Location      int
	From          *Outbox
}

type AnimationDone struct {
	ParticipantID int
	PrivateKey    string
	Turn          int
	From          *Outbox
}

type VoteDeath struct {
	VoterID    int
	TargetID   int
	PrivateKey string
	Turn       int
	From       *Outbox
}

// AnyParticipant in Leave releases the outbox from whichever seat holds it.
const AnyParticipant = -1

type Leave struct {
	ParticipantID int
	Outbox        *Outbox
}

// Prune terminates the session if no active human remains and reports whether it did.
type Prune struct{ Reply chan bool }

type Terminate struct{ Reply chan struct{} }

type GetState struct{ Reply chan View }

// timer-driven commands
type countdownTick struct{ remaining int }
type livenessTick struct{}
type stalledAdvance struct{ turn int }

func (Join) isSessionMsg()           {}
func (SubmitMove) isSessionMsg()     {}
func (AnimationDone) isSessionMsg()  {}
func (VoteDeath) isSessionMsg()      {}
func (Leave) isSessionMsg()          {}
func (Prune) isSessionMsg()          {}
func (Terminate) isSessionMsg()      {}
func (GetState) isSessionMsg()       {}
func (countdownTick) isSessionMsg()  {}
func (livenessTick) isSessionMsg()   {}
func (stalledAdvance) isSessionMsg() {}

// View is a copy of session state for tests and admin listings.
type View struct {
	ID            string
	Started       bool
	Turn          int
	Participants  []engine.Participant
	Connected     []int
	OpenPositions int
	StallPending  bool
}

// Registry is notified when a session leaves the lobby and when it is gone.
type Registry interface {
	MarkStarted(id string)
	Remove(id string)
}

type nopRegistry struct{}

func (nopRegistry) MarkStarted(string) {}
func (nopRegistry) Remove(string)      {}

// Session owns one game. All state below is touched only by loop().
type Session struct {
	id    string
	cfg   engine.Config
	reg   Registry
	log   *zap.Logger
	rng   *rand.Rand
	cards *engine.Distribution

	started      bool
	done         bool
	participants []*engine.Participant
	turn         int
	positions    []engine.Position

	countdownCancel context.CancelFunc
	stallPending    bool
	tickCancel      context.CancelFunc

	router  *router
	pending []Msg

	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the session and immediately starts its liveness tick and lobby
// countdown.
func New(parent context.Context, id string, cfg engine.Config, reg Registry, log *zap.Logger) (*Session, error) {
	cards, err := engine.NewDistribution(cfg.CardWeights)
	if err != nil {
		return nil, fmt.Errorf("new session %s: %w", id, err)
	}
	if cfg.MaxSeats > cfg.Board.Cells() {
		return nil, fmt.Errorf("new session %s: %w", id, engine.ErrInvalidConfig)
	}
	if reg == nil {
		reg = nopRegistry{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("session_id", id))

	ctx, cancel := context.WithCancel(parent)
	rng := engine.NewRand(cfg.Seed)
	s := &Session{
		id:        id,
		cfg:       cfg,
		reg:       reg,
		log:       log,
		rng:       rng,
		cards:     cards,
		positions: engine.NewPositionPool(rng, cfg.Board, cfg.MaxSeats),
		router:    newRouter(log),
		inbox:     make(chan Msg, 64),
		ctx:       ctx,
		cancel:    cancel,
	}

	tickCtx, tickCancel := context.WithCancel(ctx)
	s.tickCancel = tickCancel
	countdownCtx, countdownCancel := context.WithCancel(ctx)
	s.countdownCancel = countdownCancel

	go s.ticker(tickCtx)
	go s.countdown(countdownCtx)
	go s.loop()

	log.Info("session created", zap.Int("max_seats", cfg.MaxSeats))
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Done is closed once the session has terminated.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Send enqueues a command, reporting false if the session is gone.
func (s *Session) Send(m Msg) bool { return s.post(context.Background(), m) }

func (s *Session) post(ctx context.Context, m Msg) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case s.inbox <- m:
		return true
	case <-s.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func request[T any](ctx context.Context, s *Session, m Msg, reply chan T) (T, error) {
	var zero T
	if !s.post(ctx, m) {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, ErrSessionClosed
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.ctx.Done():
		// Replies are written before the session cancels itself.
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrSessionClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *Session) Join(ctx context.Context, username string, character int, out *Outbox) (engine.Participant, error) {
	reply := make(chan JoinResult, 1)
	res, err := request(ctx, s, Join{Username: username, Character: character, Outbox: out, Reply: reply}, reply)
	if err != nil {
		return engine.Participant{}, err
	}
	return res.Participant, res.Err
}

// AddAI seats an AI participant in this specific session.
func (s *Session) AddAI(ctx context.Context) (engine.Participant, error) {
	reply := make(chan JoinResult, 1)
	res, err := request(ctx, s, Join{IsAI: true, Reply: reply}, reply)
	if err != nil {
		return engine.Participant{}, err
	}
	return res.Participant, res.Err
}

func (s *Session) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	return request(ctx, s, GetState{Reply: reply}, reply)
}

func (s *Session) Prune(ctx context.Context) (bool, error) {
	reply := make(chan bool, 1)
	return request(ctx, s, Prune{Reply: reply}, reply)
}

// Terminate ends the session and reports whether this call ended it. A
// session that already ended is not an error.
func (s *Session) Terminate(ctx context.Context) (bool, error) {
	reply := make(chan struct{}, 1)
	_, err := request(ctx, s, Terminate{Reply: reply}, reply)
	if errors.Is(err, ErrSessionClosed) {
		return false, nil
	}
	return err == nil, err
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			s.handle(m)
			for len(s.pending) > 0 && !s.done {
				next := s.pending[0]
				s.pending = s.pending[1:]
				s.handle(next)
			}
			if s.done {
				return
			}
		}
	}
}

func (s *Session) handle(m Msg) {
	switch msg := m.(type) {
	case Join:
		s.handleJoin(msg)

	case SubmitMove:
		s.handleMove(msg)

	case AnimationDone:
		s.handleAnimationDone(msg)

	case VoteDeath:
		s.handleVote(msg)

	case Leave:
		if msg.ParticipantID == AnyParticipant {
			s.router.release(msg.Outbox)
			break
		}
		s.router.detach(msg.ParticipantID, msg.Outbox)

	case Prune:
		if s.activeHumans() > 0 {
			msg.Reply <- false
			break
		}
		msg.Reply <- true
		s.terminate("pruned")

	case Terminate:
		msg.Reply <- struct{}{}
		s.terminate("cleaned")

	case GetState:
		msg.Reply <- s.view()

	case countdownTick:
		s.handleCountdown(msg.remaining)

	case livenessTick:
		s.handleTick()

	case stalledAdvance:
		s.handleStalled(msg.turn)
	}
}

// terminate cancels every timer, closes connections and drops the session
// from the registry. It runs at most once.
func (s *Session) terminate(reason string) {
	if s.done {
		return
	}
	s.reg.Remove(s.id)
	s.shutdown()
	s.log.Info("session terminated", zap.String("reason", reason), zap.Int("turn", s.turn))
}

func (s *Session) shutdown() {
	s.done = true
	s.tickCancel()
	if s.countdownCancel != nil {
		s.countdownCancel()
		s.countdownCancel = nil
	}
	s.router.closeAll()
	s.pending = nil
	s.cancel()
}

func (s *Session) ticker(ctx context.Context) {
	t := time.NewTicker(s.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !s.post(ctx, livenessTick{}) {
				return
			}
		}
	}
}

func (s *Session) countdown(ctx context.Context) {
	t := time.NewTicker(s.cfg.CountdownStep)
	defer t.Stop()
	for remaining := s.cfg.CountdownSeconds; ; {
		if remaining > 0 {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			remaining--
		}
		if !s.post(ctx, countdownTick{remaining: remaining}) || remaining <= 0 {
			return
		}
	}
}

func (s *Session) participant(id int) *engine.Participant {
	if id < 0 || id >= len(s.participants) {
		return nil
	}
	return s.participants[id]
}

func (s *Session) activeHumans() int {
	n := 0
	for _, p := range s.participants {
		if !p.IsAI && p.Active {
			n++
		}
	}
	return n
}

func (s *Session) connectedHumans() int {
	n := 0
	for _, p := range s.participants {
		if !p.IsAI && s.router.connected(p.ID) {
			n++
		}
	}
	return n
}

func (s *Session) active() []*engine.Participant {
	var out []*engine.Participant
	for _, p := range s.participants {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) reject(o *Outbox, err error) {
	s.log.Debug("command rejected", zap.Error(err))
	s.router.reply(o, Rejection{Reason: err.Error()})
}

func (s *Session) view() View {
	v := View{
		ID:            s.id,
		Started:       s.started,
		Turn:          s.turn,
		OpenPositions: len(s.positions),
		StallPending:  s.stallPending,
	}
	for _, p := range s.participants {
		v.Participants = append(v.Participants, p.Clone())
		if s.router.connected(p.ID) {
			v.Connected = append(v.Connected, p.ID)
		}
	}
	return v
}
