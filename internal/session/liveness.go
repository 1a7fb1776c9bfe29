package session

import (
	"time"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"go.uber.org/zap"
)

func (s *Session) handleAnimationDone(m AnimationDone) {
	p := s.participant(m.ParticipantID)
	if p == nil {
		s.reject(m.From, engine.ErrWrongKey)
		return
	}
	if err := engine.CheckKey(p, m.PrivateKey); err != nil {
		s.reject(m.From, err)
		return
	}
	if !s.started || m.Turn != s.turn {
		return
	}
	p.AnimationDone = true
}

// handleTick is the periodic driver: it retires dropped connections, ends
// finished sessions and advances the turn once every live connection has
// played its animations.
func (s *Session) handleTick() {
	for _, p := range s.participants {
		if !p.IsAI && p.Active && !s.router.connected(p.ID) {
			s.eliminate(p, "connection lost")
		}
	}

	if s.over() {
		s.finish()
		return
	}

	waiting := 0
	for _, p := range s.participants {
		if s.router.connected(p.ID) && !p.AnimationDone {
			waiting++
		}
	}
	if waiting > 0 {
		s.maybeScheduleStall()
		return
	}
	s.completeTurn()
}

// over: nobody human is connected, or the game has a single survivor.
func (s *Session) over() bool {
	if s.connectedHumans() == 0 {
		return true
	}
	return s.started && len(s.active()) <= 1
}

func (s *Session) completeTurn() {
	if s.over() {
		s.finish()
		return
	}
	for _, p := range s.participants {
		p.AnimationDone = false
	}
	s.advance()
}

func (s *Session) finish() {
	if s.started {
		winner := -1
		if alive := s.active(); len(alive) == 1 {
			winner = alive[0].ID
		}
		s.router.broadcast(SessionOver{WinnerID: winner})
	}
	s.terminate("game over")
}

// maybeScheduleStall arms a one-shot advance once enough active humans are
// done. The timer is never cancelled; handleStalled ignores it if the turn
// has moved on.
func (s *Session) maybeScheduleStall() {
	if !s.started || s.stallPending {
		return
	}
	done, humans := 0, 0
	for _, p := range s.participants {
		if !p.IsAI && p.Active {
			humans++
			if p.AnimationDone {
				done++
			}
		}
	}
	if !engine.StallReached(done, humans, s.cfg.StallPercent) {
		return
	}

	s.stallPending = true
	turn := s.turn
	time.AfterFunc(s.cfg.StallDelay, func() {
		s.post(s.ctx, stalledAdvance{turn: turn})
	})
	s.log.Debug("stalled turn fallback armed", zap.Int("turn", turn), zap.Int("done", done), zap.Int("humans", humans))
}

func (s *Session) handleStalled(turn int) {
	if !s.started || turn != s.turn {
		return
	}
	s.log.Debug("stalled turn forced", zap.Int("turn", turn))
	s.completeTurn()
}
