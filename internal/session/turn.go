package session

import (
	"slices"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"go.uber.org/zap"
)

func (s *Session) handleCountdown(remaining int) {
	if s.started {
		return
	}
	s.router.broadcast(Countdown{Seconds: remaining})
	if remaining <= 0 {
		s.advance()
	}
}

// advance leaves the lobby on its first call and moves to the next turn on
// every later one. Either way a fresh offer goes to every active participant.
func (s *Session) advance() {
	s.stallPending = false

	if !s.started {
		if s.countdownCancel != nil {
			s.countdownCancel()
			s.countdownCancel = nil
		}
		s.started = true
		s.reg.MarkStarted(s.id)
		s.backfill()
		s.log.Info("session started", zap.Int("participants", len(s.participants)))
	} else {
		for _, p := range s.participants {
			if p.Active && !p.MovedIn(s.turn) {
				s.autoMove(p)
			}
		}
		for _, p := range s.participants {
			p.ResetTurn()
		}
		s.turn++
		s.log.Debug("turn advanced", zap.Int("turn", s.turn))
	}

	s.issueOffers()
	for _, p := range s.participants {
		if p.IsAI && p.Active {
			s.enqueueAIMove(p)
		}
	}
}

func (s *Session) issueOffers() {
	for _, p := range s.participants {
		if !p.Active {
			p.CardOptions = nil
			continue
		}
		p.CardOptions = s.cards.Offer(s.rng, s.cfg.OfferSize)
		if !p.IsAI {
			s.router.send(p.ID, CardOffer{ParticipantID: p.ID, Turn: s.turn, Cards: slices.Clone(p.CardOptions)})
		}
	}
}

// autoMove plays for a participant who let the turn run out.
func (s *Session) autoMove(p *engine.Participant) {
	card := s.cards.Draw(s.rng)
	if !p.IsAI && len(p.CardOptions) > 0 {
		card = p.CardOptions[s.rng.IntN(len(p.CardOptions))]
	}
	s.recordMove(p, card, s.rng.IntN(s.cfg.Locations), -1)
}

func (s *Session) enqueueAIMove(p *engine.Participant) {
	s.pending = append(s.pending, SubmitMove{
		ParticipantID: p.ID,
		PrivateKey:    p.PrivateKey,
		Turn:          s.turn,
		Card:          s.cards.Draw(s.rng),
		Location:      s.rng.IntN(s.cfg.Locations),
	})
}

func (s *Session) handleMove(m SubmitMove) {
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
		s.log.Debug("stale move dropped", zap.Int("participant_id", p.ID), zap.Int("turn", m.Turn))
		return
	}
	if p.IsAI && (!p.Active || p.MovedIn(s.turn)) {
		return
	}
	if err := engine.ValidateMove(s.cfg, p, m.PrivateKey, m.Card, m.Location); err != nil {
		s.reject(m.From, err)
		return
	}
	s.recordMove(p, m.Card, m.Location, p.ID)
}

// recordMove appends to history, consumes the offer and relays the move to
// everyone except skip.
func (s *Session) recordMove(p *engine.Participant, card, location, skip int) {
	mv := engine.Move{ParticipantID: p.ID, Turn: s.turn, Card: card, Location: location}
	p.Moves = append(p.Moves, mv)
	p.CardOptions = nil
	s.router.broadcastExcept(MoveMade{Move: mv}, skip)
	s.log.Debug("move accepted",
		zap.Int("participant_id", p.ID),
		zap.Int("turn", s.turn),
		zap.Int("card", card),
	)
}
