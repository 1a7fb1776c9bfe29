package session

import (
	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"go.uber.org/zap"
)

func (s *Session) handleJoin(m Join) {
	wasStarted := s.started
	p, err := s.seat(m.Username, m.Character, m.IsAI)
	if err != nil {
		s.log.Debug("join rejected", zap.Error(err))
		if m.Reply != nil {
			m.Reply <- JoinResult{Err: err}
		}
		return
	}

	if m.Outbox != nil && !p.IsAI {
		s.router.attach(p.ID, m.Outbox)
	}
	s.router.send(p.ID, Seated{Participant: p.Clone()})
	s.router.send(p.ID, Roster{Participants: s.roster()})
	s.router.broadcastExcept(Joined{Participant: p.Public()}, p.ID)
	if m.Reply != nil {
		m.Reply <- JoinResult{Participant: p.Clone()}
	}

	// Last seat taken: skip whatever is left of the countdown.
	if len(s.positions) == 0 && !s.started {
		s.advance()
	}
	if p.IsAI && p.Active && wasStarted {
		s.enqueueAIMove(p)
	}
}

// seat claims the next open position for a new participant.
func (s *Session) seat(username string, character int, isAI bool) (*engine.Participant, error) {
	if len(s.positions) == 0 {
		return nil, engine.ErrSessionFull
	}
	key, err := engine.NewPrivateKey()
	if err != nil {
		return nil, err
	}

	id := len(s.participants)
	name := engine.SanitizeName(username, id)
	if isAI {
		name = engine.BotName(id)
	}
	if character < 0 || character >= s.cfg.Characters {
		character = 0
	}

	p := &engine.Participant{
		ID:         id,
		SessionID:  s.id,
		Username:   name,
		PrivateKey: key,
		Character:  character,
		Position:   s.positions[0],
		IsAI:       isAI,
		Active:     true,
	}
	s.positions = s.positions[1:]
	s.participants = append(s.participants, p)

	s.log.Info("participant seated",
		zap.Int("participant_id", id),
		zap.String("username", name),
		zap.Bool("is_ai", isAI),
		zap.Int("open_positions", len(s.positions)),
	)
	return p, nil
}

// backfill fills every remaining seat with an AI participant.
func (s *Session) backfill() {
	for len(s.positions) > 0 {
		p, err := s.seat("", s.rng.IntN(s.cfg.Characters), true)
		if err != nil {
			s.log.Error("backfill failed", zap.Error(err))
			return
		}
		s.router.broadcast(Joined{Participant: p.Public()})
	}
}

func (s *Session) roster() []engine.PublicParticipant {
	out := make([]engine.PublicParticipant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p.Public())
	}
	return out
}
