package session

import (
	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"go.uber.org/zap"
)

func (s *Session) handleVote(m VoteDeath) {
	voter := s.participant(m.VoterID)
	if voter == nil {
		s.reject(m.From, engine.ErrWrongKey)
		return
	}
	if err := engine.CheckKey(voter, m.PrivateKey); err != nil {
		s.reject(m.From, err)
		return
	}
	target := s.participant(m.TargetID)
	if target == nil || !s.started || m.Turn != s.turn {
		s.log.Debug("stale vote dropped", zap.Int("voter_id", m.VoterID), zap.Int("turn", m.Turn))
		return
	}
	// One vote per voter per turn; votes on the dead are ignored.
	if voter.HasDeathVoted || !target.Active {
		return
	}

	target.DeathVotes++
	voter.HasDeathVoted = true

	quorum := engine.Quorum(s.activeHumans(), s.cfg.QuorumPercent)
	s.log.Debug("death vote",
		zap.Int("voter_id", voter.ID),
		zap.Int("target_id", target.ID),
		zap.Int("votes", target.DeathVotes),
		zap.Int("quorum", quorum),
	)
	if target.DeathVotes >= quorum {
		s.eliminate(target, "voted out")
	}
}

// eliminate deactivates p for good and tells the whole session.
func (s *Session) eliminate(p *engine.Participant, reason string) {
	if !p.Active {
		return
	}
	p.Active = false
	p.CardOptions = nil
	s.router.broadcast(Eliminated{ParticipantID: p.ID})
	s.log.Info("participant eliminated", zap.Int("participant_id", p.ID), zap.String("reason", reason))
}
