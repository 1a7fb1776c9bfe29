package engine

import "slices"

type Position struct {
	X      int
	Y      int
	Facing int // 0..3
}

// Move is an accepted card submission. Never mutated after creation.
type Move struct {
	ParticipantID int
	Turn          int
	Card          int
	Location      int
}

// Participant is one seat in a session, human or AI. Seats are never removed,
// so ID always equals the participant's index in the session.
type Participant struct {
	ID         int
	SessionID  string
	Username   string
	PrivateKey string
	Character  int
	Position   Position
	IsAI       bool
	Active     bool

	Moves         []Move
	CardOptions   []int // nil outside an open offer
	AnimationDone bool
	HasDeathVoted bool
	DeathVotes    int
}

// PublicParticipant is what other participants may see; it never carries the key.
type PublicParticipant struct {
	ID        int
	SessionID string
	Username  string
	Character int
	Position  Position
	IsAI      bool
	Active    bool
}

func (p *Participant) Public() PublicParticipant {
	return PublicParticipant{
		ID:        p.ID,
		SessionID: p.SessionID,
		Username:  p.Username,
		Character: p.Character,
		Position:  p.Position,
		IsAI:      p.IsAI,
		Active:    p.Active,
	}
}

func (p *Participant) Clone() Participant {
	c := *p
	c.Moves = slices.Clone(p.Moves)
	c.CardOptions = slices.Clone(p.CardOptions)
	return c
}

// MovedIn reports whether the participant already has a move recorded for turn.
func (p *Participant) MovedIn(turn int) bool {
	n := len(p.Moves)
	return n > 0 && p.Moves[n-1].Turn == turn
}

func (p *Participant) Offered(card int) bool {
	return p.CardOptions != nil && slices.Contains(p.CardOptions, card)
}

// ResetTurn clears per-turn animation and vote bookkeeping.
func (p *Participant) ResetTurn() {
	p.AnimationDone = false
	p.HasDeathVoted = false
	p.DeathVotes = 0
}
