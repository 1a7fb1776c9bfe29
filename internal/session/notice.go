package session

import (
	"sync"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
)

// Notice is the closed set of messages a session sends to participants.
type Notice interface{ isNotice() }

// Seated is the participant's own record, private key included.
type Seated struct {
	Participant engine.Participant
}

type Roster struct {
	Participants []engine.PublicParticipant
}

type Joined struct {
	Participant engine.PublicParticipant
}

type CardOffer struct {
	ParticipantID int
	Turn          int
	Cards         []int
}

type MoveMade struct {
	Move engine.Move
}

type Countdown struct {
	Seconds int
}

type Eliminated struct {
	ParticipantID int
}

// SessionOver is sent before a started session closes. WinnerID is -1 when
// nobody is left standing.
type SessionOver struct {
	WinnerID int
}

// Rejection carries a plain-text reason back to the submitter only.
type Rejection struct {
	Reason string
}

func (Seated) isNotice()      {}
func (Roster) isNotice()      {}
func (Joined) isNotice()      {}
func (CardOffer) isNotice()   {}
func (MoveMade) isNotice()    {}
func (Countdown) isNotice()   {}
func (Eliminated) isNotice()  {}
func (SessionOver) isNotice() {}
func (Rejection) isNotice()   {}

// Outbox is a participant's outbound queue. Push never blocks and is safe
// after Close, so sessions can fire and forget.
type Outbox struct {
	mu     sync.Mutex
	ch     chan Notice
	closed bool
}

func NewOutbox(size int) *Outbox {
	return &Outbox{ch: make(chan Notice, size)}
}

func (o *Outbox) C() <-chan Notice { return o.ch }

// Push reports false when the outbox is closed or full.
func (o *Outbox) Push(n Notice) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	select {
	case o.ch <- n:
		return true
	default:
		return false
	}
}

func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}
