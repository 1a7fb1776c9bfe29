package session

import (
	"context"
	"testing"
	"time"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func animationDone(s *Session, st seat, turn int) {
	s.Send(AnimationDone{ParticipantID: st.p.ID, PrivateKey: st.p.PrivateKey, Turn: turn, From: st.out})
}

func TestSession_Tick_AdvancesOnceAllAnimationsDone(t *testing.T) {
	cfg := testConfig()
	cfg.TickInterval = 50 * time.Millisecond
	s, _, a, b, _, _ := startPair(t, cfg)

	animationDone(s, a, 0)
	recvNone(t, a.out, 150*time.Millisecond)
	assert.Zero(t, state(t, s).Turn, "one animation still outstanding")

	animationDone(s, b, 0)
	offer := recvUntil[CardOffer](t, a.out, time.Second, nil)
	assert.Equal(t, 1, offer.Turn)

	v := state(t, s)
	assert.Equal(t, 1, v.Turn)
	for _, p := range v.Participants {
		assert.False(t, p.AnimationDone)
		assert.True(t, p.MovedIn(0))
	}
}

func TestSession_AnimationDone_WrongKeyRejected(t *testing.T) {
	s, _, a, b, _, _ := startPair(t, testConfig())

	s.Send(AnimationDone{ParticipantID: b.p.ID, PrivateKey: "nope", From: a.out})
	rej := recvUntil[Rejection](t, a.out, time.Second, nil)
	assert.Equal(t, engine.ErrWrongKey.Error(), rej.Reason)
	assert.False(t, state(t, s).Participants[1].AnimationDone)
}

func TestSession_Tick_LastSurvivorEndsSession(t *testing.T) {
	cfg := testConfig()
	cfg.TickInterval = 50 * time.Millisecond
	s, reg, a, b, _, _ := startPair(t, cfg)

	vote(s, a, b.p.ID, 0)
	recvUntil[Eliminated](t, b.out, time.Second, nil)

	over := recvUntil[SessionOver](t, a.out, time.Second, nil)
	assert.Equal(t, a.p.ID, over.WinnerID)
	waitClosed(t, a.out, time.Second)
	waitDone(t, s, time.Second)
	assert.Equal(t, []string{"test-session"}, reg.Removed())
}

func TestSession_Tick_NoConnectedHumansEndsLobby(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSeats = 3
	cfg.TickInterval = 50 * time.Millisecond
	s, reg := newTestSession(t, cfg)

	a := join(t, s, "alice")
	s.Send(Leave{ParticipantID: a.p.ID, Outbox: a.out})

	waitClosed(t, a.out, time.Second)
	waitDone(t, s, time.Second)
	assert.Equal(t, []string{"test-session"}, reg.Removed())
	assert.Empty(t, reg.Started())
}

func TestSession_Tick_DroppedConnectionEliminated(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSeats = 4
	cfg.TickInterval = 50 * time.Millisecond
	s, _ := newTestSession(t, cfg)

	a := join(t, s, "alice")
	b := join(t, s, "bob")
	addAI(t, s)
	addAI(t, s)
	recvUntil[CardOffer](t, a.out, time.Second, nil)

	s.Send(Leave{ParticipantID: b.p.ID, Outbox: b.out})
	el := recvUntil[Eliminated](t, a.out, time.Second, nil)
	assert.Equal(t, b.p.ID, el.ParticipantID)

	v := state(t, s)
	assert.False(t, v.Participants[1].Active)
	assert.True(t, v.Participants[0].Active)
	assert.Equal(t, []int{a.p.ID}, v.Connected)
}

func TestSession_StallFallbackAdvancesWithoutSpectators(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSeats = 4
	cfg.TickInterval = 50 * time.Millisecond
	cfg.StallDelay = 50 * time.Millisecond
	s, _ := newTestSession(t, cfg)

	a := join(t, s, "alice")
	b := join(t, s, "bob")
	addAI(t, s)
	addAI(t, s)
	recvUntil[CardOffer](t, a.out, time.Second, nil)

	// Bob is voted out but stays connected and never reports their animations.
	vote(s, a, b.p.ID, 0)
	recvUntil[Eliminated](t, b.out, time.Second, nil)
	animationDone(s, a, 0)

	offer := recvUntil[CardOffer](t, a.out, 2*time.Second, nil)
	assert.Equal(t, 1, offer.Turn)

	v := state(t, s)
	require.Equal(t, 1, v.Turn)
	assert.Contains(t, v.Connected, b.p.ID)
	assert.Nil(t, v.Participants[1].CardOptions, "eliminated participants get no offer")
	assert.False(t, v.StallPending)
}

func TestSession_StallFallbackAdvancesBotOnlyTurns(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSeats = 4
	cfg.TickInterval = 20 * time.Millisecond
	cfg.StallDelay = 20 * time.Millisecond
	s, _ := newTestSession(t, cfg)

	a := join(t, s, "alice")
	b := join(t, s, "bob")
	addAI(t, s)
	addAI(t, s)
	recvUntil[CardOffer](t, a.out, time.Second, nil)

	// Both humans are voted out but stay connected as silent spectators.
	vote(s, a, b.p.ID, 0)
	vote(s, b, a.p.ID, 0)
	v := state(t, s)
	require.False(t, v.Participants[0].Active)
	require.False(t, v.Participants[1].Active)

	require.Eventually(t, func() bool {
		v, err := s.State(context.Background())
		return err == nil && v.Turn >= 2
	}, 2*time.Second, 20*time.Millisecond)

	v = state(t, s)
	assert.ElementsMatch(t, []int{a.p.ID, b.p.ID}, v.Connected)
	assert.True(t, v.Participants[2].Active)
	assert.True(t, v.Participants[3].Active)
}
