package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPositionPool_Distinct(t *testing.T) {
	// A tiny board forces collisions so the retry path runs.
	b := Board{Width: 3, Height: 3}
	pool := NewPositionPool(NewRand(3), b, 9)

	assert.Len(t, pool, 9)
	seen := map[[2]int]bool{}
	for _, p := range pool {
		key := [2]int{p.X, p.Y}
		assert.False(t, seen[key], "position %v assigned twice", key)
		seen[key] = true
		assert.GreaterOrEqual(t, p.Facing, 0)
		assert.Less(t, p.Facing, 4)
		assert.Less(t, p.X, b.Width)
		assert.Less(t, p.Y, b.Height)
	}
}

func TestParticipant_TurnBookkeeping(t *testing.T) {
	p := &Participant{CardOptions: []int{1, 2, 3}}
	assert.False(t, p.MovedIn(0))

	p.Moves = append(p.Moves, Move{Turn: 0, Card: 2})
	assert.True(t, p.MovedIn(0))
	assert.False(t, p.MovedIn(1))

	p.AnimationDone, p.HasDeathVoted, p.DeathVotes = true, true, 3
	p.ResetTurn()
	assert.False(t, p.AnimationDone)
	assert.False(t, p.HasDeathVoted)
	assert.Zero(t, p.DeathVotes)

	c := p.Clone()
	c.CardOptions[0] = 99
	assert.Equal(t, 1, p.CardOptions[0], "clone must not alias offers")
}
