package engine

import (
	"errors"
	"fmt"
	"time"
)

type Board struct {
	Width  int
	Height int
}

func (b Board) Cells() int { return b.Width * b.Height }

// Config holds every tuning constant of a session. It is passed by value into
// the coordinator and never mutated after construction.
type Config struct {
	MaxSeats   int
	Board      Board
	Characters int
	Locations  int
	OfferSize  int

	// CardWeights maps card id (index) to its relative draw weight.
	CardWeights []int

	CountdownSeconds int
	CountdownStep    time.Duration
	TickInterval     time.Duration
	StallDelay       time.Duration

	QuorumPercent int
	StallPercent  int

	// Seed fixes the session random stream when non-zero.
	Seed uint64
}

var DefaultCardWeights = []int{
	10, 10, 10, 10, 8, 8, 8, 8, 6, 6,
	6, 6, 5, 5, 5, 5, 4, 4, 4, 4,
	3, 3, 3, 3, 2, 2, 2, 2, 2, 2,
	1, 1, 1, 1, 0, 0, 0, 0,
}

func DefaultConfig() Config {
	return Config{
		MaxSeats:         8,
		Board:            Board{Width: 100, Height: 100},
		Characters:       4,
		Locations:        5,
		OfferSize:        3,
		CardWeights:      append([]int(nil), DefaultCardWeights...),
		CountdownSeconds: 30,
		CountdownStep:    time.Second,
		TickInterval:     time.Second,
		StallDelay:       5 * time.Second,
		QuorumPercent:    50,
		StallPercent:     90,
	}
}

var ErrInvalidConfig = errors.New("invalid game config")

func (c Config) Validate() error {
	switch {
	case c.MaxSeats < 2:
		return fmt.Errorf("%w: max seats %d < 2", ErrInvalidConfig, c.MaxSeats)
	case c.Board.Width <= 0 || c.Board.Height <= 0:
		return fmt.Errorf("%w: board %dx%d", ErrInvalidConfig, c.Board.Width, c.Board.Height)
	case c.MaxSeats > c.Board.Cells():
		return fmt.Errorf("%w: %d seats do not fit a %d cell board", ErrInvalidConfig, c.MaxSeats, c.Board.Cells())
	case c.Characters < 1 || c.Locations < 1 || c.OfferSize < 1:
		return fmt.Errorf("%w: characters, locations and offer size must be positive", ErrInvalidConfig)
	case c.QuorumPercent < 1 || c.QuorumPercent > 100:
		return fmt.Errorf("%w: quorum percent %d", ErrInvalidConfig, c.QuorumPercent)
	case c.StallPercent < 1 || c.StallPercent > 100:
		return fmt.Errorf("%w: stall percent %d", ErrInvalidConfig, c.StallPercent)
	case c.CountdownSeconds < 1:
		return fmt.Errorf("%w: countdown seconds %d", ErrInvalidConfig, c.CountdownSeconds)
	case c.CountdownStep <= 0 || c.TickInterval <= 0 || c.StallDelay <= 0:
		return fmt.Errorf("%w: timer durations must be positive", ErrInvalidConfig)
	}
	if _, err := NewDistribution(c.CardWeights); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
