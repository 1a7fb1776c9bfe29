package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"slices"
)

var ErrNoWeight = errors.New("card weights sum to zero")

// Distribution draws card ids in proportion to a fixed weight table using a
// cumulative-sum binary search. Zero-weight cards are never drawn.
type Distribution struct {
	cumulative []int
	total      int
}

func NewDistribution(weights []int) (*Distribution, error) {
	d := &Distribution{cumulative: make([]int, len(weights))}
	for i, w := range weights {
		if w < 0 {
			return nil, errors.New("negative card weight")
		}
		d.total += w
		d.cumulative[i] = d.total
	}
	if d.total == 0 {
		return nil, ErrNoWeight
	}
	return d, nil
}

func (d *Distribution) Len() int { return len(d.cumulative) }

func (d *Distribution) Draw(r *rand.Rand) int {
	x := r.IntN(d.total)
	// First index whose running total exceeds x.
	i, _ := slices.BinarySearch(d.cumulative, x+1)
	return i
}

// Offer samples n cards with replacement.
func (d *Distribution) Offer(r *rand.Rand, n int) []int {
	cards := make([]int, n)
	for i := range cards {
		cards[i] = d.Draw(r)
	}
	return cards
}

// NewRand returns a PCG stream. A zero seed is replaced by one read from crypto/rand.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		var b [8]byte
		if _, err := crand.Read(b[:]); err == nil {
			seed = binary.LittleEndian.Uint64(b[:])
		} else {
			seed = rand.Uint64()
		}
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
