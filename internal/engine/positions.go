package engine

import "math/rand/v2"

// NewPositionPool samples n distinct board cells, retrying on collision, each
// with a random facing. The caller guarantees n <= b.Cells().
func NewPositionPool(r *rand.Rand, b Board, n int) []Position {
	taken := make(map[[2]int]bool, n)
	pool := make([]Position, 0, n)
	for len(pool) < n {
		x, y := r.IntN(b.Width), r.IntN(b.Height)
		if taken[[2]int{x, y}] {
			continue
		}
		taken[[2]int{x, y}] = true
		pool = append(pool, Position{X: x, Y: y, Facing: r.IntN(4)})
	}
	return pool
}
