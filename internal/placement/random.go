package placement

import (
	"context"
	"hash/maphash"
	"math/rand/v2"
	"sync"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

// Random places mines uniformly at random on every square except the
// first click.
type Random struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandom(r *rand.Rand) *Random {
	if r == nil {
		r = NewRand()
	}
	return &Random{rnd: r}
}

func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func (p *Random) Place(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height, mineCount := req.Config().Unpack()
	grid := mines.NewGrid(width, height, false)

	/*
	 * Write down the list of possible mine locations.
	 */
	first := req.Row*width + req.Col
	candidates := make([]int, 0, width*height-1)
	for i := range width * height {
		if i != first {
			candidates = append(candidates, i)
		}
	}

	/*
	 * Now pick n off the list at random.
	 */
	p.mu.Lock()
	k := len(candidates)
	for range mineCount {
		i := p.rnd.IntN(k)
		grid.Cells[candidates[i]] = true
		k--
		candidates[i] = candidates[k]
	}
	p.mu.Unlock()

	return &Response{
		Board:      grid.Rows(),
		MineCount:  mineCount,
		FirstClick: [2]int{req.Row, req.Col},
	}, nil
}
