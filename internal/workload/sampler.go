package workload

import (
	"fmt"
	"math/rand/v2"
)

// Op is a cache operation kind.
type Op string

const (
	OpGet    Op = "GET"
	OpPut    Op = "PUT"
	OpDelete Op = "DELETE"
)

// Weighted pairs an operation kind with its relative weight.
type Weighted struct {
	Op     Op
	Weight int
}

// DefaultMix is the standard traffic mix: 60% reads, 30% writes, 10% deletes.
func DefaultMix() []Weighted {
	return []Weighted{
		{Op: OpGet, Weight: 60},
		{Op: OpPut, Weight: 30},
		{Op: OpDelete, Weight: 10},
	}
}

// Sampler draws operation kinds from a discrete weighted distribution.
// Draws are independent; no state is carried between picks, so a single
// Sampler is safe to share across workers.
type Sampler struct {
	choices []Weighted
	total   int
}

// NewSampler builds a sampler from explicit (kind, weight) pairs.
func NewSampler(choices []Weighted) (*Sampler, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("sampler needs at least one choice")
	}
	total := 0
	for _, c := range choices {
		if c.Weight < 0 {
			return nil, fmt.Errorf("negative weight %d for %s", c.Weight, c.Op)
		}
		total += c.Weight
	}
	if total == 0 {
		return nil, fmt.Errorf("sampler weights sum to zero")
	}
	return &Sampler{choices: choices, total: total}, nil
}

// Pick returns one operation kind according to the configured weights.
func (s *Sampler) Pick() Op {
	n := rand.IntN(s.total)
	for _, c := range s.choices {
		if n < c.Weight {
			return c.Op
		}
		n -= c.Weight
	}
	// Unreachable: n < total by construction.
	return s.choices[len(s.choices)-1].Op
}
