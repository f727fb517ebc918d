// Package workload generates synthetic cache traffic: a weighted mix of
// GET/PUT/DELETE operations over a fixed pool of keys.
package workload

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/user/cachebench/pkg/client"
)

// NewKeyPool returns the fixed, ordered key set key0..key{n-1}.
// The pool is created once per run and never resized; workers share it
// read-only.
func NewKeyPool(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key%d", i)
	}
	return keys
}

// Result is the outcome of one workload task.
type Result struct {
	Op      Op
	Key     string
	Status  int
	Elapsed time.Duration
}

// Generator produces and executes individual workload tasks against a cache.
type Generator struct {
	client     *client.Client
	cache      string
	keys       []string
	sampler    *Sampler
	valueBound int
}

// NewGenerator creates a generator over the given key pool.
// valueBound caps the random integer embedded in synthetic PUT values;
// values are of the form value_<n> with n in [0, valueBound).
func NewGenerator(c *client.Client, cache string, keys []string, sampler *Sampler, valueBound int) (*Generator, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("key pool is empty")
	}
	if valueBound <= 0 {
		valueBound = 10000
	}
	return &Generator{
		client:     c,
		cache:      cache,
		keys:       keys,
		sampler:    sampler,
		valueBound: valueBound,
	}, nil
}

// Operation executes one randomly chosen cache operation against a random
// pool key. Elapsed time covers the full request/response cycle.
func (g *Generator) Operation(ctx context.Context) (Result, error) {
	op := g.sampler.Pick()
	key := g.keys[rand.IntN(len(g.keys))]

	var (
		resp *client.Response
		err  error
	)
	switch op {
	case OpPut:
		value := fmt.Sprintf("value_%d", rand.IntN(g.valueBound))
		resp, err = g.client.Put(ctx, g.cache, key, value)
	case OpDelete:
		resp, err = g.client.Delete(ctx, g.cache, key)
	default:
		resp, err = g.client.Get(ctx, g.cache, key)
	}
	if err != nil {
		return Result{Op: op, Key: key}, fmt.Errorf("%s %s: %w", op, key, err)
	}
	return Result{Op: op, Key: key, Status: resp.Status, Elapsed: resp.Elapsed}, nil
}
