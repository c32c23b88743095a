// Package resolve implements the fallback chains that fill in a job card's
// logo, contact identities, photos and emails.
//
// A chain tries its strategies in order and stops at the first usable
// result. Every chain ends in a fallback that cannot fail, so callers always
// get a value and the source that produced it.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amishk599/jobdeck/internal/model"
)

// Resolved is a chain result together with the strategy that produced it.
type Resolved[T any] struct {
	Value  T
	Source model.Source
}

// Step is one strategy in a chain. Fn reports ok=false when it has nothing
// usable; an error is logged and treated the same way.
type Step[In, Out any] struct {
	Source model.Source
	Fn     func(ctx context.Context, in In) (out Out, ok bool, err error)
}

// Chain runs steps in order and falls back when none of them succeeds.
type Chain[In, Out any] struct {
	name     string
	steps    []Step[In, Out]
	fallback Step[In, Out]
	logger   *slog.Logger
}

// NewChain builds a chain. fallback.Fn must always return ok.
func NewChain[In, Out any](name string, fallback Step[In, Out], logger *slog.Logger, steps ...Step[In, Out]) *Chain[In, Out] {
	return &Chain[In, Out]{
		name:     name,
		steps:    steps,
		fallback: fallback,
		logger:   logger,
	}
}

// Resolve returns the first usable result. Later steps are never invoked
// once one succeeds.
func (c *Chain[In, Out]) Resolve(ctx context.Context, in In) Resolved[Out] {
	for _, step := range c.steps {
		if ctx.Err() != nil {
			break
		}
		out, ok, err := c.run(ctx, step, in)
		if err != nil {
			c.logger.Debug("resolve strategy failed", "chain", c.name, "source", step.Source, "error", err)
			continue
		}
		if ok {
			return Resolved[Out]{Value: out, Source: step.Source}
		}
	}
	out, _, _ := c.run(context.WithoutCancel(ctx), c.fallback, in)
	return Resolved[Out]{Value: out, Source: c.fallback.Source}
}

func (c *Chain[In, Out]) run(ctx context.Context, step Step[In, Out], in In) (out Out, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero Out
			out, ok, err = zero, false, fmt.Errorf("panic: %v", r)
		}
	}()
	return step.Fn(ctx, in)
}

// Cache memoizes results for the lifetime of one run. It is safe for
// concurrent use.
type Cache[V any] struct {
	mu sync.Mutex
	m  map[string]V
}

// NewCache returns an empty cache.
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{m: make(map[string]V)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = v
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// cached resolves in through chain unless key is already cached. A result
// produced after ctx ended is returned but not cached.
func cached[In, Out any](ctx context.Context, cache *Cache[Resolved[Out]], key string, chain *Chain[In, Out], in In) Resolved[Out] {
	if cache != nil {
		if r, ok := cache.Get(key); ok {
			return r
		}
	}
	r := chain.Resolve(ctx, in)
	if cache != nil && ctx.Err() == nil {
		cache.Set(key, r)
	}
	return r
}
