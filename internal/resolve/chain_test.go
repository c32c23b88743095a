package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/amishk599/jobdeck/internal/model"
)

func TestChain_FirstUsableResultWins(t *testing.T) {
	var laterCalls int
	chain := NewChain("test",
		Step[string, string]{Source: model.SourcePlaceholder, Fn: func(context.Context, string) (string, bool, error) {
			return "fallback", true, nil
		}},
		discardLogger(),
		Step[string, string]{Source: model.SourceHunter, Fn: func(context.Context, string) (string, bool, error) {
			return "", false, nil
		}},
		Step[string, string]{Source: model.SourceClearbit, Fn: func(_ context.Context, in string) (string, bool, error) {
			return "got " + in, true, nil
		}},
		Step[string, string]{Source: model.SourceProxycurl, Fn: func(context.Context, string) (string, bool, error) {
			laterCalls++
			return "later", true, nil
		}},
	)

	got := chain.Resolve(context.Background(), "acme")
	if got.Value != "got acme" || got.Source != model.SourceClearbit {
		t.Errorf("Resolve = %+v, want clearbit result", got)
	}
	if laterCalls != 0 {
		t.Errorf("later step called %d times, want 0", laterCalls)
	}
}

func TestChain_FallbackWhenAllStepsFail(t *testing.T) {
	chain := NewChain("test",
		Step[string, string]{Source: model.SourceUIAvatars, Fn: func(context.Context, string) (string, bool, error) {
			return "avatar", true, nil
		}},
		discardLogger(),
		Step[string, string]{Source: model.SourceHunter, Fn: func(context.Context, string) (string, bool, error) {
			return "ignored", true, errors.New("boom")
		}},
		Step[string, string]{Source: model.SourceProxycurl, Fn: func(context.Context, string) (string, bool, error) {
			panic("bad data")
		}},
	)

	got := chain.Resolve(context.Background(), "x")
	if got.Value != "avatar" || got.Source != model.SourceUIAvatars {
		t.Errorf("Resolve = %+v, want fallback", got)
	}
}

func TestChain_CancelledContextStillFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called bool
	chain := NewChain("test",
		Step[int, int]{Source: model.SourcePlaceholder, Fn: func(context.Context, int) (int, bool, error) {
			return -1, true, nil
		}},
		discardLogger(),
		Step[int, int]{Source: model.SourceHunter, Fn: func(context.Context, int) (int, bool, error) {
			called = true
			return 1, true, nil
		}},
	)

	got := chain.Resolve(ctx, 0)
	if called {
		t.Error("step called with cancelled context")
	}
	if got.Value != -1 {
		t.Errorf("Value = %d, want fallback", got.Value)
	}
}

func TestCached_ResolvesOncePerKey(t *testing.T) {
	var calls int
	chain := NewChain("test",
		Step[string, string]{Source: model.SourcePlaceholder, Fn: func(_ context.Context, in string) (string, bool, error) {
			calls++
			return in, true, nil
		}},
		discardLogger(),
	)
	cache := NewCache[Resolved[string]]()

	for i := 0; i < 3; i++ {
		cached(context.Background(), cache, "k", chain, "v")
	}
	cached(context.Background(), cache, "other", chain, "w")

	if calls != 2 {
		t.Errorf("chain resolved %d times, want 2", calls)
	}
	if cache.Len() != 2 {
		t.Errorf("cache.Len() = %d, want 2", cache.Len())
	}
}

func TestCached_SkipsResultsFromCancelledContext(t *testing.T) {
	var calls int
	chain := NewChain("test",
		Step[string, string]{Source: model.SourcePlaceholder, Fn: func(context.Context, string) (string, bool, error) {
			return "fallback", true, nil
		}},
		discardLogger(),
		Step[string, string]{Source: model.SourceHunter, Fn: func(context.Context, string) (string, bool, error) {
			calls++
			return "found", true, nil
		}},
	)
	cache := NewCache[Resolved[string]]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := cached(ctx, cache, "k", chain, "v"); got.Value != "fallback" {
		t.Errorf("cancelled Value = %q, want fallback", got.Value)
	}
	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d after cancelled resolve, want 0", cache.Len())
	}

	if got := cached(context.Background(), cache, "k", chain, "v"); got.Value != "found" || got.Source != model.SourceHunter {
		t.Errorf("Resolve = %+v, want hunter result", got)
	}
	if calls != 1 {
		t.Errorf("step called %d times, want 1", calls)
	}
}
