package runner

import (
	"context"
	"sync"
)

// Group runs the long-lived pipeline goroutines and remembers the
// first error that was not plain context cancellation.
type Group struct {
	wg sync.WaitGroup

	mu    sync.Mutex
	first error
}

func (g *Group) Go(ctx context.Context, fn func(ctx context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := fn(ctx); err != nil && err != context.Canceled {
			g.mu.Lock()
			if g.first == nil {
				g.first = err
			}
			g.mu.Unlock()
		}
	}()
}

func (g *Group) Wait() error {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.first
}
