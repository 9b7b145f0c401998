package pricing

import (
	"context"
	"fmt"
	"sync"
)

type quoter interface {
	CalculatePrice(ctx context.Context, req Request) (*Quote, error)
}

// Engine fetches quotes for one booking session and keeps the latest one.
// Each call to Quote makes its inputs current; a response for inputs that are
// no longer current is dropped instead of replacing the current quote.
type Engine struct {
	client quoter

	mu      sync.Mutex
	current string
	quote   *Quote
}

func NewEngine(client quoter) *Engine {
	return &Engine{client: client}
}

// Quote requests a price for in. When in is not ready no request is made,
// any held quote is cleared and ErrNotReady is returned.
func (e *Engine) Quote(ctx context.Context, in Input) (*Quote, error) {
	return e.Begin(in).Fetch(ctx)
}

// Begin makes in the current input without calling the booking service.
// Callers that fetch asynchronously use it to fix the order of their
// requests before any of them runs.
func (e *Engine) Begin(in Input) *Pending {
	key := in.key()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != key {
		e.current = key
		e.quote = nil
	}
	return &Pending{engine: e, in: in, key: key}
}

// Pending is a quote request started by Begin.
type Pending struct {
	engine *Engine
	in     Input
	key    string
}

// Fetch performs the request. The result is dropped with ErrSuperseded when
// another input became current in the meantime.
func (p *Pending) Fetch(ctx context.Context) (*Quote, error) {
	if !p.in.Ready() {
		return nil, ErrNotReady
	}

	q, err := p.engine.client.CalculatePrice(ctx, p.in.Request())

	e := p.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != p.key {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, fmt.Errorf("calculate price: %w", err)
	}

	e.quote = q
	return q, nil
}

// Current returns the quote for the current inputs, or nil when there is none.
func (e *Engine) Current() *Quote {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quote
}

// Reset forgets the current inputs; in-flight responses become stale.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = ""
	e.quote = nil
}
