// Package provider is the boundary to external free-text generation
// backends. The gateway holds an ordered list of backend strategies with a
// uniform availability probe; it never touches game state.
package provider

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Message is one prior transcript entry handed to a backend.
type Message struct {
	Role string // system, player, narrator
	Text string
}

// Request carries everything a backend needs for one generation.
type Request struct {
	System    string
	History   []Message
	Player    string
	Preferred string
}

// Backend is one generation strategy.
type Backend interface {
	Name() string
	// Available is a cheap capability probe, not a network round trip.
	Available() bool
	Generate(ctx context.Context, req Request) (string, error)
}

var retryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

type Gateway struct {
	backends []Backend
	sleep    func(context.Context, time.Duration) error
}

// New builds a gateway over backends in preference order.
func New(backends ...Backend) *Gateway {
	return &Gateway{backends: backends, sleep: sleepCtx}
}

// Generate selects a backend and invokes it, retrying transient faults with
// exponential backoff. It returns the generated text and the name of the
// backend that produced it.
func (g *Gateway) Generate(ctx context.Context, req Request) (string, string, error) {
	candidates := g.candidates(req.Preferred)
	if len(candidates) == 0 {
		return "", "", ErrNoProvider
	}

	var lastErr error
	for _, b := range candidates {
		text, err := g.generateWithRetry(ctx, b, req)
		if err == nil {
			return text, b.Name(), nil
		}
		lastErr = &BackendError{Backend: b.Name(), Err: err}
		log.Warn().Str("backend", b.Name()).Err(err).Msg("generation backend failed")
		// A named preference does not fall through to other backends; the
		// caller asked for that one specifically.
		if req.Preferred != "" {
			return "", "", lastErr
		}
	}
	return "", "", lastErr
}

func (g *Gateway) candidates(preferred string) []Backend {
	if preferred != "" {
		for _, b := range g.backends {
			if strings.EqualFold(b.Name(), preferred) && b.Available() {
				return []Backend{b}
			}
		}
		return nil
	}
	out := make([]Backend, 0, len(g.backends))
	for _, b := range g.backends {
		if b.Available() {
			out = append(out, b)
		}
	}
	return out
}

func (g *Gateway) generateWithRetry(ctx context.Context, b Backend, req Request) (string, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		text, err := b.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !transient(err) || attempt >= len(retryDelays) {
			return "", lastErr
		}
		if err := g.sleep(ctx, retryDelays[attempt]); err != nil {
			return "", lastErr
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
