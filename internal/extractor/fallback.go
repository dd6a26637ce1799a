package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fleetdocs/internal/port"
)

// ErrUnparseableReply marks a provider reply that carries no JSON object
// although one was requested.
var ErrUnparseableReply = errors.New("reply contains no JSON object")

// provider is one entry in the fallback chain. cooldownUntil is zero while
// the provider is healthy and set after it answers 429.
type provider struct {
	name    string
	backend port.GenerativeBackend

	mu            sync.RWMutex
	cooldownUntil time.Time
}

func (p *provider) coolingDown(now time.Time) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cooldownUntil, !p.cooldownUntil.IsZero() && now.Before(p.cooldownUntil)
}

func (p *provider) coolDown(until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cooldownUntil = until
}

// FallbackBackend asks providers in order until one returns a usable reply.
// A provider that answers 429 is skipped until its Retry-After elapses. For
// JSON requests a reply without a JSON object also moves on to the next
// provider. It implements port.GenerativeBackend.
type FallbackBackend struct {
	providers []*provider
	now       func() time.Time
}

// NewFallbackBackend creates a FallbackBackend from an ordered list of backends and their names.
func NewFallbackBackend(backends []port.GenerativeBackend, names []string) *FallbackBackend {
	providers := make([]*provider, len(backends))
	for i, b := range backends {
		providers[i] = &provider{name: names[i], backend: b}
	}
	return &FallbackBackend{providers: providers, now: time.Now}
}

// usableReply reports whether out can be handed to the field parser.
func usableReply(input port.GenerateInput, out *port.GenerateOutput) error {
	if out == nil {
		return errors.New("provider returned no reply")
	}
	if input.JSON && !json.Valid([]byte(StripCodeFences(out.Text))) {
		return ErrUnparseableReply
	}
	return nil
}

func (f *FallbackBackend) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	now := f.now()
	var (
		lastErr     error
		lastReply   *port.GenerateOutput
		onlyLimited = true
		nextReset   time.Time
	)
	noteReset := func(t time.Time) {
		if nextReset.IsZero() || t.Before(nextReset) {
			nextReset = t
		}
	}

	for _, p := range f.providers {
		if until, cooling := p.coolingDown(now); cooling {
			log.Printf("extractor.FallbackBackend.Generate: skipping %s until %s", p.name, until.Format(time.RFC3339))
			noteReset(until)
			continue
		}

		out, err := p.backend.Generate(ctx, input)
		if err == nil {
			err = usableReply(input, out)
			if err == nil {
				return out, nil
			}
			if errors.Is(err, ErrUnparseableReply) {
				lastReply = out
			}
		}

		log.Printf("extractor.FallbackBackend.Generate: %s failed: %v", p.name, err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			until := now.Add(rlErr.RetryAfter)
			p.coolDown(until)
			noteReset(until)
			continue
		}
		onlyLimited = false
	}

	// Every provider was reachable but none produced JSON: hand back the last
	// reply so the parser can record why it is unusable.
	if lastReply != nil {
		return lastReply, nil
	}

	if lastErr == nil || onlyLimited {
		retryAfter := nextReset.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all providers rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}
