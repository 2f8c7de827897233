package driver

import (
	"context"
	"sync"
	"time"
)

// Pacer implements a token bucket with a minimum spacing between requests.
// Only network fetches pass through it; skipped items are never delayed.
type Pacer struct {
	mu sync.Mutex

	tokens         float64
	maxTokens      float64
	refillRate     float64 // tokens per second
	lastRefillTime time.Time
	minInterval    time.Duration
	lastRequest    time.Time
}

// PacerConfig holds configuration for the pacer
type PacerConfig struct {
	MaxTokens   float64       // burst capacity
	RefillRate  float64       // tokens per second
	MinInterval time.Duration // minimum time between requests
}

// DefaultPacerConfig spaces requests by delay with no bursting.
func DefaultPacerConfig(delay time.Duration) PacerConfig {
	rate := 1000.0
	if delay > 0 {
		rate = float64(time.Second) / float64(delay)
	}
	return PacerConfig{MaxTokens: 1, RefillRate: rate, MinInterval: delay}
}

// NewPacer creates a pacer with a full bucket.
func NewPacer(config PacerConfig) *Pacer {
	if config.MaxTokens < 1 {
		config.MaxTokens = 1
	}
	if config.RefillRate <= 0 {
		config.RefillRate = 1
	}
	return &Pacer{
		tokens:         config.MaxTokens,
		maxTokens:      config.MaxTokens,
		refillRate:     config.RefillRate,
		lastRefillTime: time.Now(),
		minInterval:    config.MinInterval,
	}
}

// Wait blocks until a request may be sent. It returns ctx.Err() when the
// context ends first.
func (p *Pacer) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		p.refill()

		if p.tokens >= 1 {
			p.tokens--
			var delay time.Duration
			if !p.lastRequest.IsZero() {
				delay = time.Until(p.lastRequest.Add(p.minInterval))
			}
			p.lastRequest = time.Now().Add(max(delay, 0))
			p.mu.Unlock()

			if delay <= 0 {
				return ctx.Err()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				return nil
			}
		}

		waitTime := time.Duration(float64(time.Second) / p.refillRate)
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// refill adds tokens for elapsed time; the lock must be held.
func (p *Pacer) refill() {
	now := time.Now()
	p.tokens += now.Sub(p.lastRefillTime).Seconds() * p.refillRate
	if p.tokens > p.maxTokens {
		p.tokens = p.maxTokens
	}
	p.lastRefillTime = now
}
