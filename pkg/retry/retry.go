// Package retry reintentos acotados con backoff exponencial.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy número máximo de intentos y límites del backoff.
type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Backoff espera antes del intento attempt+1: base * 2^(attempt-1), con tope MaxBackoff.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return p.BaseBackoff
	}
	delay := time.Duration(float64(p.BaseBackoff) * math.Pow(2, float64(attempt-1)))
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}

// Do ejecuta fn hasta que devuelva nil, un error no reintentable o se agoten los intentos.
// El último error se devuelve envuelto para que errors.Is siga funcionando.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if retryable == nil || !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			if cause := context.Cause(ctx); cause != nil {
				return cause
			}
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("reintentos agotados (%d): %w", attempts, err)
}
