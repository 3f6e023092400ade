package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

var errTransitorio = errors.New("transitorio")

func rapida(n int) retry.Policy {
	return retry.Policy{MaxAttempts: n, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestBackoff_ExponencialConTope(t *testing.T) {
	p := retry.Policy{BaseBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 20*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 40*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 50*time.Millisecond, p.Backoff(4), "el backoff no supera MaxBackoff")
}

func TestDo_ReintentaHastaExito(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), rapida(5), func(err error) bool { return errors.Is(err, errTransitorio) },
		func(_ context.Context, attempt int) error {
			calls++
			if attempt < 3 {
				return errTransitorio
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_AgotaIntentosYConservaError(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), rapida(3), func(error) bool { return true },
		func(context.Context, int) error {
			calls++
			return errTransitorio
		})
	require.Error(t, err)
	assert.ErrorIs(t, err, errTransitorio)
	assert.Equal(t, 3, calls, "nunca reintenta más allá del máximo")
}

func TestDo_ErrorNoReintentable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := retry.Do(context.Background(), rapida(5), func(err error) bool { return errors.Is(err, errTransitorio) },
		func(context.Context, int) error {
			calls++
			return fatal
		})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_RespetaCancelacion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{MaxAttempts: 10, BaseBackoff: time.Hour}
	err := retry.Do(ctx, p, func(error) bool { return true }, func(context.Context, int) error {
		cancel()
		return errTransitorio
	})
	assert.ErrorIs(t, err, context.Canceled)
}
