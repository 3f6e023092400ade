// Package distlock serializa sesiones de conteo entre procesos con un candado en Redis.
package distlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
)

var _ physicalcount.SessionLocker = (*SessionLocker)(nil)

// Options parámetros del candado distribuido.
type Options struct {
	Prefix      string        // prefijo de la clave, por defecto "inventario:sesion"
	TTL         time.Duration // vida de la clave en Redis; se renueva mientras el candado está tomado
	WaitTimeout time.Duration // espera máxima para obtenerlo cuando ctx no trae deadline
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = "inventario:sesion"
	}
	if o.TTL <= 0 {
		o.TTL = 30 * time.Second
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 10 * time.Second
	}
	if o.MinBackoff <= 0 {
		o.MinBackoff = 20 * time.Millisecond
	}
	if o.MaxBackoff < o.MinBackoff {
		o.MaxBackoff = 500 * time.Millisecond
	}
	return o
}

// SessionLocker combina un candado local por sesión (evita competir contra el propio proceso)
// con un candado redislock compartido por todas las réplicas.
type SessionLocker struct {
	client *redislock.Client
	local  *physicalcount.KeyedLocker
	opts   Options
	log    zerolog.Logger
}

// New construye el candado sobre un cliente go-redis ya conectado.
func New(rdb redis.UniversalClient, opts Options, log zerolog.Logger) *SessionLocker {
	return &SessionLocker{
		client: redislock.New(rdb),
		local:  physicalcount.NewKeyedLocker(),
		opts:   opts.withDefaults(),
		log:    log.With().Str("component", "session_locker").Logger(),
	}
}

// Key clave de Redis usada para la sesión.
func (l *SessionLocker) Key(sessionID string) string {
	return fmt.Sprintf("%s:%s:lock", l.opts.Prefix, sessionID)
}

// Lock toma el candado local y luego el de Redis. Si Redis no lo concede dentro del
// plazo devuelve domain.ErrConflict.
func (l *SessionLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	obtainCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		obtainCtx, cancel = context.WithTimeout(ctx, l.opts.WaitTimeout)
		defer cancel()
	}

	key := l.Key(sessionID)
	lock, err := l.client.Obtain(obtainCtx, key, l.opts.TTL, &redislock.Options{
		RetryStrategy: redislock.ExponentialBackoff(l.opts.MinBackoff, l.opts.MaxBackoff),
	})
	if err != nil {
		unlockLocal()
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("sesión %s ocupada por otro proceso: %w", sessionID, domain.ErrConflict)
		}
		return nil, fmt.Errorf("obtener candado %s: %w", key, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(lock, key, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() { l.release(lock, key, stop, done, unlockLocal) })
	}, nil
}

func (l *SessionLocker) release(lock *redislock.Lock, key string, stop chan struct{}, done <-chan struct{}, unlockLocal func()) {
	close(stop)
	<-done
	relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := lock.Release(relCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el candado de sesión")
	}
	unlockLocal()
}

// keepAlive renueva el TTL a un tercio de su vida mientras el candado siga tomado.
func (l *SessionLocker) keepAlive(lock *redislock.Lock, key string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.opts.TTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.opts.TTL/3)
			err := lock.Refresh(ctx, l.opts.TTL, nil)
			cancel()
			if err != nil {
				l.log.Error().Err(err).Str("key", key).Msg("no se pudo renovar el candado de sesión")
				return
			}
		}
	}
}

// Release descarta el estado local; la clave de Redis ya se liberó en unlock o expira sola.
func (l *SessionLocker) Release(sessionID string) {
	l.local.Release(sessionID)
}
