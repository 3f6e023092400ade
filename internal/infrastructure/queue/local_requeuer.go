package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

var _ physicalcount.MovementRequeuer = (*LocalRequeuer)(nil)

// ErrQueueFull la cola local no admite más movimientos.
var ErrQueueFull = errors.New("cola de conciliación llena")

const defaultRedrive = time.Minute

type localItem struct {
	ev     physicalcount.MovementEvent
	reason string
	rounds int
}

// LocalRequeuer cola en proceso para el modo sin Redis. Un solo goroutine reprocesa
// cada movimiento con backoff; si agota la política queda en espera y se reintenta
// cada redrive hasta conciliar. Solo los eventos inválidos se rechazan.
type LocalRequeuer struct {
	items   chan localItem
	policy  retry.Policy
	redrive time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	pending  map[string]struct{}
	parked   []localItem
	rejected []physicalcount.MovementEvent
}

// NewLocalRequeuer crea la cola con capacidad size.
func NewLocalRequeuer(size int, policy retry.Policy, redrive time.Duration, log zerolog.Logger) *LocalRequeuer {
	if size <= 0 {
		size = 256
	}
	if redrive <= 0 {
		redrive = defaultRedrive
	}
	return &LocalRequeuer{
		items:   make(chan localItem, size),
		policy:  policy,
		redrive: redrive,
		log:     log.With().Str("component", "local_requeuer").Logger(),
		pending: make(map[string]struct{}),
	}
}

// EnqueueMovement agrega el movimiento si no estaba ya en cola o en espera.
func (q *LocalRequeuer) EnqueueMovement(_ context.Context, ev physicalcount.MovementEvent, reason string) error {
	q.mu.Lock()
	if _, ok := q.pending[ev.MovementID]; ok {
		q.mu.Unlock()
		return nil
	}
	q.pending[ev.MovementID] = struct{}{}
	q.mu.Unlock()

	select {
	case q.items <- localItem{ev: ev, reason: reason}:
		return nil
	default:
		q.done(ev.MovementID)
		return ErrQueueFull
	}
}

// Run consume la cola hasta que ctx se cancele.
func (q *LocalRequeuer) Run(ctx context.Context, svc Reprocessor) {
	ticker := time.NewTicker(q.redrive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-q.items:
			q.process(ctx, svc, it)
		case <-ticker.C:
			q.redriveParked()
		}
	}
}

func (q *LocalRequeuer) process(ctx context.Context, svc Reprocessor, it localItem) {
	err := retry.Do(ctx, q.policy, func(err error) bool {
		return !errors.Is(err, domain.ErrInvalidInput)
	}, func(ctx context.Context, attempt int) error {
		_, err := svc.ReprocessMovement(ctx, it.ev)
		if err != nil {
			q.log.Warn().Err(err).Int("attempt", attempt).Int("round", it.rounds+1).
				Str("movement_id", it.ev.MovementID).Msg("reproceso de conciliación fallido")
		}
		return err
	})
	switch {
	case err == nil:
		q.done(it.ev.MovementID)
		q.log.Info().Str("movement_id", it.ev.MovementID).Msg("movimiento reconciliado desde la cola local")
	case errors.Is(err, domain.ErrInvalidInput):
		q.log.Error().Err(err).Str("movement_id", it.ev.MovementID).Msg("movimiento inválido rechazado")
		q.mu.Lock()
		q.rejected = append(q.rejected, it.ev)
		delete(q.pending, it.ev.MovementID)
		q.mu.Unlock()
	default:
		it.rounds++
		if it.reason == "" {
			it.reason = err.Error()
		}
		q.log.Warn().Err(err).Str("movement_id", it.ev.MovementID).Int("rounds", it.rounds).
			Dur("redrive", q.redrive).Msg("movimiento en espera de reintento")
		q.mu.Lock()
		q.parked = append(q.parked, it)
		q.mu.Unlock()
	}
}

// redriveParked devuelve a la cola los movimientos en espera mientras haya capacidad.
func (q *LocalRequeuer) redriveParked() {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
loop:
	for _, it := range q.parked {
		select {
		case q.items <- it:
			n++
		default:
			break loop
		}
	}
	if n == 0 {
		return
	}
	q.parked = append(q.parked[:0:0], q.parked[n:]...)
	q.log.Debug().Int("redriven", n).Int("parked", len(q.parked)).Msg("movimientos en espera reencolados")
}

func (q *LocalRequeuer) done(movementID string) {
	q.mu.Lock()
	delete(q.pending, movementID)
	q.mu.Unlock()
}

// Pending movimientos en cola, en proceso o en espera de reintento.
func (q *LocalRequeuer) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Parked movimientos que agotaron una ronda de reintentos y esperan el siguiente redrive.
func (q *LocalRequeuer) Parked() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.parked)
}

// Rejected eventos inválidos que no se volverán a intentar.
func (q *LocalRequeuer) Rejected() []physicalcount.MovementEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]physicalcount.MovementEvent, len(q.rejected))
	copy(out, q.rejected)
	return out
}
