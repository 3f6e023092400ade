package physicalcount

import (
	"context"
	"sync"
)

var _ SessionLocker = (*KeyedLocker)(nil)

type keyedEntry struct {
	slot chan struct{}
	refs int
}

// KeyedLocker candado en proceso por sesión. Sesiones distintas no se bloquean entre sí.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

// NewKeyedLocker construye el candado.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*keyedEntry)}
}

// Lock espera el turno de la sesión o la cancelación de ctx.
func (l *KeyedLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[sessionID]
	if !ok {
		e = &keyedEntry{slot: make(chan struct{}, 1)}
		l.entries[sessionID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		l.drop(sessionID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			l.drop(sessionID, e)
		})
	}, nil
}

func (l *KeyedLocker) drop(sessionID string, e *keyedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 && l.entries[sessionID] == e {
		delete(l.entries, sessionID)
	}
}

// Release descarta la entrada de la sesión si nadie la está usando.
func (l *KeyedLocker) Release(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[sessionID]; ok && e.refs == 0 {
		delete(l.entries, sessionID)
	}
}

// Len número de sesiones con estado de candado vivo.
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
