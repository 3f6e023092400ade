package physicalcount

import (
	"time"

	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

// Config parámetros de reintento del motor de conteo.
type Config struct {
	// ApplyMaxAttempts intentos de la transacción de aplicación ante conflicto del libro de existencias.
	ApplyMaxAttempts int
	ApplyBaseBackoff time.Duration
	ApplyMaxBackoff  time.Duration
	// ReconcileMaxAttempts intentos de conciliación de una línea ante errores transitorios de almacenamiento.
	ReconcileMaxAttempts int
	ReconcileBackoff     time.Duration
}

// DefaultConfig valores por defecto.
func DefaultConfig() Config {
	return Config{
		ApplyMaxAttempts:     5,
		ApplyBaseBackoff:     50 * time.Millisecond,
		ApplyMaxBackoff:      2 * time.Second,
		ReconcileMaxAttempts: 3,
		ReconcileBackoff:     100 * time.Millisecond,
	}
}

func (c Config) applyPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.ApplyMaxAttempts, BaseBackoff: c.ApplyBaseBackoff, MaxBackoff: c.ApplyMaxBackoff}
}

func (c Config) reconcilePolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.ReconcileMaxAttempts, BaseBackoff: c.ReconcileBackoff, MaxBackoff: 4 * c.ReconcileBackoff}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.ApplyMaxAttempts <= 0 {
		c.ApplyMaxAttempts = def.ApplyMaxAttempts
	}
	if c.ApplyBaseBackoff <= 0 {
		c.ApplyBaseBackoff = def.ApplyBaseBackoff
	}
	if c.ApplyMaxBackoff <= 0 {
		c.ApplyMaxBackoff = def.ApplyMaxBackoff
	}
	if c.ReconcileMaxAttempts <= 0 {
		c.ReconcileMaxAttempts = def.ReconcileMaxAttempts
	}
	if c.ReconcileBackoff <= 0 {
		c.ReconcileBackoff = def.ReconcileBackoff
	}
	return c
}
