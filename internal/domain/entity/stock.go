package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa el stock vivo de un producto (libro mayor de existencias).
// Version se incrementa en cada escritura y permite compare-and-update.
type Stock struct {
	ProductID string
	Quantity  decimal.Decimal
	Version   int64
	UpdatedAt time.Time
}
