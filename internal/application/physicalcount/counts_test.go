package physicalcount_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

func TestCaptureCount_CantidadInvalida(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 10}, counterA)
	for _, qty := range []decimal.Decimal{dec(-1), decimal.RequireFromString("2.5")} {
		_, err := f.svc.CaptureCount(f.ctx, physicalcount.CountInput{SessionID: id, ProductID: productX, UserID: counterA, Quantity: qty})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "cantidad %s", qty)
	}
	assert.False(t, f.line(id, productX).IsCounted(), "la validación no deja efectos")
}

func TestCaptureCount_Rechazos(t *testing.T) {
	f := newFixture(t)
	programada := f.scheduled(map[string]int64{productX: 10}, counterA)
	_, err := f.svc.CaptureCount(f.ctx, physicalcount.CountInput{SessionID: programada, ProductID: productX, UserID: counterA, Quantity: dec(1)})
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)

	id := f.started(map[string]int64{productX: 10}, counterA)
	_, err = f.svc.CaptureCount(f.ctx, physicalcount.CountInput{SessionID: id, ProductID: productX, UserID: counterB, Quantity: dec(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CaptureCount(f.ctx, physicalcount.CountInput{SessionID: id, ProductID: "no-esta", UserID: counterA, Quantity: dec(1)})
	assert.ErrorIs(t, err, domain.ErrLineNotFound)
}

func TestCaptureCount_SinDiferenciaNoCreaAjuste(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 10}, counterA)
	res := f.count(id, counterA, productX, 10)
	assert.Nil(t, res.Adjustment)
	assert.True(t, res.Line.Discrepancy().IsZero())
}

func TestCaptureCount_ConteoCeroEsValido(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 4}, counterA)
	res := f.count(id, counterA, productX, 0)
	require.NotNil(t, res.Adjustment)
	assert.Equal(t, entity.AdjustmentTypeSalida, res.Adjustment.Type)
	assert.True(t, res.Adjustment.Quantity.Equal(dec(4)))
}

func TestCaptureCount_RecuentoMismoUsuarioSinAlerta(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 10}, counterA)
	f.count(id, counterA, productX, 8)
	res := f.count(id, counterA, productX, 9)
	assert.Empty(t, res.Alerts)
	assert.Empty(t, f.alerts(id))
	assert.True(t, f.active(id, productX).Quantity.Equal(dec(1)))
}

func TestCaptureCount_MismoValorDeOtroUsuarioSinAlerta(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 10}, counterA, counterB)
	f.count(id, counterA, productX, 8)
	res := f.count(id, counterB, productX, 8)
	assert.Empty(t, res.Alerts)
}

// Un recuento que elimina la discrepancia retira el ajuste activo.
func TestCaptureCount_RecuentoRetiraAjuste(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 50}, counterA)
	first := f.count(id, counterA, productX, 45)
	require.NotNil(t, first.Adjustment)

	res := f.count(id, counterA, productX, 50)
	assert.Nil(t, res.Adjustment)
	assert.Nil(t, f.active(id, productX))

	list, err := f.svc.ListPendingAdjustments(f.ctx, id, productX)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.AdjustmentStatusRechazado, list[0].Status)
}

// El recuento reinicia la deriva: la venta ya la ve el contador y pasa a lo esperado.
func TestCaptureCount_RecuentoReiniciaDeriva(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 50}, counterA)
	f.count(id, counterA, productX, 45)
	f.movement("venta-1", productX, entity.MovementCauseSale, -2)
	assert.True(t, f.line(id, productX).Drift.Equal(dec(-2)))

	res := f.count(id, counterA, productX, 43)
	assert.True(t, res.Line.Drift.IsZero())
	assert.True(t, res.Line.ExpectedAtCount.Equal(dec(48)))
	require.NotNil(t, res.Adjustment)
	assert.True(t, res.Adjustment.Quantity.Equal(dec(5)), "esperado salida/5, obtenido %s", res.Adjustment.Quantity)

	f.approveAll(id)
	f.readAll(id, counterA)
	_, err := f.svc.CompleteSession(f.ctx, id, adminID)
	require.NoError(t, err)
	assert.True(t, f.stock(productX).Equal(dec(43)), "el libro coincide con el estante recontado")
}
