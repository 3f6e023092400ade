package physicalcount_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

func TestScheduleSession_ValidaEntrada(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ScheduleSession(f.ctx, physicalcount.ScheduleInput{
		Title: "  ", ScheduledDate: f.clock.Now(), CreatedBy: adminID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	s, err := f.svc.ScheduleSession(f.ctx, physicalcount.ScheduleInput{
		Title:         "Conteo rotativo",
		ScheduledDate: f.clock.Now(),
		ProductIDs:    []string{productX, productX, " ", productY},
		CreatedBy:     adminID,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusScheduled, s.Status)

	detail, err := f.svc.GetSession(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Lines, 2, "productos duplicados o vacíos se descartan")
}

func TestAssignUser_DuplicadoSinEfectos(t *testing.T) {
	f := newFixture(t)
	id := f.scheduled(map[string]int64{productX: 10}, counterA)

	_, err := f.svc.AssignUser(f.ctx, id, counterA, adminID)
	assert.ErrorIs(t, err, domain.ErrDuplicateAssignment)

	detail, err := f.svc.GetSession(f.ctx, id)
	require.NoError(t, err)
	assert.Len(t, detail.Assignments, 1)
}

func TestAssignUser_SoloConSesionProgramada(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 10}, counterA)
	_, err := f.svc.AssignUser(f.ctx, id, counterB, adminID)
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)

	_, err = f.svc.AssignUser(f.ctx, "no-existe", counterB, adminID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStartSession_RequiereAsignadosYProductos(t *testing.T) {
	f := newFixture(t)
	sinAsignados := f.scheduled(map[string]int64{productX: 10})
	_, err := f.svc.StartSession(f.ctx, sinAsignados, adminID)
	assert.ErrorIs(t, err, domain.ErrNoAssignments)
	assert.Equal(t, entity.SessionStatusScheduled, f.session(sinAsignados).Status)

	vacia := f.scheduled(map[string]int64{}, counterA)
	_, err = f.svc.StartSession(f.ctx, vacia, adminID)
	assert.ErrorIs(t, err, domain.ErrEmptySession)
}

// Una vez EN_PROGRESO, SystemQuantity de cada línea no cambia.
func TestStartSession_SnapshotInmutable(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 50, productY: 8}, counterA)
	assert.True(t, f.line(id, productX).SystemQuantity.Equal(dec(50)))
	assert.True(t, f.line(id, productY).SystemQuantity.Equal(dec(8)))
	started := f.session(id).StartedAt
	require.NotNil(t, started)

	f.movement("compra-1", productX, entity.MovementCausePurchase, 12)
	f.count(id, counterA, productX, 61)
	f.movement("venta-1", productX, entity.MovementCauseSale, -3)

	_, err := f.svc.StartSession(f.ctx, id, adminID)
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)

	line := f.line(id, productX)
	assert.True(t, line.SystemQuantity.Equal(dec(50)), "el snapshot no se reescribe")
	require.NotNil(t, line.SnapshotAt)
	assert.True(t, line.SnapshotAt.Equal(*started))
}

func TestAddProducts_SoloProgramada(t *testing.T) {
	f := newFixture(t)
	id := f.scheduled(map[string]int64{productX: 5}, counterA)
	require.NoError(t, f.svc.AddProducts(f.ctx, id, []string{productY, productX}, adminID))
	detail, err := f.svc.GetSession(f.ctx, id)
	require.NoError(t, err)
	assert.Len(t, detail.Lines, 2)

	_, err = f.svc.StartSession(f.ctx, id, adminID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.AddProducts(f.ctx, id, []string{productZ}, adminID), domain.ErrSessionNotActive)
}

func TestReassignUser_DuranteElConteo(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 10, productY: 4}, counterA)
	f.count(id, counterA, productX, 10)

	require.NoError(t, f.svc.ReassignUser(f.ctx, id, counterA, counterC, adminID))

	_, err := f.svc.CaptureCount(f.ctx, physicalcount.CountInput{SessionID: id, ProductID: productY, UserID: counterA, Quantity: dec(4)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.count(id, counterC, productY, 4)

	assert.Equal(t, counterA, f.line(id, productX).CountingUserID, "el conteo previo conserva su autor")
}

func TestUnassignUser(t *testing.T) {
	f := newFixture(t)
	id := f.scheduled(map[string]int64{productX: 10}, counterA, counterB)
	require.NoError(t, f.svc.UnassignUser(f.ctx, id, counterB, adminID))
	assert.ErrorIs(t, f.svc.UnassignUser(f.ctx, id, counterB, adminID), domain.ErrNotFound)
}

func TestCancelSession_Transiciones(t *testing.T) {
	f := newFixture(t)
	id := f.scheduled(map[string]int64{productX: 10}, counterA)
	res, err := f.svc.CancelSession(f.ctx, id, adminID, "sin personal")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCancelled, res.Session.Status)
	assert.NotNil(t, res.Session.CancelledAt)

	_, err = f.svc.CancelSession(f.ctx, id, adminID, "")
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)
	_, err = f.svc.StartSession(f.ctx, id, adminID)
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)
}

func TestListSessions_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	f.scheduled(map[string]int64{productX: 1}, counterA)
	f.clock.Advance(time.Hour)
	f.started(map[string]int64{productY: 1}, counterA)

	all, err := f.svc.ListSessions(f.ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := f.svc.ListSessions(f.ctx, entity.SessionStatusInProgress, 10, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)

	_, err = f.svc.ListSessions(f.ctx, "ABIERTA", 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListAudit_RegistraCicloDeVida(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 3}, counterA)
	f.count(id, counterA, productX, 3)
	_, err := f.svc.CompleteSession(f.ctx, id, adminID)
	require.NoError(t, err)

	entries, err := f.svc.ListAudit(f.ctx, id)
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		entity.AuditSessionScheduled,
		entity.AuditCounterAssigned,
		entity.AuditSessionStarted,
		entity.AuditCountCaptured,
		entity.AuditSessionCompleted,
	}, actions)
}
