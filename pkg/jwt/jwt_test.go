package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/umonge0811/TucoAPP-sub003/pkg/jwt"
)

func newSigner(t *testing.T, secret, issuer string) *pkgjwt.Signer {
	t.Helper()
	s, err := pkgjwt.NewSigner(secret, issuer, time.Hour)
	require.NoError(t, err)
	return s
}

func TestSigner_EmiteYVerifica(t *testing.T) {
	s := newSigner(t, "secreto", "conteo")
	tok, err := s.Issue(pkgjwt.Identity{UserID: "u1", CompanyID: "tienda-1", Role: "bodeguero"})
	require.NoError(t, err)

	id, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, pkgjwt.Identity{UserID: "u1", CompanyID: "tienda-1", Role: "bodeguero"}, id)
}

func TestSigner_TokenExpirado(t *testing.T) {
	issuedAt := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	s := newSigner(t, "secreto", "").WithClock(func() time.Time { return issuedAt })
	tok, err := s.Issue(pkgjwt.Identity{UserID: "u1", Role: "admin"})
	require.NoError(t, err)

	s.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, pkgjwt.ErrExpiredToken)
}

func TestSigner_SecretoOEmisorDistinto(t *testing.T) {
	tok, err := newSigner(t, "secreto", "conteo").Issue(pkgjwt.Identity{UserID: "u1", Role: "admin"})
	require.NoError(t, err)

	_, err = newSigner(t, "otro", "conteo").Verify(tok)
	assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)

	_, err = newSigner(t, "secreto", "otro-emisor").Verify(tok)
	assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)
}

func TestSigner_Validaciones(t *testing.T) {
	_, err := pkgjwt.NewSigner("", "x", time.Hour)
	assert.Error(t, err)

	_, err = newSigner(t, "secreto", "").Issue(pkgjwt.Identity{Role: "admin"})
	assert.Error(t, err)

	_, err = newSigner(t, "secreto", "").Verify("no.es.jwt")
	assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)
}
