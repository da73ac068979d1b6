package validation

import (
	"errors"
	"testing"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPartitaIVA(t *testing.T) {
	assert.True(t, IsPartitaIVA("01234567897"))
	assert.True(t, IsPartitaIVA("12345678903"))
	assert.False(t, IsPartitaIVA("12345678901"), "wrong check digit")
	assert.False(t, IsPartitaIVA("1234567890"), "too short")
	assert.False(t, IsPartitaIVA("1234567890A"))
}

func TestIsCodiceFiscale(t *testing.T) {
	assert.True(t, IsCodiceFiscale("RSSMRA85T10A562S"))
	assert.True(t, IsCodiceFiscale("rssmra85t10a562s"))
	assert.True(t, IsCodiceFiscale("12345678903"))
	assert.False(t, IsCodiceFiscale("RSSMRA85T10A562"))
}

type sample struct {
	Name  string  `json:"name" binding:"required"`
	VAT   *string `json:"vatNumber" binding:"omitempty,partitaiva"`
	Email string  `json:"email" binding:"omitempty,email"`
}

func TestStruct(t *testing.T) {
	bad := "123"
	err := Struct(sample{VAT: &bad, Email: "nope"})
	require.Error(t, err)

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{
		"name is required",
		"vatNumber must be a valid partita IVA",
		"email must be a valid email address",
	}, verr.Messages)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	good := "12345678903"
	assert.NoError(t, Struct(sample{Name: "ACME", VAT: &good}))
}
