package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/stretchr/testify/assert"
)

func TestGetCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{types.NewValidationError(map[string]string{"a": "b"}), http.StatusUnprocessableEntity},
		{types.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", types.ErrRideNotFound), http.StatusNotFound},
		{types.ErrRideStateChanged, http.StatusConflict},
		{types.InvalidTransition(types.RideProposed, types.RideFinished), http.StatusConflict},
		{types.ErrPayoutAlreadyPaid, http.StatusConflict},
		{types.ErrForbidden, http.StatusForbidden},
		{types.ErrInvalidToken, http.StatusUnauthorized},
		{types.ErrMaintenance, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, GetCode(c.err), c.err.Error())
	}
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		Amount float64 `json:"amount"`
	}

	read := func(body string) error {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return readJSON(httptest.NewRecorder(), r, &dst)
	}

	assert.NoError(t, read(`{"amount": 10}`))
	assert.Equal(t, 10.0, dst.Amount)
	assert.ErrorContains(t, read(``), "must not be empty")
	assert.ErrorContains(t, read(`{"amount": "ten"}`), `incorrect JSON type for field "amount"`)
	assert.ErrorContains(t, read(`{"amount": 1, "extra": 2}`), "unknown key")
	assert.ErrorContains(t, read(`{"amount": 1}{}`), "single JSON value")
}

func TestServiceErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	serviceError(t.Context(), rec, discard(), "failed", errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	rec = httptest.NewRecorder()
	serviceError(t.Context(), rec, discard(), "failed", types.NewValidationError(map[string]string{"amount": "must be positive"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount": "must be positive"`)
}
