package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fieldErr struct{ field string }

func (e fieldErr) Error() string     { return e.field + ": " + ErrValidation.Error() }
func (e fieldErr) FieldName() string { return e.field }
func (e fieldErr) Unwrap() error     { return ErrValidation }

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail bool
	}{
		{fmt.Errorf("tax_year: %w", ErrValidation), http.StatusBadRequest, true},
		{fmt.Errorf("pit brackets empty: %w", ErrConfiguration), http.StatusInternalServerError, true},
		{ErrNotFound, http.StatusNotFound, true},
		{ErrDuplicate, http.StatusConflict, true},
		{ErrUnauthorized, http.StatusUnauthorized, true},
		{ErrForbidden, http.StatusForbidden, true},
		{errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code)
		require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, tc.status, body.Status)
		require.Equal(t, "about:blank", body.Type)
		if tc.detail {
			require.Equal(t, tc.err.Error(), body.Detail)
		} else {
			require.Empty(t, body.Detail)
		}
	}
}

func TestRespondErrorNamesField(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("preview: %w", fieldErr{field: "subtotal"}))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "subtotal", body.Field)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Amount string `json:"amount"`
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"1","amonut":"2"}`))
	err := DecodeJSON(rr, req, &target)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "amonut")
}
