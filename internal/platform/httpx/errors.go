// Package httpx holds the JSON and problem-details plumbing shared by handlers.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicate     = errors.New("duplicate entry")
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("configuration invalid")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
)

// FieldError is implemented by errors that name the request field at fault.
type FieldError interface {
	error
	FieldName() string
}

type errorClass struct {
	sentinel error
	status   int
	title    string
}

// Earlier entries win when an error matches several sentinels.
var errorClasses = []errorClass{
	{ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{ErrConfiguration, http.StatusInternalServerError, "Configuration Error"},
	{ErrNotFound, http.StatusNotFound, "Not Found"},
	{ErrDuplicate, http.StatusConflict, "Duplicate"},
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{ErrForbidden, http.StatusForbidden, "Forbidden"},
}

// RespondError writes err as a problem document. Unclassified errors become
// an opaque 500 so internal messages never leak.
func RespondError(w http.ResponseWriter, err error) {
	for _, class := range errorClasses {
		if !errors.Is(err, class.sentinel) {
			continue
		}
		p := ProblemDetail{Title: class.title, Status: class.status, Detail: err.Error()}
		var fe FieldError
		if errors.As(err, &fe) {
			p.Field = fe.FieldName()
		}
		WriteProblem(w, p)
		return
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
