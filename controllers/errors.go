package controllers

import (
	"errors"
	"net/http"

	"github.com/yeremiapane/floorsync/floor"
)

var ErrNoPermission = errors.New("you don't have permission to access this resource")

// StatusForError maps a floor engine error to an HTTP status.
func StatusForError(err error) int {
	switch {
	case floor.IsValidation(err):
		return http.StatusBadRequest
	case floor.IsNotFound(err):
		return http.StatusNotFound
	case floor.IsConflict(err):
		return http.StatusConflict
	case floor.IsPersistence(err):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// statusForBatch picks the status for a failed single-operation batch.
func statusForBatch(errs []error) int {
	if len(errs) == 0 {
		return http.StatusInternalServerError
	}
	return StatusForError(errs[0])
}
