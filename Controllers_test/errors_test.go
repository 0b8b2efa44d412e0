package Controllers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/floorsync/controllers"
	"github.com/yeremiapane/floorsync/floor"
)

func TestStatusForErrorMapsEngineTaxonomy(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest,
		controllers.StatusForError(&floor.ValidationError{Message: "bad payload"}))
	assert.Equal(t, http.StatusNotFound,
		controllers.StatusForError(&floor.NotFoundError{EntityType: "guest", EntityID: "g1"}))
	assert.Equal(t, http.StatusConflict,
		controllers.StatusForError(&floor.ConflictError{Message: "table taken"}))
	assert.Equal(t, http.StatusInternalServerError,
		controllers.StatusForError(&floor.PersistenceError{Err: errors.New("disk full")}))
	assert.Equal(t, http.StatusInternalServerError,
		controllers.StatusForError(errors.New("something else")))
}
