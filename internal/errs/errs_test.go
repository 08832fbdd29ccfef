package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLine_DetailLeakingKindsAreRedacted(t *testing.T) {
	for _, kind := range []Kind{CorruptedData, Persistence, Unexpected} {
		e := New(kind, "private filesystem detail that must not leak")
		assert.Equal(t, InternalErrorLine(), e.StatusLine())
	}
}

func TestStatusLine_OtherKindsSurfaceMessage(t *testing.T) {
	e := New(NotFound, "patient not found")
	assert.Equal(t, "[TCP][404][NotFound] patient not found", e.StatusLine())

	e = New(Validation, "edad fuera de rango")
	assert.Equal(t, "[TCP][400][ValidationError] edad fuera de rango", e.StatusLine())

	e = New(Conflict, "muestra duplicada")
	assert.Equal(t, "[TCP][409][Conflict] muestra duplicada", e.StatusLine())
}

func TestWrapAndAs(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(Persistence, "no se pudo escribir el archivo", cause)

	var outer error = wrapped
	e, ok := As(outer)
	assert.True(t, ok)
	assert.Equal(t, Persistence, e.Kind)
	assert.ErrorIs(t, outer, cause)
}

func TestIs(t *testing.T) {
	err := New(Conflict, "ya existe")
	assert.True(t, Is(err, Conflict))
	assert.False(t, Is(err, NotFound))
	assert.False(t, Is(errors.New("plain"), Conflict))
}
