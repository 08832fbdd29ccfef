package fasta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bioguard/internal/errs"
)

func TestLines_DropsEmptyAndTrims(t *testing.T) {
	got := Lines(" >a|b|c \n\n  GATTACA  \n")
	assert.Equal(t, []string{">a|b|c", "GATTACA"}, got)
}

func TestParseHeader_Success(t *testing.T) {
	fields, err := ParseHeader(">12345678|Juan|Perez", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"12345678", "Juan", "Perez"}, fields)
}

func TestParseHeader_MissingPrefix(t *testing.T) {
	_, err := ParseHeader("12345678|Juan", 2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidFormat))
}

func TestParseHeader_TooFewFields(t *testing.T) {
	_, err := ParseHeader(">ebola", 2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidFormat))
}

func TestSequenceOf(t *testing.T) {
	assert.Equal(t, "GATTACA", SequenceOf(">id|name|ALTA\ngattaca"))
	assert.Equal(t, "", SequenceOf(">onlyheader"))
}
