package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bioguard/internal/model"
	"bioguard/internal/store/diagnosis"
)

func setupStores(t *testing.T) (string, *diagnosis.Store, *Store) {
	root := filepath.Join(t.TempDir(), "diagnostics")
	ds, err := diagnosis.New(root, zap.NewNop())
	require.NoError(t, err)
	hs, err := New(root, zap.NewNop())
	require.NoError(t, err)
	return root, ds, hs
}

func baseDiagnostic(date, sequence string) *model.Diagnostic {
	return &model.Diagnostic{
		SampleDate:     date,
		SampleSequence: sequence,
		Patient:        model.Patient{UUID: "patient-uuid-1", Document: "12345678"},
		Matches:        []model.Disease{{UUID: "disease-uuid-1", Name: "ebola", GeneticSequence: sequence}},
	}
}

func TestSave_NoPriorSamplesReturnsEmptyMessage(t *testing.T) {
	_, ds, hs := setupStores(t)
	d := baseDiagnostic("2025-01-01", "ACGTACGTACGT")
	_, err := ds.Save(d)
	require.NoError(t, err)

	msg, err := hs.Save(d)
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestSave_ReductionAgainstLongerPriorSample(t *testing.T) {
	root, ds, hs := setupStores(t)
	first := baseDiagnostic("2025-01-01", "XXXACGTACGTACGTYY")
	_, err := ds.Save(first)
	require.NoError(t, err)
	_, err = hs.Save(first)
	require.NoError(t, err)

	second := baseDiagnostic("2025-02-01", "ACGTACGTACGT")
	_, err = ds.Save(second)
	require.NoError(t, err)

	msg, err := hs.Save(second)
	require.NoError(t, err)
	assert.Equal(t, "historial_muestras: actualizado", msg)

	entries, err := os.ReadDir(filepath.Join(root, "patient-uuid-1", historyDirName))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	data, err := os.ReadFile(filepath.Join(root, "patient-uuid-1", historyDirName, "2025-02-01_"+second.UUID+csvExtension))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "2025-01-01,0,2,reduccion_izquierda")
	assert.Contains(t, content, "2025-01-01,15,16,reduccion_derecha")
}

func TestSave_NoOverlapIsSinCoincidencia(t *testing.T) {
	_, ds, hs := setupStores(t)
	first := baseDiagnostic("2025-01-01", "AAAAAAAAAAAA")
	_, err := ds.Save(first)
	require.NoError(t, err)
	_, err = hs.Save(first)
	require.NoError(t, err)

	second := baseDiagnostic("2025-02-01", "TTTTTTTTTTTT")
	_, err = ds.Save(second)
	require.NoError(t, err)

	msg, err := hs.Save(second)
	require.NoError(t, err)
	assert.Equal(t, "historial_muestras: actualizado", msg)
}

func TestCalculateChangeSegments_IdenticalSequenceIsSinCambios(t *testing.T) {
	segments := calculateChangeSegments("ACGT", "ACGT")
	require.Len(t, segments, 1)
	assert.Equal(t, model.SinCambios, segments[0].kind)
	assert.Equal(t, -1, segments[0].start)
	assert.Equal(t, -1, segments[0].end)
}

func TestSortKey_InvalidDateSortsLast(t *testing.T) {
	assert.True(t, sortKey("2025-01-01") < sortKey(""))
	assert.True(t, sortKey("2025-01-01") < sortKey("not-a-date"))
}
