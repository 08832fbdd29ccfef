package diagnosis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bioguard/internal/errs"
	"bioguard/internal/model"
)

func setupStore(t *testing.T) (string, *Store) {
	dir := filepath.Join(t.TempDir(), "diagnostics")
	s, err := New(dir, zap.NewNop())
	require.NoError(t, err)
	return dir, s
}

func sampleDiagnostic() *model.Diagnostic {
	return &model.Diagnostic{
		SampleDate:     "2025-02-19",
		SampleSequence: "GAGTATGTGAA",
		Patient: model.Patient{
			UUID:     "patient-uuid-1",
			Document: "12345678",
		},
		Matches: []model.Disease{
			{UUID: "disease-uuid-1", Name: "ebola", GeneticSequence: "XXXGAGTATGTGAAYYY"},
		},
	}
}

func TestSave_WritesSampleAndGeneratedCSV(t *testing.T) {
	dir, s := setupStore(t)
	d := sampleDiagnostic()

	msg, err := s.Save(d)
	require.NoError(t, err)
	assert.Equal(t, "enfermedades_detectadas: 1", msg)
	assert.NotEmpty(t, d.UUID)

	samples, err := os.ReadDir(filepath.Join(dir, "patient-uuid-1", samplesDirName))
	require.NoError(t, err)
	require.Len(t, samples, 1)

	generated, err := os.ReadDir(filepath.Join(dir, "patient-uuid-1", generatedDirName))
	require.NoError(t, err)
	require.Len(t, generated, 1)

	data, err := os.ReadFile(filepath.Join(dir, "patient-uuid-1", generatedDirName, generated[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "disease-uuid-1,ebola,3,13")
}

func TestSave_DuplicateSampleIsConflict(t *testing.T) {
	_, s := setupStore(t)
	d1 := sampleDiagnostic()
	require.NoError(t, requireSave(s, d1))

	d2 := sampleDiagnostic()
	_, err := s.Save(d2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Conflict))
}

func TestExistsSample_TrueAfterSave(t *testing.T) {
	_, s := setupStore(t)
	d := sampleDiagnostic()
	require.NoError(t, requireSave(s, d))

	exists, err := s.ExistsSample(d.Patient.UUID, d.Patient.Document, d.SampleDate, d.SampleSequence)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ExistsSample(d.Patient.UUID, d.Patient.Document, "2025-03-01", d.SampleSequence)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSave_RejectsEmptyMatches(t *testing.T) {
	_, s := setupStore(t)
	d := sampleDiagnostic()
	d.Matches = nil
	_, err := s.Save(d)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Validation))
}

func requireSave(s *Store, d *model.Diagnostic) error {
	_, err := s.Save(d)
	return err
}
