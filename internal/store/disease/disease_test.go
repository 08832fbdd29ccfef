package disease

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bioguard/internal/errs"
	"bioguard/internal/integrity"
	"bioguard/internal/model"
)

func setupStore(t *testing.T) (string, *Store) {
	dir := filepath.Join(t.TempDir(), "diseases")
	s, err := New(dir, zap.NewNop())
	require.NoError(t, err)
	return dir, s
}

func TestSave_WritesHashNamedFile(t *testing.T) {
	dir, s := setupStore(t)
	d := model.Disease{
		Name:            "ebola",
		Infectiousness:  model.Alta,
		GeneticSequence: "GAGTATGTGAATAGATATATATTAGTAGTAGTAAAGTT",
	}
	require.NoError(t, s.Save(&d))

	expectedHash := integrity.Hash(">ebola|ALTA\nGAGTATGTGAATAGATATATATTAGTAGTAGTAAAGTT")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, expectedHash+".fasta", entries[0].Name())
}

func TestSave_DuplicateCanonicalContentIsConflict(t *testing.T) {
	_, s := setupStore(t)
	d := model.Disease{Name: "ebola", Infectiousness: model.Alta, GeneticSequence: strings.Repeat("ACGT", 5)}
	require.NoError(t, s.Save(&d))

	d2 := model.Disease{Name: "ebola", Infectiousness: model.Alta, GeneticSequence: strings.Repeat("ACGT", 5)}
	err := s.Save(&d2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Conflict))
}

func TestSave_SameNameDifferentSequenceIsNotConflict(t *testing.T) {
	_, s := setupStore(t)
	d1 := model.Disease{Name: "ebola", Infectiousness: model.Alta, GeneticSequence: strings.Repeat("ACGT", 5)}
	require.NoError(t, s.Save(&d1))

	d2 := model.Disease{Name: "ebola", Infectiousness: model.Media, GeneticSequence: strings.Repeat("TTAA", 5)}
	assert.NoError(t, s.Save(&d2))
}

func TestFindAll_SkipsCorruptedFiles(t *testing.T) {
	dir, s := setupStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deadbeef.fasta"), []byte(">bad|file|ALTA\nACGT"), 0o644))

	d := model.Disease{Name: "ebola", Infectiousness: model.Alta, GeneticSequence: strings.Repeat("ACGT", 5)}
	require.NoError(t, s.Save(&d))

	diseases, err := s.FindAll()
	require.NoError(t, err)
	require.Len(t, diseases, 1)
	assert.Equal(t, "ebola", diseases[0].Name)
}

func TestSave_RejectsSequenceTooShort(t *testing.T) {
	_, s := setupStore(t)
	d := model.Disease{Name: "ebola", Infectiousness: model.Alta, GeneticSequence: strings.Repeat("A", 14)}
	err := s.Save(&d)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Validation))
}
