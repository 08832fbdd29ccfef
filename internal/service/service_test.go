package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bioguard/internal/errs"
	"bioguard/internal/model"
	"bioguard/internal/store/diagnosis"
	"bioguard/internal/store/disease"
	"bioguard/internal/store/history"
	"bioguard/internal/store/patient"
	"bioguard/internal/store/report"
)

func setupService(t *testing.T) *Service {
	dir := t.TempDir()
	logger := zap.NewNop()

	patients, err := patient.New(filepath.Join(dir, "patients.csv"), logger)
	require.NoError(t, err)
	diseases, err := disease.New(filepath.Join(dir, "diseases"), logger)
	require.NoError(t, err)
	diagRoot := filepath.Join(dir, "diagnostics")
	diagnoses, err := diagnosis.New(diagRoot, logger)
	require.NoError(t, err)
	reports, err := report.New(filepath.Join(dir, "reports"), logger)
	require.NoError(t, err)
	hist, err := history.New(diagRoot, logger)
	require.NoError(t, err)

	return New(patients, diseases, diagnoses, reports, hist, logger)
}

func registerPatient(t *testing.T, s *Service) model.Patient {
	p := model.Patient{
		Document: "12345678", FirstName: "Juan", LastName: "Perez",
		Age: 30, Email: "juan@mail.com", Gender: "MASCULINO",
		City: "Bogota", Country: "Colombia",
	}
	require.NoError(t, s.RegisterPatient(&p))
	return p
}

func registerDisease(t *testing.T, s *Service, name, sequence string) {
	d := model.Disease{Name: name, Infectiousness: model.Alta, GeneticSequence: sequence}
	require.NoError(t, s.RegisterDisease(&d))
}

func TestDiagnose_HappyPath(t *testing.T) {
	s := setupService(t)
	registerPatient(t, s)
	registerDisease(t, s, "ebola", "CCCGAGTATGTGAATAGATATGGG")

	result, err := s.Diagnose("12345678", "2025-02-19", "gagtatgtgaatagatat")
	require.NoError(t, err)
	require.Len(t, result.Diagnostic.Matches, 1)
	assert.Equal(t, "ebola", result.Diagnostic.Matches[0].Name)
	assert.Contains(t, result.Messages, "enfermedades_detectadas: 1")
}

func TestDiagnose_UnknownPatientIsNotFound(t *testing.T) {
	s := setupService(t)
	registerDisease(t, s, "ebola", "CCCGAGTATGTGAATAGATATGGG")

	_, err := s.Diagnose("99999999", "2025-02-19", "gagtatgtgaatagatat")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestDiagnose_NoMatchingDiseaseIsNotFound(t *testing.T) {
	s := setupService(t)
	registerPatient(t, s)
	registerDisease(t, s, "ebola", "AAAAAAAAAAAAAAAAAAAAA")

	_, err := s.Diagnose("12345678", "2025-02-19", "TTTTTTTTTTTT")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestDiagnose_RepeatSampleIsConflict(t *testing.T) {
	s := setupService(t)
	registerPatient(t, s)
	registerDisease(t, s, "ebola", "CCCGAGTATGTGAATAGATATGGG")

	_, err := s.Diagnose("12345678", "2025-02-19", "gagtatgtgaatagatat")
	require.NoError(t, err)

	_, err = s.Diagnose("12345678", "2025-02-19", "gagtatgtgaatagatat")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Conflict))
}

func TestDiagnose_InvalidRequestIsValidation(t *testing.T) {
	s := setupService(t)
	registerPatient(t, s)

	_, err := s.Diagnose("12345678", "not-a-date", "ACGT")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Validation))
}

func TestRegisterPatient_DuplicateDocumentIsValidation(t *testing.T) {
	s := setupService(t)
	registerPatient(t, s)

	p2 := model.Patient{
		Document: "12345678", FirstName: "Ana", LastName: "Gomez",
		Age: 25, Email: "ana@mail.com", Gender: "FEMENINO",
		City: "Bogota", Country: "Colombia",
	}
	err := s.RegisterPatient(&p2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Validation))
}
