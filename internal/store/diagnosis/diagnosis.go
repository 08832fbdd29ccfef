// Package diagnosis implements the per-patient diagnosis tree described
// in SPEC_FULL.md §4.4, grounded on original_source's
// CSVDiagnosticRepository (data/diagnostic package). Each patient gets a
// samples/ directory (content-addressed FASTA dedup) and a
// generated_diagnostics/ directory (one CSV per diagnosis run).
package diagnosis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bioguard/internal/errs"
	"bioguard/internal/integrity"
	"bioguard/internal/model"
)

const (
	samplesDirName   = "samples"
	generatedDirName = "generated_diagnostics"
	fastaExtension   = ".fasta"
	csvExtension     = ".csv"
	diagnosticHeader = "uuid_diagnostico,fecha,uuid_virus,virus,posicion_inicio,posicion_fin"
)

// Store is the file-backed per-patient diagnosis repository.
type Store struct {
	mu     sync.Mutex
	root   string
	logger *zap.Logger
}

// New creates a diagnosis store rooted at root, creating it if absent.
func New(root string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.Wrap(errs.Persistence, "no fue posible preparar el directorio de diagnosticos", err)
	}
	return &Store{root: root, logger: logger}, nil
}

// SampleContent is the canonical, content-addressed text for a sample,
// per SPEC_FULL.md §4.4.3.a. It excludes the diagnosis UUID so repeat
// submissions of the same sample always hash to the same file.
func SampleContent(patientDocument, sampleDate, sequence string) string {
	return ">" + patientDocument + "|" + sampleDate + "\n" + sequence
}

// ExistsSample reports whether patientUUID already has a recorded sample
// with this exact document/date/sequence, used by the diagnosis pipeline
// to reject a duplicate submission before any matching work happens.
func (s *Store) ExistsSample(patientUUID, patientDocument, sampleDate, sequence string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samplePath := s.samplePath(patientUUID, SampleContent(patientDocument, sampleDate, sequence))
	info, err := os.Stat(samplePath)
	if err != nil {
		return false, nil
	}
	if info.IsDir() {
		return false, nil
	}
	if _, verifyErr := integrity.VerifyFile(samplePath, fastaExtension); verifyErr != nil {
		s.logger.Info("corrupted sample file ignored during duplicate check", zap.String("path", samplePath), zap.Error(verifyErr))
		return false, nil
	}
	return true, nil
}

// Save records a completed diagnosis: it writes the content-addressed
// sample file (rejecting a race-condition duplicate with Conflict) and
// one CSV row per matched disease, with each row's start/end positions
// located within that disease's sequence.
func (s *Store) Save(d *model.Diagnostic) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateForSave(d); err != nil {
		return "", err
	}
	if d.UUID == "" {
		d.UUID = uuid.NewString()
	}

	patientDir := filepath.Join(s.root, d.Patient.UUID)
	samplesDir := filepath.Join(patientDir, samplesDirName)
	generatedDir := filepath.Join(patientDir, generatedDirName)
	if err := os.MkdirAll(samplesDir, 0o755); err != nil {
		return "", errs.Wrap(errs.Persistence, "error al preparar directorio de muestras", err)
	}
	if err := os.MkdirAll(generatedDir, 0o755); err != nil {
		return "", errs.Wrap(errs.Persistence, "error al preparar directorio de diagnosticos generados", err)
	}

	canonical := SampleContent(d.Patient.Document, d.SampleDate, d.SampleSequence)
	samplePath := filepath.Join(samplesDir, integrity.Hash(canonical)+fastaExtension)
	sampleFile, openErr := os.OpenFile(samplePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if openErr != nil {
		if os.IsExist(openErr) {
			return "", errs.New(errs.Conflict, "no se puede generar diagnostico: la muestra ya fue registrada previamente para este paciente.")
		}
		return "", errs.Wrap(errs.Persistence, "error al guardar muestra del diagnostico", openErr)
	}
	_, writeErr := sampleFile.WriteString(canonical)
	sampleFile.Close()
	if writeErr != nil {
		return "", errs.Wrap(errs.Persistence, "error al guardar muestra del diagnostico", writeErr)
	}

	rows := buildCSVRows(d)
	diagnosticFileName := d.SampleDate + "_" + d.UUID + csvExtension
	if err := os.WriteFile(filepath.Join(generatedDir, diagnosticFileName), []byte(strings.Join(rows, "\n")+"\n"), 0o644); err != nil {
		return "", errs.Wrap(errs.Persistence, "error al guardar diagnostico generado", err)
	}

	return fmt.Sprintf("enfermedades_detectadas: %d", len(d.Matches)), nil
}

func (s *Store) samplePath(patientUUID, canonicalContent string) string {
	return filepath.Join(s.root, patientUUID, samplesDirName, integrity.Hash(canonicalContent)+fastaExtension)
}

func buildCSVRows(d *model.Diagnostic) []string {
	rows := []string{diagnosticHeader}
	patientSequence := strings.ToUpper(d.SampleSequence)
	for _, disease := range d.Matches {
		if disease.UUID == "" || disease.Name == "" || disease.GeneticSequence == "" {
			continue
		}
		diseaseSequence := strings.ToUpper(disease.GeneticSequence)
		start := strings.Index(diseaseSequence, patientSequence)
		end := -1
		if start >= 0 {
			end = start + len(patientSequence) - 1
		}
		rows = append(rows, fmt.Sprintf("%s,%s,%s,%s,%d,%d", d.UUID, d.SampleDate, disease.UUID, disease.Name, start, end))
	}
	return rows
}

func validateForSave(d *model.Diagnostic) error {
	var invalid []string
	if d.Patient.UUID == "" {
		invalid = append(invalid, "patient.uuid")
	}
	if d.Patient.Document == "" {
		invalid = append(invalid, "patient.document")
	}
	if d.SampleDate == "" {
		invalid = append(invalid, "sampleDate")
	}
	if d.SampleSequence == "" {
		invalid = append(invalid, "geneticSequence")
	}
	if len(d.Matches) == 0 {
		invalid = append(invalid, "diseases")
	}
	if len(invalid) > 0 {
		return errs.New(errs.Validation, "Campos invalidos: "+strings.Join(invalid, ", "))
	}
	return nil
}
