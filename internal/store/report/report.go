// Package report implements the consolidated high-infectivity patient
// report described in SPEC_FULL.md §4.6, grounded on original_source's
// CSVHighInfectivityPatientReportRepository. A patient qualifies once a
// single diagnosis detects at least highInfectivityThreshold diseases at
// InfectiousnessLevel Alta.
package report

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bioguard/internal/errs"
	"bioguard/internal/model"
)

const (
	fileName                 = "high_infectivity_patients_report.csv"
	highInfectivityThreshold = 3
	reportHeader             = "documento,total_virus_detectados,cantiad_virus_altamente_infecciosos,lista_virus_contagio_normal_o_medio,lista_virus_altmanete_infecciosos"
)

// Store is the append-only CSV-backed high-infectivity report.
type Store struct {
	mu       sync.Mutex
	filePath string
	logger   *zap.Logger
}

// New creates a report store inside directory, initializing the report
// file with its header if absent or empty.
func New(directory string, logger *zap.Logger) (*Store, error) {
	s := &Store{filePath: filepath.Join(directory, fileName), logger: logger}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save evaluates diagnostic against the high-infectivity criterion and
// appends a row when it qualifies. An empty message with a nil error
// means the diagnosis did not qualify.
func (s *Store) Save(d *model.Diagnostic) (string, error) {
	if d.Patient.Document == "" {
		return "", errs.New(errs.Validation, "Diagnostic patient.document no puede ser vacio")
	}

	var highNames, normalNames []string
	for _, disease := range d.Matches {
		if disease.Name == "" {
			continue
		}
		name := strings.TrimSpace(disease.Name)
		if disease.Infectiousness == model.Alta {
			highNames = append(highNames, name)
		} else {
			normalNames = append(normalNames, name)
		}
	}
	if len(highNames) < highInfectivityThreshold {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("patient meets high-infectivity report criterion",
		zap.String("document", d.Patient.Document),
		zap.Int("altaCount", len(highNames)),
		zap.Int("totalDetected", len(highNames)+len(normalNames)))

	if err := s.ensureFile(); err != nil {
		return "", err
	}

	row := buildCSVRow(strings.TrimSpace(d.Patient.Document), len(highNames)+len(normalNames), len(highNames), normalNames, highNames)
	file, openErr := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if openErr != nil {
		return "", errs.Wrap(errs.Persistence, "error al guardar reporte de alta infecciosidad", openErr)
	}
	defer file.Close()
	if _, writeErr := file.WriteString(row + "\n"); writeErr != nil {
		return "", errs.Wrap(errs.Persistence, "error al guardar reporte de alta infecciosidad", writeErr)
	}

	return "criterio_alta_infecciosidad: cumple (>= " + strconv.Itoa(highInfectivityThreshold) + ")", nil
}

func (s *Store) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return errs.Wrap(errs.Persistence, "no se pudo preparar el directorio de reportes", err)
	}
	info, statErr := os.Stat(s.filePath)
	if statErr != nil || info.Size() == 0 {
		if err := os.WriteFile(s.filePath, []byte(reportHeader+"\n"), 0o644); err != nil {
			return errs.Wrap(errs.Persistence, "error al inicializar archivo de reporte", err)
		}
	}
	return nil
}

func buildCSVRow(document string, total, highCount int, normalNames, highNames []string) string {
	fields := []string{
		document,
		strconv.Itoa(total),
		strconv.Itoa(highCount),
		strings.Join(normalNames, "|"),
		strings.Join(highNames, "|"),
	}
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = escapeCSV(f)
	}
	return strings.Join(escaped, ",")
}

func escapeCSV(value string) string {
	needsQuote := strings.ContainsAny(value, ",\"\n\r")
	escaped := strings.ReplaceAll(value, `"`, `""`)
	if needsQuote {
		return `"` + escaped + `"`
	}
	return escaped
}
