// Package history implements the per-patient mutation-history CSV
// described in SPEC_FULL.md §4.4.3, grounded on original_source's
// CSVPatientDiagnosticHistoryRepository. Every time a patient submits a
// new sample, this store diffs it against every other sample already on
// file for that patient (from the diagnosis store's samples/ directory)
// and records one or two change-segment rows per prior sample.
package history

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"bioguard/internal/errs"
	"bioguard/internal/fasta"
	"bioguard/internal/integrity"
	"bioguard/internal/model"
	"bioguard/internal/store/diagnosis"
)

const (
	samplesDirName = "samples"
	historyDirName = "history"
	fastaExtension = ".fasta"
	csvExtension   = ".csv"
	historyHeader  = "fecha_muestra,posicion_inicio_cambio,posicion_inicio_fin_cambio,tipo_cambio"

	// maxSortKey sorts rows with an unparsable or blank previous sample
	// date last, mirroring LocalDate.MAX in the original implementation.
	maxSortKey = "9999-99-99"
)

// Store is the file-backed per-patient mutation-history repository.
type Store struct {
	mu     sync.Mutex
	root   string
	logger *zap.Logger
}

// New creates a history store sharing root with a diagnosis.Store, since
// history rows are derived from that store's recorded samples.
func New(root string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.Wrap(errs.Persistence, "no fue posible preparar el directorio de historial", err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Save compares d's sample against every other sample on file for this
// patient and writes one history CSV. An empty message with a nil error
// means there was no prior sample to compare against.
func (s *Store) Save(d *model.Diagnostic) (string, error) {
	if d.Patient.UUID == "" || d.UUID == "" || d.SampleDate == "" || d.SampleSequence == "" {
		return "", errs.New(errs.Validation, "Diagnostic invalido para historial de muestras")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	patientDir := filepath.Join(s.root, d.Patient.UUID)
	samplesDir := filepath.Join(patientDir, samplesDirName)
	historyDir := filepath.Join(patientDir, historyDirName)
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return "", errs.Wrap(errs.Persistence, "error al preparar directorio de historial", err)
	}

	currentSequence := strings.ToUpper(d.SampleSequence)
	currentHash := integrity.Hash(diagnosis.SampleContent(d.Patient.Document, d.SampleDate, d.SampleSequence))

	sampleFiles, err := listSampleFiles(samplesDir)
	if err != nil {
		return "", err
	}

	var rows []model.HistoryRow
	previousSamplesCount := 0
	for _, path := range sampleFiles {
		if isCurrentSample(path, currentHash) {
			continue
		}

		content, verifyErr := integrity.VerifyFile(path, fastaExtension)
		if verifyErr != nil {
			s.logger.Info("corrupted sample file skipped during history comparison", zap.String("path", path), zap.Error(verifyErr))
			continue
		}
		previousSamplesCount++

		previousDate, previousSequence := parseSample(content)
		for _, segment := range calculateChangeSegments(currentSequence, previousSequence) {
			rows = append(rows, model.HistoryRow{
				PreviousSampleDate: previousDate,
				StartIndex:         segment.start,
				EndIndex:           segment.end,
				Kind:               segment.kind,
			})
		}
	}

	sortRowsByDate(rows)

	lines := []string{historyHeader}
	for _, r := range rows {
		lines = append(lines, strings.Join([]string{
			r.PreviousSampleDate, strconv.Itoa(r.StartIndex), strconv.Itoa(r.EndIndex), string(r.Kind),
		}, ","))
	}
	historyFileName := d.SampleDate + "_" + d.UUID + csvExtension
	if err := os.WriteFile(filepath.Join(historyDir, historyFileName), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return "", errs.Wrap(errs.Persistence, "error al guardar historial de diagnostico del paciente", err)
	}

	if previousSamplesCount > 0 {
		return "historial_muestras: actualizado", nil
	}
	return "", nil
}

func listSampleFiles(samplesDir string) ([]string, error) {
	entries, err := os.ReadDir(samplesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.Persistence, "error al listar muestras del paciente", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), fastaExtension) {
			continue
		}
		paths = append(paths, filepath.Join(samplesDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isCurrentSample(path, currentHash string) bool {
	name := filepath.Base(path)
	if !strings.HasSuffix(strings.ToLower(name), fastaExtension) {
		return false
	}
	return strings.TrimSuffix(name, fastaExtension) == currentHash
}

// parseSample extracts the sample date and sequence from a sample
// file's content. Samples written by diagnosis.Store follow the
// ">document|date\nsequence" canonical form.
func parseSample(content string) (date, sequence string) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, ">") {
		return "", strings.ToUpper(content)
	}
	lines := fasta.Lines(content)
	if len(lines) == 0 {
		return "", ""
	}
	fields, err := fasta.ParseHeader(lines[0], 2)
	if err != nil || len(fields) < 2 {
		return "", ""
	}
	seq := ""
	if len(lines) > 1 {
		seq = lines[1]
	}
	return fields[1], strings.ToUpper(seq)
}

type changeSegment struct {
	start int
	end   int
	kind  model.ChangeKind
}

// calculateChangeSegments mirrors
// CSVPatientDiagnosticHistoryRepository.calculateChangeRows: it reports
// which part of whichever sequence is the superstring was added or
// removed relative to the other, or SinCoincidencia when neither
// contains the other.
func calculateChangeSegments(currentSequence, previousSequence string) []changeSegment {
	if currentSequence == "" || previousSequence == "" {
		return []changeSegment{{-1, -1, model.SinCoincidencia}}
	}

	if start := strings.Index(previousSequence, currentSequence); start >= 0 {
		end := start + len(currentSequence) - 1
		var segments []changeSegment
		addSegment(&segments, 0, start-1, model.ReduccionIzquierda)
		addSegment(&segments, end+1, len(previousSequence)-1, model.ReduccionDerecha)
		if len(segments) == 0 {
			segments = append(segments, changeSegment{-1, -1, model.SinCambios})
		}
		return segments
	}

	if start := strings.Index(currentSequence, previousSequence); start >= 0 {
		end := start + len(previousSequence) - 1
		var segments []changeSegment
		addSegment(&segments, 0, start-1, model.AgregadoIzquierda)
		addSegment(&segments, end+1, len(currentSequence)-1, model.AgregadoDerecha)
		if len(segments) == 0 {
			segments = append(segments, changeSegment{-1, -1, model.SinCambios})
		}
		return segments
	}

	return []changeSegment{{-1, -1, model.SinCoincidencia}}
}

func addSegment(segments *[]changeSegment, start, end int, kind model.ChangeKind) {
	if start > end {
		return
	}
	*segments = append(*segments, changeSegment{start, end, kind})
}

// sortRowsByDate orders rows by ISO date ascending, with blank or
// unparsable dates sorted last (LocalDate.MAX equivalent).
func sortRowsByDate(rows []model.HistoryRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return sortKey(rows[i].PreviousSampleDate) < sortKey(rows[j].PreviousSampleDate)
	})
}

func sortKey(date string) string {
	if !isISODate(date) {
		return maxSortKey
	}
	return date
}

func isISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
