// Package disease implements the FASTA-directory-backed disease store
// described in SPEC_FULL.md §4.6, grounded on original_source's
// FastaDiseaseRepository.
package disease

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bioguard/internal/errs"
	"bioguard/internal/fasta"
	"bioguard/internal/integrity"
	"bioguard/internal/model"
)

const fastaExtension = ".fasta"
const minSequenceLength = 15

var (
	nameRegex     = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚáéíóúÑñÜü0-9]+(?:[ -][A-Za-zÁÉÍÓÚáéíóúÑñÜü0-9]+)*$`)
	sequenceRegex = regexp.MustCompile(`^[ACGT]+$`)
)

// Store is the FASTA-directory-backed disease repository.
type Store struct {
	mu        sync.Mutex
	directory string
	logger    *zap.Logger
}

// New creates a disease store rooted at directory, creating it if
// absent.
func New(directory string, logger *zap.Logger) (*Store, error) {
	s := &Store{directory: directory, logger: logger}
	existed := dirExists(directory)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, errs.Wrap(errs.Persistence, "no fue posible preparar el directorio de enfermedades", err)
	}
	count, err := s.countFiles()
	if err != nil {
		return nil, err
	}
	if existed {
		logger.Info("disease directory found", zap.String("path", directory), zap.Int("count", count))
	} else {
		logger.Info("disease directory created", zap.String("path", directory))
	}
	return s, nil
}

// Save validates and normalizes d, rejects a duplicate canonical
// content with Conflict, and writes the disease file exclusively.
func (s *Store) Save(d *model.Disease) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateForPersistence(d); err != nil {
		return err
	}

	canonical := canonicalSampleContent(*d)
	hash := integrity.Hash(canonical)

	exists, err := s.existsCanonicalHashLocked(hash)
	if err != nil {
		return err
	}
	if exists {
		return errs.New(errs.Conflict, "Ya existe una enfermedad registrada con el mismo contenido FASTA.")
	}

	content := fastaContent(*d)
	targetPath := filepath.Join(s.directory, hash+fastaExtension)
	file, openErr := os.OpenFile(targetPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if openErr != nil {
		if os.IsExist(openErr) {
			return errs.New(errs.Conflict, "Ya existe una enfermedad registrada con el mismo contenido FASTA.")
		}
		return errs.Wrap(errs.Persistence, "error al guardar el archivo FASTA de la enfermedad", openErr)
	}
	defer file.Close()

	if _, writeErr := file.WriteString(content); writeErr != nil {
		return errs.Wrap(errs.Persistence, "error al guardar el archivo FASTA de la enfermedad", writeErr)
	}
	return nil
}

// FindAll enumerates every valid disease file, skipping (and logging)
// files that fail integrity or parsing.
func (s *Store) FindAll() ([]model.Disease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findAllLocked()
}

func (s *Store) findAllLocked() ([]model.Disease, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.Persistence, "error al listar enfermedades FASTA", err)
	}

	var diseases []model.Disease
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), fastaExtension) {
			continue
		}
		path := filepath.Join(s.directory, entry.Name())
		d, err := mapFileToDisease(path)
		if err != nil {
			s.logger.Info("corrupted disease file skipped", zap.String("path", path), zap.Error(err))
			continue
		}
		diseases = append(diseases, d)
	}
	return diseases, nil
}

func (s *Store) countFiles() (int, error) {
	diseases, err := s.findAllLocked()
	if err != nil {
		return 0, err
	}
	return len(diseases), nil
}

func (s *Store) existsCanonicalHashLocked(hash string) (bool, error) {
	diseases, err := s.findAllLocked()
	if err != nil {
		return false, err
	}
	for _, d := range diseases {
		if integrity.Hash(canonicalSampleContent(d)) == hash {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) validateForPersistence(d *model.Disease) error {
	if d.UUID == "" {
		d.UUID = uuid.NewString()
	}
	d.Name = fasta.TrimOrEmpty(d.Name)
	d.GeneticSequence = strings.ToUpper(fasta.TrimOrEmpty(d.GeneticSequence))
	infectiousness := strings.ToUpper(fasta.TrimOrEmpty(string(d.Infectiousness)))

	var invalid []string
	if d.Name == "" || !nameRegex.MatchString(d.Name) {
		invalid = append(invalid, "diseaseName")
	}
	if d.GeneticSequence == "" || !sequenceRegex.MatchString(d.GeneticSequence) {
		invalid = append(invalid, "geneticSequence")
	} else if len(d.GeneticSequence) < minSequenceLength {
		invalid = append(invalid, "geneticSequence (minimo 15 nucleotidos)")
	}
	var level model.InfectiousnessLevel
	if infectiousness == "" {
		invalid = append(invalid, "infectiousness")
	} else if lvl, ok := model.ParseInfectiousnessLevel(infectiousness); ok {
		level = lvl
	} else {
		invalid = append(invalid, "infectiousness")
	}

	if len(invalid) > 0 {
		return errs.New(errs.Validation, "Campos invalidos: "+strings.Join(invalid, ", "))
	}
	d.Infectiousness = level
	return nil
}

// canonicalSampleContent excludes the UUID so identifier assignment
// never invalidates the content-addressed filename.
func canonicalSampleContent(d model.Disease) string {
	return ">" + d.Name + "|" + string(d.Infectiousness) + "\n" + d.GeneticSequence
}

func fastaContent(d model.Disease) string {
	return ">" + d.UUID + "|" + d.Name + "|" + string(d.Infectiousness) + "\n" + d.GeneticSequence
}

func mapFileToDisease(path string) (model.Disease, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Disease{}, err
	}
	lines := fasta.Lines(string(data))
	if len(lines) < 2 {
		return model.Disease{}, errs.New(errs.CorruptedData, "archivo de enfermedad con menos de 2 lineas: "+path)
	}

	fields, err := fasta.ParseHeader(lines[0], 3)
	if err != nil {
		return model.Disease{}, err
	}
	if len(fields) < 3 {
		return model.Disease{}, errs.New(errs.CorruptedData, "encabezado de enfermedad incompleto: "+path)
	}

	d := model.Disease{
		UUID:            fields[0],
		Name:            fields[1],
		Infectiousness:  model.InfectiousnessLevel(fields[2]),
		GeneticSequence: lines[1],
	}

	expectedHash := strings.TrimSuffix(filepath.Base(path), fastaExtension)
	if integrity.Hash(canonicalSampleContent(d)) != expectedHash {
		return model.Disease{}, errs.New(errs.CorruptedData, "archivo FASTA corrupto o modificado: "+path)
	}
	return d, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
