// Package patient implements the CSV-backed patient store described in
// SPEC_FULL.md §4.6, grounded on original_source's CSVPatientRepository.
// Structurally adapted from the repository pattern in
// wisefido-alarm/internal/repository (struct{..., logger} + constructor
// + methods that wrap the failure cause), with SQL swapped for file I/O.
package patient

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bioguard/internal/errs"
	"bioguard/internal/model"
)

const fileHeader = "patientUuid,patientDocument,firstName,lastName,age,email,gender,city,country"

const (
	minAge = 1
	maxAge = 120
)

var (
	controlAndCSVSpecialChars = regexp.MustCompile("[\r\n\t\f\x00-\x1F\x7F,\"]")
	multipleSpaces            = regexp.MustCompile(`\s{2,}`)
	documentRegex             = regexp.MustCompile(`^[0-9]+$`)
	personNameRegex           = regexp.MustCompile(
		`^[A-Za-zÁÉÍÓÚáéíóúÑñÜü]+(?: [A-Za-zÁÉÍÓÚáéíóúÑñÜü]+)*$`)
	locationRegex = regexp.MustCompile(
		`^[A-Za-zÁÉÍÓÚáéíóúÑñÜü]+(?: [A-Za-zÁÉÍÓÚáéíóúÑñÜü]+)*$`)
	emailRegex = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// Store is the CSV-backed patient repository.
type Store struct {
	mu       sync.Mutex
	filePath string
	logger   *zap.Logger
}

// New creates a patient store at filePath, ensuring its parent
// directory and header exist.
func New(filePath string, logger *zap.Logger) (*Store, error) {
	s := &Store{filePath: filePath, logger: logger}
	if err := s.initializeCSVFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save validates and normalizes patient, assigns a UUID if absent,
// rejects a duplicate document with Validation (not Conflict — see
// DESIGN.md's Open Question decision), and appends one CSV row.
func (s *Store) Save(p *model.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateForPersistence(p); err != nil {
		return err
	}

	existing, err := s.readAllLocked()
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.Document == p.Document {
			return errs.New(errs.Validation, "Ya existe un paciente registrado con el documento: "+p.Document)
		}
	}

	row := buildCSVRow(*p)
	file, openErr := os.OpenFile(s.filePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil {
		return errs.Wrap(errs.Persistence, "error al guardar paciente en CSV", openErr)
	}
	defer file.Close()

	if _, writeErr := file.WriteString(row + "\n"); writeErr != nil {
		return errs.Wrap(errs.Persistence, "error al guardar paciente en CSV", writeErr)
	}
	return nil
}

// GetByDocument scans the CSV file and returns the patient whose
// document matches, or (zero value, false) if none does.
func (s *Store) GetByDocument(document string) (model.Patient, bool, error) {
	document = strings.TrimSpace(document)
	if document == "" {
		return model.Patient{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	patients, err := s.readAllLocked()
	if err != nil {
		return model.Patient{}, false, err
	}
	for _, p := range patients {
		if p.Document == document {
			return p, true, nil
		}
	}
	return model.Patient{}, false, nil
}

func (s *Store) validateForPersistence(p *model.Patient) error {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	p.Document = strings.TrimSpace(p.Document)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	p.City = strings.TrimSpace(p.City)
	p.Country = strings.TrimSpace(p.Country)
	gender := strings.TrimSpace(string(p.Gender))

	var invalid []string
	if p.Document == "" || !documentRegex.MatchString(p.Document) {
		invalid = append(invalid, "patientDocument")
	}
	if p.FirstName == "" || !personNameRegex.MatchString(p.FirstName) {
		invalid = append(invalid, "firstName")
	}
	if p.LastName == "" || !personNameRegex.MatchString(p.LastName) {
		invalid = append(invalid, "lastName")
	}
	if p.Email == "" || !emailRegex.MatchString(p.Email) {
		invalid = append(invalid, "email")
	}
	var normalizedGender model.Gender
	if gender == "" {
		invalid = append(invalid, "gender")
	} else if g, ok := model.ParseGender(gender); ok {
		normalizedGender = g
	} else {
		invalid = append(invalid, "gender")
	}
	if p.City == "" || !locationRegex.MatchString(p.City) {
		invalid = append(invalid, "city")
	}
	if p.Country == "" || !locationRegex.MatchString(p.Country) {
		invalid = append(invalid, "country")
	}
	if p.Age < minAge || p.Age > maxAge {
		invalid = append(invalid, "age")
	}

	if len(invalid) > 0 {
		return errs.New(errs.Validation, "Campos invalidos: "+strings.Join(invalid, ", "))
	}
	p.Gender = normalizedGender
	return nil
}

func buildCSVRow(p model.Patient) string {
	fields := []string{
		p.UUID, p.Document, p.FirstName, p.LastName,
		strconv.Itoa(p.Age), p.Email, string(p.Gender), p.City, p.Country,
	}
	sanitized := make([]string, len(fields))
	for i, f := range fields {
		sanitized[i] = sanitizeField(f)
	}
	return strings.Join(sanitized, ",")
}

func sanitizeField(value string) string {
	clean := controlAndCSVSpecialChars.ReplaceAllString(value, " ")
	clean = multipleSpaces.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// readAllLocked reads every data row, skipping and logging corrupted
// rows, per SPEC_FULL.md §4.6 and §7's local-recovery policy. Caller
// must hold s.mu.
func (s *Store) readAllLocked() ([]model.Patient, error) {
	file, err := os.Open(s.filePath)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "error al leer pacientes desde CSV", err)
	}
	defer file.Close()

	var patients []model.Patient
	scanner := bufio.NewScanner(file)
	lineNumber := 0
	isFirstLine := true
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if isFirstLine {
			isFirstLine = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, parseErr := mapToPatient(line, lineNumber)
		if parseErr != nil {
			s.logger.Info("corrupted patient CSV row skipped", zap.Int("line", lineNumber), zap.Error(parseErr))
			continue
		}
		patients = append(patients, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.Persistence, "error al leer pacientes desde CSV", err)
	}
	return patients, nil
}

func mapToPatient(line string, lineNumber int) (model.Patient, error) {
	columns := parseCSVLine(line)
	if len(columns) != 9 {
		return model.Patient{}, fmt.Errorf("line=%d: se esperaban 9 columnas, se encontraron %d", lineNumber, len(columns))
	}

	age, err := strconv.Atoi(strings.TrimSpace(columns[4]))
	if err != nil {
		return model.Patient{}, fmt.Errorf("line=%d: edad no numerica: %w", lineNumber, err)
	}

	return model.Patient{
		UUID:      strings.TrimSpace(columns[0]),
		Document:  strings.TrimSpace(columns[1]),
		FirstName: strings.TrimSpace(columns[2]),
		LastName:  strings.TrimSpace(columns[3]),
		Age:       age,
		Email:     strings.TrimSpace(columns[5]),
		Gender:    model.Gender(strings.TrimSpace(columns[6])),
		City:      strings.TrimSpace(columns[7]),
		Country:   strings.TrimSpace(columns[8]),
	}, nil
}

// parseCSVLine supports quoted values with embedded commas/quotes,
// mirroring CSVPatientRepository.parseCsvLine's hand-rolled scanner.
func parseCSVLine(line string) []string {
	var values []string
	var current strings.Builder
	inQuotes := false
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			values = append(values, current.String())
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	values = append(values, current.String())
	return values
}

func (s *Store) initializeCSVFile() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return errs.Wrap(errs.Persistence, "no se pudo crear el directorio del CSV de pacientes", err)
	}

	info, statErr := os.Stat(s.filePath)
	fileExisted := statErr == nil
	if statErr != nil || info.Size() == 0 {
		if err := os.WriteFile(s.filePath, []byte(fileHeader+"\n"), 0o644); err != nil {
			return errs.Wrap(errs.Persistence, "error al inicializar archivo CSV de pacientes", err)
		}
		s.logger.Info("patient CSV created", zap.String("path", s.filePath))
		return nil
	}

	if err := s.ensureHeader(); err != nil {
		return err
	}
	if fileExisted {
		s.logger.Info("patient CSV found", zap.String("path", s.filePath))
	}
	return nil
}

// ensureHeader re-prepends the header if the file's first line does not
// match it, matching CSVPatientRepository.ensureCsvHeader's
// self-healing behavior.
func (s *Store) ensureHeader() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return errs.Wrap(errs.Persistence, "error al leer archivo CSV de pacientes", err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || lines[0] != fileHeader {
		healed := append([]string{fileHeader}, lines...)
		if err := os.WriteFile(s.filePath, []byte(strings.Join(healed, "\n")), 0o644); err != nil {
			return errs.Wrap(errs.Persistence, "error al restaurar encabezado del CSV de pacientes", err)
		}
	}
	return nil
}
