// Package service implements BioGuard's business operations — patient
// registration, disease registration, and the diagnosis pipeline —
// wiring together the file-backed stores. Structurally grounded on
// wisefido-alarm's internal/evaluator.Evaluator: a central type that
// receives already-parsed input, evaluates it against registered state,
// and cascades the resulting side effects across several repositories
// in a fixed order, collecting each one's message.
package service

import (
	"strings"

	"go.uber.org/zap"

	"bioguard/internal/errs"
	"bioguard/internal/model"
	"bioguard/internal/store/diagnosis"
	"bioguard/internal/store/disease"
	"bioguard/internal/store/history"
	"bioguard/internal/store/patient"
	"bioguard/internal/store/report"
)

// DiagnoseResult is a completed diagnosis together with the messages its
// cascading persistence effects produced, in the order the original
// DiagnoseService.diagnose assembles them.
type DiagnoseResult struct {
	Diagnostic *model.Diagnostic
	Messages   []string
}

// Service is BioGuard's business-operation facade over its stores.
type Service struct {
	patients  *patient.Store
	diseases  *disease.Store
	diagnoses *diagnosis.Store
	reports   *report.Store
	history   *history.Store
	logger    *zap.Logger
}

// New wires a Service over its five stores.
func New(patients *patient.Store, diseases *disease.Store, diagnoses *diagnosis.Store, reports *report.Store, history *history.Store, logger *zap.Logger) *Service {
	return &Service{
		patients:  patients,
		diseases:  diseases,
		diagnoses: diagnoses,
		reports:   reports,
		history:   history,
		logger:    logger,
	}
}

// RegisterPatient persists p, assigning it a UUID. Field validation is
// the patient store's responsibility; see internal/store/patient.
func (s *Service) RegisterPatient(p *model.Patient) error {
	return s.patients.Save(p)
}

// RegisterDisease validates and persists d, assigning it a UUID.
func (s *Service) RegisterDisease(d *model.Disease) error {
	if err := model.ValidateDisease(d); err != nil {
		return err
	}
	return s.diseases.Save(d)
}

// Diagnose runs the full diagnosis pipeline described in SPEC_FULL.md
// §4.4.3: validate the request, look up the patient, reject a repeat
// sample, match the sample against every registered disease, then
// cascade the three persistence side effects (diagnosis CSV, high
// infectivity report, mutation history) in order, grounded on
// DiagnoseService.diagnose.
func (s *Service) Diagnose(document, sampleDate, sequence string) (*DiagnoseResult, error) {
	if err := model.ValidateDiagnoseRequest(document, sampleDate, sequence); err != nil {
		return nil, err
	}
	sequence = strings.ToUpper(sequence)

	p, found, err := s.patients.GetByDocument(document)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.New(errs.NotFound, "no se encontro ningun paciente con dicho documento")
	}

	exists, err := s.diagnoses.ExistsSample(p.UUID, document, sampleDate, sequence)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.New(errs.Conflict, "ya existe un diagnostico registrado para este paciente con la misma muestra y fecha")
	}

	diseases, err := s.diseases.FindAll()
	if err != nil {
		return nil, err
	}
	matches := findMatches(sequence, diseases)
	if len(matches) == 0 {
		return nil, errs.New(errs.NotFound, "no se encontro ninguna enfermedad que coincida con dicha secuencia")
	}

	diagnostic := &model.Diagnostic{
		SampleDate:     sampleDate,
		SampleSequence: sequence,
		Patient:        p,
		Matches:        matches,
	}

	var messages []string

	diagnosticMsg, err := s.diagnoses.Save(diagnostic)
	if err != nil {
		return nil, err
	}
	messages = appendIfNonEmpty(messages, diagnosticMsg)

	reportMsg, err := s.reports.Save(diagnostic)
	if err != nil {
		return nil, err
	}
	messages = appendIfNonEmpty(messages, reportMsg)

	historyMsg, err := s.history.Save(diagnostic)
	if err != nil {
		return nil, err
	}
	messages = appendIfNonEmpty(messages, historyMsg)

	return &DiagnoseResult{Diagnostic: diagnostic, Messages: messages}, nil
}

// findMatches reports every registered disease whose sequence contains
// patientSequence, normalizing each match's sequence to upper case,
// grounded on DiagnoseService.findMatches/findExactMatch.
func findMatches(patientSequence string, diseases []model.Disease) []model.Disease {
	var matches []model.Disease
	for _, d := range diseases {
		if d.GeneticSequence == "" {
			continue
		}
		sequence := strings.ToUpper(d.GeneticSequence)
		if strings.Contains(sequence, patientSequence) {
			matches = append(matches, model.Disease{
				UUID:            d.UUID,
				Name:            d.Name,
				Infectiousness:  d.Infectiousness,
				GeneticSequence: sequence,
			})
		}
	}
	return matches
}

func appendIfNonEmpty(messages []string, msg string) []string {
	if strings.TrimSpace(msg) == "" {
		return messages
	}
	return append(messages, msg)
}
