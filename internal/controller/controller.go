// Package controller implements the three request handlers BioGuard
// routes to — patient registration, disease registration, and
// diagnosis — grounded on original_source's PatientRegisterController,
// DiseaseRegisterController, and DiagnoseController. Each parses its
// body via internal/parser, invokes internal/service, and renders the
// exact success-message text those controllers produce (SPEC_FULL.md
// §4.8); failures are returned as errors for the router to map.
package controller

import (
	"strings"

	"bioguard/internal/parser"
	"bioguard/internal/service"
)

// Controller wires the three route handlers to a Service.
type Controller struct {
	service *service.Service
}

// New creates a Controller over svc.
func New(svc *service.Service) *Controller {
	return &Controller{service: svc}
}

// RegisterPatient parses a patient registration body and persists it,
// grounded on PatientRegisterController.process.
func (c *Controller) RegisterPatient(contentType, body string) (string, error) {
	patient, err := parser.ParsePatient(contentType, body)
	if err != nil {
		return "", err
	}
	if err := c.service.RegisterPatient(&patient); err != nil {
		return "", err
	}
	return "[TCP][201][Created] paciente registrado exitosamente con uuid: " + patient.UUID, nil
}

// RegisterDisease parses a disease registration body and persists it,
// grounded on DiseaseRegisterController.process.
func (c *Controller) RegisterDisease(contentType, body string) (string, error) {
	disease, err := parser.ParseDisease(contentType, body)
	if err != nil {
		return "", err
	}
	if err := c.service.RegisterDisease(&disease); err != nil {
		return "", err
	}
	return "[TCP][201][Created] virus " + disease.Name + " registrado exitosamente", nil
}

// Diagnose parses a diagnose request body and runs the diagnosis
// pipeline, grounded on DiagnoseController.process's message assembly:
// the success prefix is followed by every cascading-effect message,
// joined by " | ".
func (c *Controller) Diagnose(contentType, body string) (string, error) {
	message, err := parser.ParseDiagnose(contentType, body)
	if err != nil {
		return "", err
	}
	result, err := c.service.Diagnose(message.Document, message.SampleDate, message.GeneticSequence)
	if err != nil {
		return "", err
	}

	response := "[TCP][200][Success] diagnostico generado exitosamente"
	if len(result.Messages) > 0 {
		response += " | " + strings.Join(result.Messages, " | ")
	}
	return response, nil
}
