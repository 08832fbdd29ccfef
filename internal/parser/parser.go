// Package parser implements the three FASTA body dialects described in
// SPEC_FULL.md §4.3, grounded on original_source's
// format/parser/Fasta{Patient,Disease,Diagnostic}Parser classes. Each
// parser accepts only ContentTypeFasta and rejects any other
// content-type with InvalidFormat.
package parser

import (
	"strconv"
	"strings"

	"bioguard/internal/errs"
	"bioguard/internal/fasta"
	"bioguard/internal/model"
)

// ContentTypeFasta is the only content-type BioGuard's three dialects
// accept.
const ContentTypeFasta = "application/fasta"

// DiagnoseMessage is the parsed, not-yet-validated payload of a
// diagnose request.
type DiagnoseMessage struct {
	Document        string
	SampleDate      string
	GeneticSequence string
}

// ParsePatient parses a 1-line FASTA patient header:
// >document|firstName|lastName|age|email|gender|city|country
func ParsePatient(contentType, body string) (model.Patient, error) {
	if contentType != ContentTypeFasta {
		return model.Patient{}, errs.New(errs.InvalidFormat, "content-type no soportado: "+contentType)
	}

	lines := fasta.Lines(body)
	if len(lines) != 1 {
		return model.Patient{}, errs.New(errs.InvalidFormat, "el mensaje de paciente debe tener exactamente 1 linea")
	}

	fields, err := fasta.ParseHeader(lines[0], 8)
	if err != nil {
		return model.Patient{}, err
	}
	if len(fields) != 8 {
		return model.Patient{}, errs.New(errs.InvalidFormat, "el encabezado de paciente debe tener exactamente 8 campos")
	}

	age, err := strconv.Atoi(fields[3])
	if err != nil {
		return model.Patient{}, errs.New(errs.InvalidFormat, "el campo age debe ser numerico")
	}

	gender, ok := model.ParseGender(fields[5])
	if !ok {
		gender = model.Gender(fields[5])
	}

	return model.Patient{
		Document:  fields[0],
		FirstName: fields[1],
		LastName:  fields[2],
		Age:       age,
		Email:     fields[4],
		Gender:    gender,
		City:      fields[6],
		Country:   fields[7],
	}, nil
}

// ParseDisease parses a 2-line FASTA disease body:
// >name|level
// SEQUENCE
func ParseDisease(contentType, body string) (model.Disease, error) {
	if contentType != ContentTypeFasta {
		return model.Disease{}, errs.New(errs.InvalidFormat, "content-type no soportado: "+contentType)
	}

	lines := fasta.Lines(body)
	if len(lines) != 2 {
		return model.Disease{}, errs.New(errs.InvalidFormat, "el mensaje de enfermedad debe tener exactamente 2 lineas")
	}

	fields, err := fasta.ParseHeader(lines[0], 2)
	if err != nil {
		return model.Disease{}, err
	}
	if len(fields) != 2 {
		return model.Disease{}, errs.New(errs.InvalidFormat, "el encabezado de enfermedad debe tener exactamente 2 campos")
	}

	level, _ := model.ParseInfectiousnessLevel(strings.ToUpper(fields[1]))

	return model.Disease{
		Name:            fields[0],
		Infectiousness:  level,
		GeneticSequence: strings.ToUpper(lines[1]),
	}, nil
}

// ParseDiagnose parses a 2-line FASTA diagnose body:
// >document|YYYY-MM-DD
// SEQUENCE
func ParseDiagnose(contentType, body string) (DiagnoseMessage, error) {
	if contentType != ContentTypeFasta {
		return DiagnoseMessage{}, errs.New(errs.InvalidFormat, "content-type no soportado: "+contentType)
	}

	lines := fasta.Lines(body)
	if len(lines) != 2 {
		return DiagnoseMessage{}, errs.New(errs.InvalidFormat, "el mensaje de diagnostico debe tener exactamente 2 lineas")
	}

	fields, err := fasta.ParseHeader(lines[0], 2)
	if err != nil {
		return DiagnoseMessage{}, err
	}
	if len(fields) != 2 {
		return DiagnoseMessage{}, errs.New(errs.InvalidFormat, "el encabezado de diagnostico debe tener exactamente 2 campos")
	}

	return DiagnoseMessage{
		Document:        fields[0],
		SampleDate:      fields[1],
		GeneticSequence: strings.ToUpper(lines[1]),
	}, nil
}
