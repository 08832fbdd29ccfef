package model

import (
	"regexp"
	"strings"
	"time"

	"bioguard/internal/errs"
)

// Regexes grounded on original_source's CSVPatientRepository and
// FastaDiseaseRepository validation constants. Patient field validation
// lives solely in internal/store/patient, which is the grounded copy;
// it is not duplicated here.
var (
	diseaseNameRegex = regexp.MustCompile(
		`^[A-Za-zÁÉÍÓÚáéíóúÑñÜü0-9]+(?:[ -][A-Za-zÁÉÍÓÚáéíóúÑñÜü0-9]+)*$`)
	geneticSequenceRegex = regexp.MustCompile(`^[ACGT]+$`)
	documentRegex        = regexp.MustCompile(`^[0-9]+$`)
)

const minDiseaseSequenceLength = 15

// ValidateDisease validates and normalizes d in place.
func ValidateDisease(d *Disease) error {
	d.Name = trimOrEmpty(d.Name)
	d.GeneticSequence = strings.ToUpper(trimOrEmpty(d.GeneticSequence))

	var invalid []string

	if d.Name == "" || !diseaseNameRegex.MatchString(d.Name) {
		invalid = append(invalid, "diseaseName")
	}
	if d.GeneticSequence == "" || !geneticSequenceRegex.MatchString(d.GeneticSequence) {
		invalid = append(invalid, "geneticSequence")
	} else if len(d.GeneticSequence) < minDiseaseSequenceLength {
		invalid = append(invalid, "geneticSequence (minimo 15 nucleotidos)")
	}
	if d.Infectiousness == "" {
		invalid = append(invalid, "infectiousness")
	}

	if len(invalid) > 0 {
		return errs.New(errs.Validation, "Campos invalidos: "+strings.Join(invalid, ", "))
	}
	return nil
}

// ValidateDiagnoseRequest validates the three fields a diagnose request
// carries, per SPEC_FULL.md §4.4.3 step 1.
func ValidateDiagnoseRequest(document, sampleDate, sequence string) error {
	var invalid []string

	if !documentRegex.MatchString(document) || len(document) > 20 {
		invalid = append(invalid, "document")
	}
	if !isISODate(sampleDate) {
		invalid = append(invalid, "sampleDate")
	}
	upper := strings.ToUpper(sequence)
	if !geneticSequenceRegex.MatchString(upper) || len(upper) < 7 || len(upper) > 5000 {
		invalid = append(invalid, "sequence")
	}

	if len(invalid) > 0 {
		return errs.New(errs.Validation, "Campos invalidos: "+strings.Join(invalid, ", "))
	}
	return nil
}

func isISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// trimOrEmpty duplicates the fasta package's one-line trim helper so
// that model does not depend on fasta.
func trimOrEmpty(s string) string {
	return strings.TrimSpace(s)
}
