// Package fasta provides the line-splitting, header-parsing, and
// sequence-extraction utilities shared by all FASTA body parsers and
// stores, grounded on original_source's FastaUtils and
// business/FASTA/* helpers.
package fasta

import (
	"strconv"
	"strings"

	"bioguard/internal/errs"
)

// Lines splits text on any line terminator, trims each line, and drops
// empty lines.
func Lines(text string) []string {
	normalized := strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
	raw := strings.Split(normalized, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// ParseHeader requires a leading '>' on firstLine, splits the remainder
// on '|', and returns the trimmed field array. shape is the minimum
// number of fields the caller expects: fewer fields fail with
// InvalidFormat, while extra fields are returned for the caller to check.
func ParseHeader(firstLine string, shape int) ([]string, error) {
	trimmed := strings.TrimSpace(firstLine)
	if !strings.HasPrefix(trimmed, ">") {
		return nil, errs.New(errs.InvalidFormat, "el encabezado debe iniciar con '>'")
	}
	rawFields := strings.Split(trimmed[1:], "|")
	fields := make([]string, len(rawFields))
	for i, f := range rawFields {
		fields[i] = strings.TrimSpace(f)
	}
	if len(fields) < shape {
		return nil, errs.New(errs.InvalidFormat, "el encabezado debe contener al menos "+strconv.Itoa(shape)+" campos")
	}
	return fields, nil
}

// SequenceOf returns the second line of fastaText, upper-cased, or the
// empty string when the content is malformed (fewer than two lines).
func SequenceOf(fastaText string) string {
	lines := Lines(fastaText)
	if len(lines) < 2 {
		return ""
	}
	return strings.ToUpper(lines[1])
}

// TrimOrEmpty trims s, returning "" for a nil/blank input.
func TrimOrEmpty(s string) string {
	return strings.TrimSpace(s)
}
