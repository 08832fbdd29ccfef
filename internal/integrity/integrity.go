// Package integrity provides the content-addressed hashing and file
// verification described in SPEC_FULL.md §4.1, grounded on
// original_source's SHA256IntegrityVerifier.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	"bioguard/internal/errs"
)

// Hash returns the lowercase hex SHA-256 digest of text's UTF-8 bytes.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// VerifyFile reads the file at path and confirms that Hash(content)
// equals the filename with extension stripped. A missing, empty,
// unreadable, or mismatched file is reported as CorruptedData; callers
// treat a corrupt file as absent.
func VerifyFile(path, extension string) (content string, err error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", errs.Wrap(errs.CorruptedData, "no se pudo leer el archivo: "+path, readErr)
	}
	if len(data) == 0 {
		return "", errs.New(errs.CorruptedData, "archivo vacio: "+path)
	}

	content = string(data)
	expectedHash := expectedHashFromName(path, extension)
	if Hash(content) != expectedHash {
		return "", errs.New(errs.CorruptedData, "archivo corrupto o modificado: "+path)
	}
	return content, nil
}

func expectedHashFromName(path, extension string) string {
	base := baseName(path)
	return strings.TrimSuffix(base, extension)
}

func baseName(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
