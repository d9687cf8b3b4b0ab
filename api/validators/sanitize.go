package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxDocumentTypeLen   = 16
	maxDocumentNumberLen = 32
)

// SanitizeString trims input and caps it at maxLen runes. A non-positive
// maxLen only trims.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}
	runes := []rune(trimmed)
	return strings.TrimSpace(string(runes[:maxLen]))
}

// SanitizeDocument normalizes a buyer document pair. The type code is
// upper-cased and whitespace inside the number is dropped, so "cc" and
// "1 020 304" match the stored "CC" and "1020304".
func SanitizeDocument(docType, docNumber string) (string, string) {
	code := strings.ToUpper(SanitizeString(docType, maxDocumentTypeLen))
	number := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, docNumber)
	return code, SanitizeString(number, maxDocumentNumberLen)
}
