package util

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxFileNameBytes matches the common filesystem and S3 key segment limit.
const maxFileNameBytes = 255

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName NFC-normalizes name, replaces path separators and control
// characters, and rejects traversal patterns. Names over 255 bytes are cut at
// a rune boundary while keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := norm.NFC.String(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", errInvalidFileName
	}
	return truncateName(s, maxFileNameBytes), nil
}

func truncateName(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	ext := ""
	if i := strings.LastIndexByte(s, '.'); i > 0 && len(s)-i <= 16 {
		ext = s[i:]
	}
	base := s[:limit-len(ext)]
	for !utf8.ValidString(base) {
		base = base[:len(base)-1]
	}
	return base + ext
}

// NullableString maps an empty string to a SQL NULL argument.
func NullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
