package util

import (
	"errors"
	"strings"
)

var errInvalidFileName = errors.New("invalid file name")

var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	`"`, "_",
	"\r", "",
	"\n", "",
)

// SanitizeFileName makes name safe for a Content-Disposition filename:
// separators and quotes become "_", line breaks are dropped and traversal
// patterns are rejected.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := fileNameReplacer.Replace(strings.TrimSpace(name))
	if s == "" {
		return "", errInvalidFileName
	}
	return s, nil
}
