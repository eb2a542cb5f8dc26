package filevault

import (
	"path/filepath"
	"regexp"
	"unicode"
	"unicode/utf8"
)

const maxFileIdentifierLength = 200

// IsValidFileIdentifier validates a caller-chosen file identifier. The
// identifier becomes part of a flat blob filename, so it must:
//   - not be empty, ".", or ".."
//   - not start with "." (temp files in blob storage are dot-prefixed)
//   - not contain path separators
//   - be valid UTF-8
//   - not contain null bytes, control characters (< 0x20), DEL (0x7f), or whitespace
//   - be at most 200 bytes
//
// Returns true if the identifier is valid, false otherwise.
func IsValidFileIdentifier(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}

	if id[0] == '.' {
		return false
	}

	if len(id) > maxFileIdentifierLength {
		return false
	}

	if !utf8.ValidString(id) {
		return false
	}

	for _, r := range id {
		if r == '/' || r == '\\' {
			return false
		}
		if r == 0 || r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}

var validExtensionRegex = regexp.MustCompile(`^\.[a-zA-Z0-9]{1,12}$`)

// SafeExtension extracts the extension of an uploaded file's original name,
// dropping anything that could not appear verbatim in a stored filename.
// Returns the extension including the leading dot, or "" when the name has
// no usable extension.
func SafeExtension(originalName string) string {
	ext := filepath.Ext(originalName)
	if !validExtensionRegex.MatchString(ext) {
		return ""
	}
	return ext
}

// DeriveFilename computes the stored blob name for a file identifier and
// its sanitized extension.
func DeriveFilename(fileIdentifier, extension string) string {
	return fileIdentifier + extension
}
