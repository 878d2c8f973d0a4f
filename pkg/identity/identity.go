// Package identity derives stable identifiers for widget instances from their
// structural position in the parent form.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const (
	pathDelimiter = "-"
	wrapperPrefix = "inline-entity-form-"
)

var segmentEscaper = strings.NewReplacer(`\`, `\\`, pathDelimiter, `\`+pathDelimiter)

// ComputeID returns the hex SHA-256 digest of the path segments joined by "-".
// Segments are escaped and the segment count is prefixed, so ["a-b"] and
// ["a", "b"] hash differently. Identical paths always produce the same id.
func ComputeID(path []string) string {
	escaped := make([]string, len(path))
	for idx, segment := range path {
		escaped[idx] = segmentEscaper.Replace(segment)
	}
	payload := strconv.Itoa(len(path)) + ":" + strings.Join(escaped, pathDelimiter)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Parents builds the parents array for a field: the field's own parents
// followed by the field name and the "form" segment.
func Parents(fieldParents []string, fieldName string) []string {
	out := make([]string, 0, len(fieldParents)+2)
	out = append(out, fieldParents...)
	return append(out, fieldName, "form")
}

// WrapperID returns the DOM id of the region re-rendered after an action.
func WrapperID(id string) string {
	return wrapperPrefix + id
}
