package form

import (
	"fmt"
	"strconv"
	"strings"
)

// Input names are scoped by instance id so several widgets can share a page.
//
//	<id>[<key>][<field>]   row sub-form value
//	<id>[<key>][_weight]   row weight
//	<id>[<key>][delete]    remove form checkbox
//	<id>[add][<field>]     add form value
//	<id>[add][bundle]      bundle choice
//	<id>[existing]         referenced record id

const (
	segmentAdd      = "add"
	segmentBundle   = "bundle"
	segmentExisting = "existing"
	segmentDelete   = "delete"
	segmentWeight   = "_weight"
)

// InputName names a row sub-form value.
func InputName(id string, key int, field string) string {
	return fmt.Sprintf("%s[%d][%s]", id, key, field)
}

// WeightName names a row weight input.
func WeightName(id string, key int) string {
	return InputName(id, key, segmentWeight)
}

// DeleteName names the "delete from the system" checkbox of a row.
func DeleteName(id string, key int) string {
	return InputName(id, key, segmentDelete)
}

// AddInputName names an add form value.
func AddInputName(id, field string) string {
	return fmt.Sprintf("%s[%s][%s]", id, segmentAdd, field)
}

// BundleName names the bundle choice of the add controls.
func BundleName(id string) string {
	return AddInputName(id, segmentBundle)
}

// ExistingName names the referenced record id input.
func ExistingName(id string) string {
	return fmt.Sprintf("%s[%s]", id, segmentExisting)
}

// InputRef is a decoded input name.
type InputRef struct {
	InstanceID string
	// RowKey is -1 for widget-level inputs.
	RowKey   int
	Field    string
	Add      bool
	Existing bool
	Weight   bool
	Delete   bool
	Bundle   bool
}

// ParseInputName decodes a name produced by the helpers above.
func ParseInputName(name string) (InputRef, bool) {
	open := strings.IndexByte(name, '[')
	if open <= 0 || !strings.HasSuffix(name, "]") {
		return InputRef{}, false
	}
	ref := InputRef{InstanceID: name[:open], RowKey: -1}
	segments := strings.Split(strings.TrimSuffix(name[open+1:], "]"), "][")

	switch {
	case len(segments) == 1 && segments[0] == segmentExisting:
		ref.Existing = true
		return ref, true
	case len(segments) != 2 || segments[1] == "":
		return InputRef{}, false
	}

	scope, field := segments[0], segments[1]
	if scope == segmentAdd {
		ref.Add = true
		ref.Bundle = field == segmentBundle
		ref.Field = field
		return ref, true
	}
	key, err := strconv.Atoi(scope)
	if err != nil || key < 0 {
		return InputRef{}, false
	}
	ref.RowKey = key
	ref.Field = field
	ref.Weight = field == segmentWeight
	ref.Delete = field == segmentDelete
	return ref, true
}
