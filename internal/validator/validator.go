// Package validator implements C1, the type validator/cleaner boundary
// (spec.md 4.1): the single place that reconciles string-typed
// configuration values with the typed semantics named in spec.md's data
// model. Nothing outside this package should interpret a value's type.
package validator

import (
	"encoding/json"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/edgeplane/corectl/internal/types"
)

// Validate reports whether v is an acceptable textual encoding of kind.
//
// Enumeration has no intrinsic validator here: membership in an item's
// options list is an item-level concern owned by the category store, not
// a per-type concern C1 can check in isolation. Password, X509
// certificate and script are accepted without content validation; this
// is a documented limitation carried from spec.md 4.1, not an oversight.
func Validate(kind types.ItemType, v string) bool {
	switch kind {
	case types.TypeBoolean:
		switch strings.ToLower(v) {
		case "true", "false":
			return true
		}
		return false
	case types.TypeInteger:
		_, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return err == nil
	case types.TypeFloat:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil
	case types.TypeString:
		return true
	case types.TypeIPv4:
		ip := net.ParseIP(v)
		return ip != nil && ip.To4() != nil
	case types.TypeIPv6:
		ip := net.ParseIP(v)
		return ip != nil && ip.To4() == nil
	case types.TypeURL:
		u, err := url.Parse(v)
		return err == nil && u.Scheme != "" && u.Host != ""
	case types.TypeJSON:
		return validateJSON(v)
	case types.TypeEnumeration:
		return true
	case types.TypePassword, types.TypeX509, types.TypeScript:
		return true
	default:
		return false
	}
}

// validateJSON accepts either a JSON-parseable string or, defensively, a
// value that is already a JSON object literal passed through as text.
func validateJSON(v string) bool {
	var m map[string]any
	if err := json.Unmarshal([]byte(v), &m); err == nil {
		return true
	}
	var raw any
	return json.Unmarshal([]byte(v), &raw) == nil
}

// Clean normalizes v into its canonical textual form for kind.
func Clean(kind types.ItemType, v string) string {
	switch kind {
	case types.TypeBoolean:
		return strings.ToLower(v)
	case types.TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return v
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return v
	}
}

// ValidateOptionalEntry checks the self-type of one of an item-spec's
// optional entries (spec.md 4.3.1 step 2): readonly/deprecated are
// boolean-typed strings, minimum/maximum are numeric strings, displayName
// is a plain string, and any other optional entry name is an integer
// string.
func ValidateOptionalEntry(name, v string) bool {
	switch name {
	case "readonly", "deprecated":
		return Validate(types.TypeBoolean, v)
	case "minimum", "maximum":
		return Validate(types.TypeFloat, v)
	case "displayName":
		return true
	default:
		return Validate(types.TypeInteger, v)
	}
}

// KnownEntryNames is the complete set of entries recognized inside an
// item-spec (spec.md 3, invariant V3): required entries plus optionals.
var KnownEntryNames = map[string]bool{
	"description": true, "default": true, "type": true, "value": true,
	"readonly": true, "deprecated": true, "order": true, "length": true,
	"minimum": true, "maximum": true, "displayName": true, "options": true,
}
