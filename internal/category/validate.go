package category

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/edgeplane/corectl/internal/corerr"
	"github.com/edgeplane/corectl/internal/types"
	"github.com/edgeplane/corectl/internal/validator"
)

// RawItem is the caller-supplied shape of one item-spec entry before it
// has been typed and normalized: a loose map so invariant V3 ("no
// unrecognized entry names") can be checked against arbitrary input
// instead of being structurally impossible to violate, the way a typed
// Go struct would make it.
type RawItem map[string]any

// validateCreateItem enforces spec.md 4.3.1 step 2 on one item during
// create_category: required entries present, no unrecognized entries,
// value must not be supplied, enumeration constraints, and optional-entry
// self-typing. It returns the typed Item with Value and Default both set
// to the cleaned default (prepared, per step 2's last clause).
func validateCreateItem(name string, raw RawItem) (types.Item, error) {
	for k := range raw {
		if !validator.KnownEntryNames[k] {
			return types.Item{}, corerr.Validation("item %q: unrecognized entry %q", name, k)
		}
	}
	if _, ok := raw["value"]; ok {
		return types.Item{}, corerr.Validation("item %q: value must not be supplied on create", name)
	}

	item, err := buildItem(name, raw, true /*fillValueFromDefault*/)
	if err != nil {
		return types.Item{}, err
	}
	return item, nil
}

// validateStoredItem re-validates a previously persisted item with
// fill_value_from_default=false: value is required and must itself
// validate (spec.md 4.3.1 step 4, invariant V2).
func validateStoredItem(name string, item types.Item) error {
	if item.Description == "" && item.Default == "" && item.Type == "" {
		return corerr.Validation("item %q: missing required entries", name)
	}
	if item.Value == "" {
		return corerr.Validation("item %q: stored value missing", name)
	}
	if !itemTypeValid(item, item.Value) {
		return corerr.Validation("item %q: stored value invalid for type %s", name, item.Type)
	}
	return nil
}

// buildItem constructs and type-checks a types.Item from raw entries.
func buildItem(name string, raw RawItem, fillValueFromDefault bool) (types.Item, error) {
	desc, _ := raw["description"].(string)
	def, _ := raw["default"].(string)
	typStr, _ := raw["type"].(string)
	if desc == "" {
		return types.Item{}, corerr.Validation("item %q: missing description", name)
	}
	if typStr == "" {
		return types.Item{}, corerr.Validation("item %q: missing type", name)
	}
	typ := types.ItemType(typStr)

	item := types.Item{Description: desc, Default: def, Type: typ}

	if opts, ok := raw["options"]; ok {
		list, err := toStringSlice(opts)
		if err != nil {
			return types.Item{}, corerr.Validation("item %q: options: %v", name, err)
		}
		item.Options = list
	}
	if typ == types.TypeEnumeration {
		if len(item.Options) == 0 {
			return types.Item{}, corerr.Validation("item %q: enumeration requires non-empty options", name)
		}
		if !contains(item.Options, def) {
			return types.Item{}, corerr.Validation("item %q: default %q not in options", name, def)
		}
	} else if !validator.Validate(typ, def) {
		return types.Item{}, corerr.Validation("item %q: default %q invalid for type %s", name, def, typ)
	}

	for _, optName := range []string{"readonly", "deprecated", "order", "length", "minimum", "maximum", "displayName"} {
		v, ok := raw[optName]
		if !ok {
			continue
		}
		s, err := toEntryString(v)
		if err != nil {
			return types.Item{}, corerr.Validation("item %q: %s: %v", name, optName, err)
		}
		if !validator.ValidateOptionalEntry(optName, s) {
			return types.Item{}, corerr.Validation("item %q: %s=%q invalid", name, optName, s)
		}
		applyOptionalEntry(&item, optName, s)
	}

	cleanedDefault := validator.Clean(typ, def)
	item.Default = cleanedDefault
	if fillValueFromDefault {
		item.Value = cleanedDefault
	}
	return item, nil
}

func applyOptionalEntry(item *types.Item, name, v string) {
	switch name {
	case "readonly":
		b := v == "true"
		item.ReadOnly = &b
	case "deprecated":
		b := v == "true"
		item.Deprecated = &b
	case "displayName":
		item.DisplayName = v
	case "order", "length":
		n, err := strconv.Atoi(v)
		if err != nil {
			return
		}
		if name == "order" {
			item.Order = &n
		} else {
			item.Length = &n
		}
	case "minimum", "maximum":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return
		}
		if name == "minimum" {
			item.Minimum = &f
		} else {
			item.Maximum = &f
		}
	}
}

// itemTypeValid validates value under item's type, handling the
// enumeration special case (membership in Options, not an intrinsic C1
// validator) per spec.md 4.1.
func itemTypeValid(item types.Item, value string) bool {
	if item.Type == types.TypeEnumeration {
		return contains(item.Options, value)
	}
	return validator.Validate(item.Type, value)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func toStringSlice(v any) ([]string, error) {
	switch t := v.(type) {
	case []string:
		return t, nil
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("element %d not a string", i)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a list of strings")
	}
}

func toEntryString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case int:
		return fmt.Sprintf("%d", t), nil
	case float64:
		return fmt.Sprintf("%g", t), nil
	default:
		return "", fmt.Errorf("unsupported entry value type %T", v)
	}
}

// sortedKeys returns m's keys in sorted order. The step-7 no-op check
// (itemsEqual) does not call it; it relies on encoding/json's own
// sorted map-key output.
func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
