package validator

import (
	"testing"

	"github.com/edgeplane/corectl/internal/types"
)

func TestValidateByType(t *testing.T) {
	cases := []struct {
		kind types.ItemType
		v    string
		want bool
	}{
		{types.TypeBoolean, "true", true},
		{types.TypeBoolean, "TRUE", true},
		{types.TypeBoolean, "yes", false},
		{types.TypeInteger, "42", true},
		{types.TypeInteger, "4.2", false},
		{types.TypeFloat, "4.2", true},
		{types.TypeFloat, "abc", false},
		{types.TypeIPv4, "10.0.0.1", true},
		{types.TypeIPv4, "::1", false},
		{types.TypeIPv6, "::1", true},
		{types.TypeIPv6, "10.0.0.1", false},
		{types.TypeURL, "https://example.com/x", true},
		{types.TypeURL, "not a url", false},
		{types.TypeJSON, `{"a":1}`, true},
		{types.TypeJSON, `{not json`, false},
		{types.TypeString, "anything", true},
		{types.TypePassword, "", true},
		{types.TypeX509, "", true},
		{types.TypeScript, "echo hi", true},
	}
	for _, c := range cases {
		if got := Validate(c.kind, c.v); got != c.want {
			t.Errorf("Validate(%s, %q) = %v, want %v", c.kind, c.v, got, c.want)
		}
	}
}

func TestCleanBoolean(t *testing.T) {
	if got := Clean(types.TypeBoolean, "TRUE"); got != "true" {
		t.Errorf("Clean(boolean, TRUE) = %q, want true", got)
	}
}

func TestCleanFloatNormalizes(t *testing.T) {
	if got := Clean(types.TypeFloat, "1.500"); got != "1.5" {
		t.Errorf("Clean(float, 1.500) = %q, want 1.5", got)
	}
}

func TestCleanFloatLeavesUnparsable(t *testing.T) {
	if got := Clean(types.TypeFloat, "nope"); got != "nope" {
		t.Errorf("Clean(float, nope) = %q, want nope unchanged", got)
	}
}

func TestValidateOptionalEntry(t *testing.T) {
	if !ValidateOptionalEntry("readonly", "true") {
		t.Error("readonly=true should validate")
	}
	if ValidateOptionalEntry("readonly", "maybe") {
		t.Error("readonly=maybe should not validate")
	}
	if !ValidateOptionalEntry("minimum", "1.5") {
		t.Error("minimum=1.5 should validate")
	}
	if !ValidateOptionalEntry("displayName", "anything at all") {
		t.Error("displayName should accept any string")
	}
	if !ValidateOptionalEntry("order", "3") {
		t.Error("order=3 should validate as integer")
	}
	if ValidateOptionalEntry("order", "3.5") {
		t.Error("order=3.5 should not validate as integer")
	}
}

func TestKnownEntryNames(t *testing.T) {
	for _, name := range []string{"description", "default", "type", "value", "readonly", "options"} {
		if !KnownEntryNames[name] {
			t.Errorf("expected %q to be a known entry name", name)
		}
	}
	if KnownEntryNames["bogus"] {
		t.Error("bogus should not be a known entry name")
	}
}
