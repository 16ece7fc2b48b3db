package validation

import (
	"encoding/json"
	"strings"
	"testing"
)

func strptr(s string) *string { return &s }

func TestAutomationSchema_Create(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]*string
		wantCode string
	}{
		{
			name:     "missing name",
			values:   map[string]*string{},
			wantCode: "MISSING_NAME",
		},
		{
			name:     "empty name",
			values:   map[string]*string{"name": strptr("   ")},
			wantCode: "MISSING_NAME",
		},
		{
			name:     "name too long",
			values:   map[string]*string{"name": strptr(strings.Repeat("x", 256))},
			wantCode: "NAME_TOO_LONG",
		},
		{
			name: "description too long",
			values: map[string]*string{
				"name":        strptr("ok"),
				"description": strptr(strings.Repeat("d", 1001)),
			},
			wantCode: "DESCRIPTION_TOO_LONG",
		},
		{
			name: "invalid source",
			values: map[string]*string{
				"name":   strptr("ok"),
				"source": strptr("cloud"),
			},
			wantCode: "INVALID_SOURCE",
		},
		{
			name: "valid",
			values: map[string]*string{
				"name":   strptr("Morning Routine"),
				"source": strptr("ha"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AutomationSchema.Validate(tt.values, true)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected code %s, got nil", tt.wantCode)
			}
			if err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, err.Code)
			}
		})
	}
}

func TestAutomationSchema_PartialUpdate(t *testing.T) {
	// Absent fields are skipped on update, even required ones.
	if err := AutomationSchema.Validate(map[string]*string{}, false); err != nil {
		t.Fatalf("empty update should pass: %v", err)
	}
	// A provided required field must still not be blank.
	err := AutomationSchema.Validate(map[string]*string{"name": strptr("")}, false)
	if err == nil || err.Code != "MISSING_NAME" {
		t.Fatalf("expected MISSING_NAME, got %v", err)
	}
}

func TestConditionSchema(t *testing.T) {
	err := ConditionSchema.Validate(map[string]*string{"type": strptr("weather")}, true)
	if err == nil || err.Code != "INVALID_TYPE" {
		t.Fatalf("expected INVALID_TYPE, got %v", err)
	}
	err = ConditionSchema.Validate(map[string]*string{
		"type":     strptr("numeric"),
		"operator": strptr("gte"),
	}, true)
	if err == nil || err.Code != "INVALID_OPERATOR" {
		t.Fatalf("expected INVALID_OPERATOR, got %v", err)
	}
	err = ConditionSchema.Validate(map[string]*string{
		"type":             strptr("entity_state"),
		"logical_operator": strptr("xor"),
	}, true)
	if err == nil || err.Code != "INVALID_LOGICAL_OPERATOR" {
		t.Fatalf("expected INVALID_LOGICAL_OPERATOR, got %v", err)
	}
	if err := ConditionSchema.Validate(map[string]*string{
		"type":             strptr("numeric"),
		"operator":         strptr("greater"),
		"logical_operator": strptr("or"),
	}, true); err != nil {
		t.Fatalf("valid condition rejected: %v", err)
	}
}

func TestSchema_EmptyEnumValueRejected(t *testing.T) {
	// A field that is present but empty is out-of-enum; only an absent
	// field is skipped on partial update.
	err := ConditionSchema.Validate(map[string]*string{"logical_operator": strptr("")}, false)
	if err == nil || err.Code != "INVALID_LOGICAL_OPERATOR" {
		t.Fatalf("expected INVALID_LOGICAL_OPERATOR, got %v", err)
	}
	err = ConditionSchema.Validate(map[string]*string{"operator": strptr("")}, false)
	if err == nil || err.Code != "INVALID_OPERATOR" {
		t.Fatalf("expected INVALID_OPERATOR, got %v", err)
	}
	err = CameraSchema.Validate(map[string]*string{"protocol": strptr("")}, false)
	if err == nil || err.Code != "INVALID_PROTOCOL" {
		t.Fatalf("expected INVALID_PROTOCOL, got %v", err)
	}
	err = AutomationSchema.Validate(map[string]*string{"source": strptr("")}, false)
	if err == nil || err.Code != "INVALID_SOURCE" {
		t.Fatalf("expected INVALID_SOURCE, got %v", err)
	}
}

func TestSchema_LengthCountsCharacters(t *testing.T) {
	// 255 two-byte runes is 510 bytes but still within the name limit.
	name := strings.Repeat("ä", 255)
	if err := AutomationSchema.Validate(map[string]*string{"name": strptr(name)}, true); err != nil {
		t.Fatalf("255-character multibyte name rejected: %v", err)
	}
	err := AutomationSchema.Validate(map[string]*string{"name": strptr(name + "ä")}, true)
	if err == nil || err.Code != "NAME_TOO_LONG" {
		t.Fatalf("expected NAME_TOO_LONG at 256 characters, got %v", err)
	}
}

func TestConditionEntityID(t *testing.T) {
	if err := ConditionEntityID("numeric", ""); err == nil || err.Code != "MISSING_ENTITY_ID" {
		t.Fatalf("expected MISSING_ENTITY_ID, got %v", err)
	}
	if err := ConditionEntityID("entity_state", "  "); err == nil {
		t.Fatal("blank entity_id should fail for entity_state")
	}
	if err := ConditionEntityID("time", ""); err != nil {
		t.Fatalf("time condition needs no entity_id: %v", err)
	}
	if err := ConditionEntityID("numeric", "sensor.temp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTags(t *testing.T) {
	if err := Tags(nil); err != nil {
		t.Fatalf("nil tags should pass: %v", err)
	}
	if err := Tags(json.RawMessage(`null`)); err != nil {
		t.Fatalf("null tags should pass: %v", err)
	}
	if err := Tags(json.RawMessage(`["morning","lights"]`)); err != nil {
		t.Fatalf("string array should pass: %v", err)
	}
	if err := Tags(json.RawMessage(`"morning"`)); err == nil || err.Code != "INVALID_TAGS" {
		t.Fatalf("expected INVALID_TAGS, got %v", err)
	}
	if err := Tags(json.RawMessage(`[1,2]`)); err == nil || err.Code != "INVALID_TAGS" {
		t.Fatalf("expected INVALID_TAGS for numbers, got %v", err)
	}
}

func TestOneOf(t *testing.T) {
	if !OneOf("asc", SortOrders) {
		t.Error("asc should be a valid sort order")
	}
	if OneOf("sideways", SortOrders) {
		t.Error("sideways should not be a valid sort order")
	}
}
