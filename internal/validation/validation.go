package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Error is a field-level validation failure with a machine-readable code.
// Handlers map it to a 400 response body {error, code}.
type Error struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func newError(code, field, format string, args ...interface{}) *Error {
	return &Error{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Enumerated value sets shared by services and the export tree.
var (
	AutomationSources  = []string{"local", "ha"}
	TriggerTypes       = []string{"entity_state", "numeric", "time", "sunrise_sunset", "mqtt", "zwave"}
	ConditionTypes     = []string{"entity_state", "numeric", "time"}
	ConditionOperators = []string{"equals", "not_equals", "greater", "less", "greater_equal", "less_equal"}
	LogicalOperators   = []string{"and", "or"}
	ActionTypes        = []string{"service_call", "mqtt", "scene", "local_device"}
	SortFields         = []string{"name", "updated_at", "created_at"}
	SortOrders         = []string{"asc", "desc"}
)

// OneOf reports whether v is a member of allowed.
func OneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// FieldSpec is one declarative constraint set for an entity field.
type FieldSpec struct {
	Name         string
	Required     bool
	RequiredCode string
	MaxLen       int
	MaxLenCode   string
	Enum         []string
	EnumCode     string
}

// Schema is the ordered constraint list for an entity. The same schema is
// applied on create (all required fields must be present) and on partial
// update (only provided fields are checked).
type Schema []FieldSpec

// Validate checks the provided field values against the schema. A nil value
// means the field was absent from the request payload. A provided empty
// string on an enum field is out-of-enum, not "unset": partial updates may
// omit a field but cannot blank a constrained one. Length limits count
// characters, not bytes.
func (s Schema) Validate(values map[string]*string, create bool) *Error {
	for _, spec := range s {
		v, provided := values[spec.Name]
		if v == nil {
			provided = false
		}
		if !provided {
			if spec.Required && create {
				return newError(spec.RequiredCode, spec.Name, "%s is required", spec.Name)
			}
			continue
		}
		val := strings.TrimSpace(*v)
		if val == "" && spec.Required {
			return newError(spec.RequiredCode, spec.Name, "%s must not be empty", spec.Name)
		}
		if spec.MaxLen > 0 && utf8.RuneCountInString(val) > spec.MaxLen {
			return newError(spec.MaxLenCode, spec.Name, "%s exceeds %d characters", spec.Name, spec.MaxLen)
		}
		if len(spec.Enum) > 0 && !OneOf(val, spec.Enum) {
			return newError(spec.EnumCode, spec.Name,
				"%s must be one of: %s", spec.Name, strings.Join(spec.Enum, ", "))
		}
	}
	return nil
}

// Per-entity schemas. Every create/update path goes through these instead of
// repeating inline field checks per handler.
var (
	AutomationSchema = Schema{
		{Name: "name", Required: true, RequiredCode: "MISSING_NAME", MaxLen: 255, MaxLenCode: "NAME_TOO_LONG"},
		{Name: "description", MaxLen: 1000, MaxLenCode: "DESCRIPTION_TOO_LONG"},
		{Name: "source", Enum: AutomationSources, EnumCode: "INVALID_SOURCE"},
	}

	TriggerSchema = Schema{
		{Name: "type", Required: true, RequiredCode: "INVALID_TYPE", Enum: TriggerTypes, EnumCode: "INVALID_TYPE"},
	}

	ConditionSchema = Schema{
		{Name: "type", Required: true, RequiredCode: "INVALID_TYPE", Enum: ConditionTypes, EnumCode: "INVALID_TYPE"},
		{Name: "operator", Enum: ConditionOperators, EnumCode: "INVALID_OPERATOR"},
		{Name: "logical_operator", Enum: LogicalOperators, EnumCode: "INVALID_LOGICAL_OPERATOR"},
	}

	ActionSchema = Schema{
		{Name: "type", Required: true, RequiredCode: "INVALID_TYPE", Enum: ActionTypes, EnumCode: "INVALID_TYPE"},
	}

	CameraSchema = Schema{
		{Name: "name", Required: true, RequiredCode: "MISSING_NAME", MaxLen: 255, MaxLenCode: "NAME_TOO_LONG"},
		{Name: "stream_url", MaxLen: 500, MaxLenCode: "STREAM_URL_TOO_LONG"},
		{Name: "protocol", Enum: []string{"rtsp", "mjpeg", "webrtc"}, EnumCode: "INVALID_PROTOCOL"},
	}
)

// ConditionEntityID enforces the cross-field rule: entity_id is required
// when the effective condition type is entity_state or numeric.
func ConditionEntityID(condType, entityID string) *Error {
	if (condType == "entity_state" || condType == "numeric") && strings.TrimSpace(entityID) == "" {
		return newError("MISSING_ENTITY_ID", "entity_id",
			"entity_id is required for %s conditions", condType)
	}
	return nil
}

// Tags verifies a raw JSON value is an array of strings.
func Tags(raw json.RawMessage) *Error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return newError("INVALID_TAGS", "tags", "tags must be an array of strings")
	}
	return nil
}
