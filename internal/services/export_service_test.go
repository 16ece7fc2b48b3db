package services

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"homedash/internal/models"
)

func TestExportYAML_FullAutomation(t *testing.T) {
	desc := "wake up the house"
	automation := &models.Automation{
		Name:        "Morning Routine",
		Description: &desc,
		Triggers: []models.Trigger{
			{Type: "time", Time: "07:00"},
			{Type: "entity_state", EntityID: "binary_sensor.motion", State: "on"},
		},
		Conditions: []models.Condition{
			{Type: "numeric", EntityID: "sensor.temp", Operator: "greater", Value: "18"},
		},
		Actions: []models.Action{
			{Type: "service_call", Service: "light.turn_on", EntityID: "light.kitchen", Data: []byte(`{"brightness":200}`)},
		},
	}

	out, err := ExportYAML(automation)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// The output must be parseable YAML, not just text that looks like it.
	var parsed map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("export is not valid YAML: %v\n%s", err, out)
	}

	if parsed["alias"] != "Morning Routine" {
		t.Errorf("alias mismatch: %v", parsed["alias"])
	}
	if parsed["description"] != "wake up the house" {
		t.Errorf("description mismatch: %v", parsed["description"])
	}
	if parsed["mode"] != "single" {
		t.Errorf("mode mismatch: %v", parsed["mode"])
	}

	triggers, ok := parsed["trigger"].([]interface{})
	if !ok || len(triggers) != 2 {
		t.Fatalf("expected 2 triggers, got %v", parsed["trigger"])
	}
	first := triggers[0].(map[string]interface{})
	if first["platform"] != "time" || first["at"] != "07:00" {
		t.Errorf("time trigger mismatch: %v", first)
	}
	second := triggers[1].(map[string]interface{})
	if second["platform"] != "state" || second["to"] != "on" {
		t.Errorf("state trigger mismatch: %v", second)
	}

	conditions := parsed["condition"].([]interface{})
	cond := conditions[0].(map[string]interface{})
	if cond["condition"] != "numeric_state" || cond["above"] != "18" {
		t.Errorf("numeric condition mismatch: %v", cond)
	}

	actions := parsed["action"].([]interface{})
	act := actions[0].(map[string]interface{})
	if act["service"] != "light.turn_on" {
		t.Errorf("action service mismatch: %v", act)
	}
	data, ok := act["data"].(map[string]interface{})
	if !ok || data["brightness"] != 200 {
		t.Errorf("action data mismatch: %v", act["data"])
	}
}

func TestExportYAML_TriggerVariants(t *testing.T) {
	automation := &models.Automation{
		Name: "Variants",
		Triggers: []models.Trigger{
			{Type: "sunrise_sunset", Offset: "-00:30"},
			{Type: "mqtt", Topic: "home/door", Payload: "open"},
			{Type: "zwave", EntityID: "zwave.lock"},
		},
	}

	out, err := ExportYAML(automation)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var parsed struct {
		Trigger []map[string]interface{} `yaml:"trigger"`
	}
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}

	sun := parsed.Trigger[0]
	if sun["platform"] != "sun" || sun["event"] != "sunrise" || sun["offset"] != "-00:30" {
		t.Errorf("sun trigger mismatch: %v", sun)
	}
	mqtt := parsed.Trigger[1]
	if mqtt["platform"] != "mqtt" || mqtt["topic"] != "home/door" {
		t.Errorf("mqtt trigger mismatch: %v", mqtt)
	}
	zwave := parsed.Trigger[2]
	if zwave["platform"] != "event" || zwave["event_type"] != "zwave" {
		t.Errorf("zwave fallback mismatch: %v", zwave)
	}
}

func TestExportYAML_ActionVariants(t *testing.T) {
	automation := &models.Automation{
		Name: "Actions",
		Actions: []models.Action{
			{Type: "mqtt", Topic: "home/alarm", Payload: "armed"},
			{Type: "scene", SceneID: "scene.movie_night"},
			{Type: "local_device", EntityID: "switch.fan"},
		},
	}

	out, err := ExportYAML(automation)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var parsed struct {
		Action []map[string]interface{} `yaml:"action"`
	}
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}

	if parsed.Action[0]["service"] != "mqtt.publish" {
		t.Errorf("mqtt action mismatch: %v", parsed.Action[0])
	}
	if parsed.Action[1]["service"] != "scene.turn_on" {
		t.Errorf("scene action mismatch: %v", parsed.Action[1])
	}
	// local_device with no explicit service falls back to a toggle.
	if parsed.Action[2]["service"] != "homeassistant.toggle" {
		t.Errorf("local_device fallback mismatch: %v", parsed.Action[2])
	}
}

func TestExportYAML_SpecialCharacters(t *testing.T) {
	// Names with YAML-significant characters must come back intact after a
	// parse round trip; string concatenation would break here.
	automation := &models.Automation{
		Name: `Water: the "garden" #daily`,
	}
	out, err := ExportYAML(automation)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var parsed map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, out)
	}
	if parsed["alias"] != `Water: the "garden" #daily` {
		t.Errorf("alias corrupted: %v", parsed["alias"])
	}
	if strings.Contains(out, "null") {
		t.Errorf("export leaks null nodes:\n%s", out)
	}
}

func TestExportYAML_NilAutomation(t *testing.T) {
	if _, err := ExportYAML(nil); err == nil {
		t.Fatal("expected error for nil automation")
	}
}
