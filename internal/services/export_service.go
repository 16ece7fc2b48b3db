package services

import (
	"encoding/json"
	"fmt"

	"homedash/internal/models"

	"gopkg.in/yaml.v3"
)

// The export below renders a Home-Assistant-style YAML block for display in
// the dashboard. It is one-way: the text is never parsed back, and the
// external instance remains the source of truth for executable config.

type haExport struct {
	Alias       string                   `yaml:"alias"`
	Description string                   `yaml:"description,omitempty"`
	Trigger     []map[string]interface{} `yaml:"trigger"`
	Condition   []map[string]interface{} `yaml:"condition,omitempty"`
	Action      []map[string]interface{} `yaml:"action"`
	Mode        string                   `yaml:"mode"`
}

// ExportYAML serializes an automation graph through a typed intermediate
// tree, so odd field combinations cannot produce structurally broken text.
func ExportYAML(automation *models.Automation) (string, error) {
	if automation == nil {
		return "", fmt.Errorf("automation required")
	}

	export := haExport{
		Alias:   automation.Name,
		Trigger: make([]map[string]interface{}, 0, len(automation.Triggers)),
		Action:  make([]map[string]interface{}, 0, len(automation.Actions)),
		Mode:    "single",
	}
	if automation.Description != nil {
		export.Description = *automation.Description
	}

	for i := range automation.Triggers {
		export.Trigger = append(export.Trigger, triggerNode(&automation.Triggers[i]))
	}
	for i := range automation.Conditions {
		export.Condition = append(export.Condition, conditionNode(&automation.Conditions[i]))
	}
	for i := range automation.Actions {
		export.Action = append(export.Action, actionNode(&automation.Actions[i]))
	}

	out, err := yaml.Marshal(&export)
	if err != nil {
		return "", fmt.Errorf("marshal automation yaml: %w", err)
	}
	return string(out), nil
}

func triggerNode(t *models.Trigger) map[string]interface{} {
	node := map[string]interface{}{}
	switch t.Type {
	case "entity_state":
		node["platform"] = "state"
		putNonEmpty(node, "entity_id", t.EntityID)
		putNonEmpty(node, "attribute", t.Attribute)
		putNonEmpty(node, "to", t.State)
	case "numeric":
		node["platform"] = "numeric_state"
		putNonEmpty(node, "entity_id", t.EntityID)
		putNonEmpty(node, "attribute", t.Attribute)
		putNonEmpty(node, "above", t.State)
	case "time":
		node["platform"] = "time"
		putNonEmpty(node, "at", t.Time)
	case "sunrise_sunset":
		node["platform"] = "sun"
		event := t.State
		if event == "" {
			event = "sunrise"
		}
		node["event"] = event
		putNonEmpty(node, "offset", t.Offset)
	case "mqtt":
		node["platform"] = "mqtt"
		putNonEmpty(node, "topic", t.Topic)
		putNonEmpty(node, "payload", t.Payload)
	default:
		// zwave and anything future-typed export as a generic event trigger
		node["platform"] = "event"
		node["event_type"] = t.Type
		putNonEmpty(node, "entity_id", t.EntityID)
	}
	return node
}

func conditionNode(c *models.Condition) map[string]interface{} {
	node := map[string]interface{}{}
	switch c.Type {
	case "numeric":
		node["condition"] = "numeric_state"
		putNonEmpty(node, "entity_id", c.EntityID)
		putNonEmpty(node, "attribute", c.Attribute)
		switch c.Operator {
		case "greater", "greater_equal":
			putNonEmpty(node, "above", c.Value)
		case "less", "less_equal":
			putNonEmpty(node, "below", c.Value)
		default:
			putNonEmpty(node, "value", c.Value)
		}
	case "time":
		node["condition"] = "time"
		putNonEmpty(node, "after", c.Value)
	default:
		node["condition"] = "state"
		putNonEmpty(node, "entity_id", c.EntityID)
		putNonEmpty(node, "attribute", c.Attribute)
		putNonEmpty(node, "state", c.Value)
	}
	return node
}

func actionNode(a *models.Action) map[string]interface{} {
	node := map[string]interface{}{}
	switch a.Type {
	case "mqtt":
		node["service"] = "mqtt.publish"
		data := map[string]interface{}{}
		if a.Topic != "" {
			data["topic"] = a.Topic
		}
		if a.Payload != "" {
			data["payload"] = a.Payload
		}
		if len(data) > 0 {
			node["data"] = data
		}
	case "scene":
		node["service"] = "scene.turn_on"
		if a.SceneID != "" {
			node["target"] = map[string]interface{}{"entity_id": a.SceneID}
		}
	case "local_device":
		service := a.Service
		if service == "" {
			service = "homeassistant.toggle"
		}
		node["service"] = service
		if a.EntityID != "" {
			node["target"] = map[string]interface{}{"entity_id": a.EntityID}
		}
	default: // service_call
		putNonEmpty(node, "service", a.Service)
		if a.EntityID != "" {
			node["target"] = map[string]interface{}{"entity_id": a.EntityID}
		}
		if len(a.Data) > 0 {
			var data interface{}
			if err := json.Unmarshal(a.Data, &data); err == nil {
				node["data"] = data
			}
		}
	}
	return node
}

func putNonEmpty(node map[string]interface{}, key, value string) {
	if value != "" {
		node[key] = value
	}
}
