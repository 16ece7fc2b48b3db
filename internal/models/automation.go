package models

import (
	"time"

	"gorm.io/datatypes"
)

// Automation is a named rule record mirroring a Home-Assistant-style
// automation, stored and edited independently. Execution is external;
// this server only manages the definition.
type Automation struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description *string        `gorm:"size:1000" json:"description"`
	Enabled     bool           `gorm:"not null;default:true;index" json:"enabled"`
	Source      string         `gorm:"size:10;not null;default:'local';index" json:"source"` // local, ha
	Tags        datatypes.JSON `json:"tags"`                                                 // JSON array of strings
	LastRun     *time.Time     `json:"last_run"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Triggers   []Trigger   `gorm:"foreignKey:AutomationID" json:"triggers,omitempty"`
	Conditions []Condition `gorm:"foreignKey:AutomationID" json:"conditions,omitempty"`
	Actions    []Action    `gorm:"foreignKey:AutomationID" json:"actions,omitempty"`
}

// Trigger is an event specification that starts rule evaluation.
// Fields beyond Type are optional and interpreted by the external runner.
type Trigger struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AutomationID uint      `gorm:"not null;index" json:"automation_id"`
	Type         string    `gorm:"size:30;not null" json:"type"` // entity_state, numeric, time, sunrise_sunset, mqtt, zwave
	EntityID     string    `gorm:"size:255" json:"entity_id"`
	Attribute    string    `gorm:"size:100" json:"attribute"`
	State        string    `gorm:"size:255" json:"state"`
	Time         string    `gorm:"size:20" json:"time"`
	Offset       string    `gorm:"size:20" json:"offset"`
	Topic        string    `gorm:"size:255" json:"topic"`
	Payload      string    `gorm:"type:text" json:"payload"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Condition gates whether actions run, combined via LogicalOperator.
type Condition struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AutomationID    uint      `gorm:"not null;index" json:"automation_id"`
	Type            string    `gorm:"size:30;not null" json:"type"`                             // entity_state, numeric, time
	EntityID        string    `gorm:"size:255" json:"entity_id"`                                // required for entity_state/numeric
	Attribute       string    `gorm:"size:100" json:"attribute"`
	Operator        string    `gorm:"size:20" json:"operator"`                                  // equals, not_equals, greater, less, greater_equal, less_equal
	Value           string    `gorm:"size:500" json:"value"`
	LogicalOperator string    `gorm:"size:5;not null;default:'and'" json:"logical_operator"`    // and, or
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Action is an effect specification performed when the automation fires.
type Action struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AutomationID uint           `gorm:"not null;index" json:"automation_id"`
	Type         string         `gorm:"size:30;not null" json:"type"` // service_call, mqtt, scene, local_device
	Service      string         `gorm:"size:100" json:"service"`
	EntityID     string         `gorm:"size:255" json:"entity_id"`
	Data         datatypes.JSON `json:"data"`
	Topic        string         `gorm:"size:255" json:"topic"`
	Payload      string         `gorm:"type:text" json:"payload"`
	SceneID      string         `gorm:"size:255" json:"scene_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
