package models

import (
	"time"

	"gorm.io/datatypes"
)

// Camera is a registered video source shown on the dashboard.
// Live view is negotiated over WebRTC; StreamKey gates signaling requests.
type Camera struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Location     string         `gorm:"size:255" json:"location"`
	StreamURL    string         `gorm:"size:500" json:"stream_url"`
	Protocol     string         `gorm:"size:20;default:'rtsp'" json:"protocol"` // rtsp, mjpeg, webrtc
	Enabled      bool           `gorm:"not null;default:true" json:"enabled"`
	StreamKey    string         `gorm:"size:36;index" json:"stream_key"`
	Capabilities datatypes.JSON `json:"capabilities"`
	LastSeen     *time.Time     `json:"last_seen"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// EnergyReading is a single meter sample used for billing summaries.
type EnergyReading struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Meter      string    `gorm:"size:100;not null;index:idx_energy_meter_recorded,priority:1" json:"meter"`
	KWh        float64   `gorm:"column:kwh;not null" json:"kwh"`
	RecordedAt time.Time `gorm:"not null;index:idx_energy_meter_recorded,priority:2" json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}
