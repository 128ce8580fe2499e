package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event is an immutable analytics fact. Empty optional fields mean absent.
type Event struct {
	ID             snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	EventType      string            `gorm:"size:50;not null;index:idx_events_type_ts;index:idx_events_ip_type_ts" json:"event_type"`
	PageURL        string            `gorm:"size:500" json:"page_url,omitempty"`
	UserID         string            `gorm:"size:100;index" json:"user_id,omitempty"`
	SessionID      string            `gorm:"size:100;index" json:"session_id,omitempty"`
	IPAddress      string            `gorm:"size:45;index:idx_events_ip_type_ts" json:"ip_address,omitempty"`
	UserAgent      string            `gorm:"type:text" json:"user_agent,omitempty"`
	Referrer       string            `gorm:"size:500" json:"referrer,omitempty"`
	Country        string            `gorm:"size:100" json:"country,omitempty"`
	DeviceType     string            `gorm:"size:20" json:"device_type,omitempty"`
	Browser        string            `gorm:"size:50" json:"browser,omitempty"`
	OS             string            `gorm:"column:os;size:50" json:"os,omitempty"`
	Timestamp      time.Time         `gorm:"not null;index:idx_events_type_ts;index:idx_events_ip_type_ts" json:"timestamp"`
	AdditionalData datatypes.JSONMap `json:"additional_data,omitempty"`
}

func (Event) TableName() string { return "events" }

// Well-known event types.
const (
	TypePageView          = "page_view"
	TypeFormSubmit        = "form_submit"
	TypeContactFormSubmit = "contact_form_submit"
	TypeLoginFailed       = "auth_login_failed"
)
