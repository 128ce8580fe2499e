// Package domain contains core types for operator authentication.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Operator is an account allowed to read analytics and triage requests.
type Operator struct {
	ID           snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Username     string       `gorm:"size:100;not null;uniqueIndex"`
	Email        string       `gorm:"size:120"`
	PasswordHash string       `gorm:"type:text;not null"`
	IsActive     bool         `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName sets the database table name.
func (Operator) TableName() string { return "operators" }
