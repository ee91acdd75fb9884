package model

import "time"

// Exception is a persisted record of an engine fault, captured alongside the
// local log so failures survive process restarts.
type Exception struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Service   string    `gorm:"size:60" json:"service"`
	Module    string    `gorm:"size:60" json:"module"`
	Method    string    `gorm:"size:120" json:"method"`
	Message   string    `json:"message"`
	Stack     string    `json:"stack,omitempty"`
	Level     string    `gorm:"size:20" json:"level"`
	Context   string    `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Exception) TableName() string {
	return "exceptions"
}
