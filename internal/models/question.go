package models

import "time"

// Question is an entry of the question library.
type Question struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	Language  string    `gorm:"size:32" json:"language"`
	MaxScore  float64   `gorm:"not null;default:10" json:"max_score"`
	TimeLimit int       `gorm:"not null;default:0" json:"time_limit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
