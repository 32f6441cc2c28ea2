package models

import "time"

// DownloadLog is an append-only audit entry written whenever a download link
// is minted.
type DownloadLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	FilmID       uint      `gorm:"not null;index" json:"film_id"`
	Quality      string    `gorm:"type:varchar(16);not null" json:"quality"`
	DownloadedAt time.Time `gorm:"type:timestamp;not null" json:"downloaded_at"`
}
