package models

import "time"

// ShortURL maps a short code to its target. CreatedBy is nil for links
// shortened anonymously.
type ShortURL struct {
	ID        int64     `db:"id"`
	Short     string    `db:"short"`
	Long      string    `db:"long"`
	CreatedBy *int64    `db:"created_by"`
	Clicks    int64     `db:"clicks"`
	CreatedAt time.Time `db:"created_at"`
}
