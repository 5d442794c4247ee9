package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for persisted entities
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DateLayout is the ISO calendar-date layout used for log dates.
const DateLayout = "2006-01-02"

// DateOf returns the UTC calendar date of t as an ISO string.
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DateWindow returns the inclusive [today-(days-1), today] range as ISO strings.
func DateWindow(now time.Time, days int) (start, end string) {
	today := now.UTC()
	return today.AddDate(0, 0, -(days - 1)).Format(DateLayout), today.Format(DateLayout)
}
