package models

import (
	"time"
)

// User represents a chat account known to the planner. Users are created
// lazily on first authenticated interaction and never deleted here.
type User struct {
	ID               int64     `json:"id"`
	Timezone         string    `json:"timezone"`
	DefaultRemindMin int       `json:"default_remind_minutes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Location resolves the user's preferred timezone, falling back to UTC.
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
