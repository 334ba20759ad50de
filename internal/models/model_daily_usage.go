package models

import "time"

// DailyUsage is the per-user per-day counter gating the metered photo
// feature. Day is the UTC calendar date in YYYY-MM-DD form; (user_id, day) is
// unique and the row is only ever mutated by the usage counter's atomic
// check-and-increment.
type DailyUsage struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:unique_user_id_day,priority:1" json:"user_id"`
	Day       string    `gorm:"column:day;type:varchar(10);not null;uniqueIndex:unique_user_id_day,priority:2" json:"day"`
	Count     int       `gorm:"column:count;not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DailyUsage) TableName() string { return "daily_usage" }

// UsageDay formats t as the canonical day key.
func UsageDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
