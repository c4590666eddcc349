package models

import "time"

// DailyProgress is the per-user state of the current day
type DailyProgress struct {
	UserID     int64     `json:"user_id" db:"user_id"`
	VerbOfDay  string    `json:"verb_of_day" db:"verb"`
	DayKey     string    `json:"day_key" db:"day_key"` // YYYY-MM-DD in the bot timezone
	TensesSent []string  `json:"tenses_sent" db:"-"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// HasSent reports whether the tense was already delivered today
func (p *DailyProgress) HasSent(tense string) bool {
	for _, t := range p.TensesSent {
		if t == tense {
			return true
		}
	}
	return false
}
