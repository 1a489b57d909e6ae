// models/guess.go
package models

// Guess is one append-only log entry per guess attempt. EntityID is the
// resolved guessable entity when the client sent one (the primary path);
// correctness is a plain id equality check against the day's target.
type Guess struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index:idx_guess_user_day;not null" json:"user_id"`
	DayID  string `gorm:"index:idx_guess_user_day;not null" json:"day_id"`

	Guess    string  `gorm:"not null" json:"guess"`
	EntityID *string `json:"entity_id,omitempty"`
	Correct  bool    `json:"correct"`

	Timestamps
}
