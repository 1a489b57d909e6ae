// models/question.go
package models

// Question is one append-only log entry per asked question. Invalid
// questions keep the raw input and the judge's explanation but no answer or
// context; they still consumed budget. Answer stays nil for the judge's
// deliberate "cannot determine" outcome — nil is a real value here, never
// coerced to false.
type Question struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index:idx_question_user_day;not null" json:"user_id"`
	DayID  string `gorm:"index:idx_question_user_day;not null" json:"day_id"`

	OriginalQuestion string  `gorm:"type:text;not null" json:"original_question"`
	Question         *string `gorm:"type:text" json:"question,omitempty"` // normalized form, nil if invalid
	Valid            bool    `json:"valid"`

	Answer      *bool   `json:"answer"` // true / false / nil (unknown)
	Explanation *string `gorm:"type:text" json:"explanation,omitempty"`
	Context     *string `gorm:"type:text" json:"-"` // grounding fragments used, never shown to players

	Timestamps
}
