// models/round.go
package models

// Round is one player's attempt at one day's target. It owns the mutable
// budget counters; every question and guess goes through the rules engine
// and commits back here under a row lock. Terminal once IsGameOver is set —
// after that only reads happen.
type Round struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index:idx_round_user_day,unique;not null" json:"user_id"`
	DayID  string `gorm:"index:idx_round_user_day,unique;not null" json:"day_id"`

	Day GameDay `gorm:"foreignKey:DayID" json:"-"`

	RemainingQuestions int `json:"remaining_questions"`
	RemainingGuesses   int `json:"remaining_guesses"`
	QuestionsAsked     int `json:"questions_asked" gorm:"default:0"`
	GuessesMade        int `json:"guesses_made" gorm:"default:0"`

	IsGameOver bool `json:"is_game_over" gorm:"default:false"`
	Won        bool `json:"won" gorm:"default:false"`
	Points     int  `json:"points" gorm:"default:0"` // set once, at the winning transition

	Timestamps
}
