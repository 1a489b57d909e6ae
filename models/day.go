// models/day.go
package models

// GameDay binds one calendar date to the randomly drawn target for one
// variant. Created lazily on first access (or ahead of time by the
// scheduler) and never mutated afterwards. The unique (variant, date) index
// is what makes concurrent first-access creation safe: the losing creator
// re-reads the winner's row.
type GameDay struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Variant string `gorm:"index:idx_day_variant_date,unique;not null" json:"variant"`
	Date    string `gorm:"index:idx_day_variant_date,unique;not null" json:"date"` // YYYY-MM-DD

	EntityID string       `gorm:"not null" json:"entity_id"`
	Entity   TargetEntity `gorm:"foreignKey:EntityID" json:"entity,omitempty"`

	Timestamps
}

// DateLayout is the storage format for GameDay.Date.
const DateLayout = "2006-01-02"
