// models/entity.go
package models

// TargetEntity is one guessable thing: a country, a Polish county or
// voivodeship, or a US state, discriminated by Variant. One shared table
// instead of four parallel ones — the engine only ever needs the id, the
// display names and the slug.
type TargetEntity struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Variant string `gorm:"index:idx_entity_variant_slug,unique;not null" json:"variant"`
	Slug    string `gorm:"index:idx_entity_variant_slug,unique;not null" json:"slug"` // ascii-folded, e.g. "lodzkie"

	Name         string `gorm:"not null" json:"name"`                 // display name, e.g. "Łódzkie"
	OfficialName string `json:"official_name,omitempty"`              // e.g. "Republic of Poland"

	Timestamps
}

// Fragment is one chunk of an entity's reference text. The text lives here;
// the vector index only stores the embedding plus a payload pointing back at
// the entity and carrying a copy of the text for grounding prompts.
type Fragment struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	EntityID string `gorm:"index;not null" json:"entity_id"`
	Position int    `json:"position"` // order within the source document
	Text     string `gorm:"type:text;not null" json:"text"`

	Timestamps
}
