// game/variant.go
package game

// Variant identifies one of the daily game flavors. Each flavor shares the
// same engine and differs only in its descriptor below.
type Variant string

const (
	VariantCountry     Variant = "countrydle"
	VariantCounty      Variant = "powiatdle"
	VariantVoivodeship Variant = "wojewodztwodle"
	VariantUSState     Variant = "usstatedle"
)

// Descriptor bundles everything variant-specific: budgets, scoring weights,
// vector collection names, the payload field used to scope searches to one
// target, and the noun the prompts use to talk about the hidden entity.
type Descriptor struct {
	Variant Variant
	Noun    string // "country", "county" — used in prompt text
	Config  Config
	Scoring Scoring

	// Vector index wiring
	Collection         string // reference-text fragments
	QuestionCollection string // answered questions, indexed back for reuse
	ScopeField         string // payload key holding the target entity id
}

func (d Descriptor) Rules() Rules {
	return NewRules(d.Config)
}

var registry = map[Variant]Descriptor{
	VariantCountry: {
		Variant:            VariantCountry,
		Noun:               "country",
		Config:             Config{MaxQuestions: 10, MaxGuesses: 3},
		Scoring:            Scoring{QuestionWeight: 100, GuessWeight: 100, Quadratic: true},
		Collection:         "countries",
		QuestionCollection: "countries_questions",
		ScopeField:         "country_id",
	},
	VariantCounty: {
		Variant:            VariantCounty,
		Noun:               "county",
		Config:             Config{MaxQuestions: 15, MaxGuesses: 3},
		Scoring:            Scoring{QuestionWeight: 100, GuessWeight: 100, Quadratic: true},
		Collection:         "powiaty",
		QuestionCollection: "powiaty_questions",
		ScopeField:         "powiat_id",
	},
	VariantVoivodeship: {
		Variant:            VariantVoivodeship,
		Noun:               "voivodeship",
		Config:             Config{MaxQuestions: 5, MaxGuesses: 2},
		Scoring:            Scoring{QuestionWeight: 100, GuessWeight: 100, Quadratic: false},
		Collection:         "wojewodztwa",
		QuestionCollection: "wojewodztwa_questions",
		ScopeField:         "wojewodztwo_id",
	},
	VariantUSState: {
		Variant:            VariantUSState,
		Noun:               "US state",
		Config:             Config{MaxQuestions: 10, MaxGuesses: 3},
		Scoring:            Scoring{QuestionWeight: 100, GuessWeight: 100, Quadratic: true},
		Collection:         "us_states",
		QuestionCollection: "us_states_questions",
		ScopeField:         "us_state_id",
	},
}

// Lookup resolves a variant slug (e.g. from a URL path) to its descriptor.
func Lookup(v Variant) (Descriptor, bool) {
	d, ok := registry[v]
	return d, ok
}

// All returns every registered descriptor in a stable order.
func All() []Descriptor {
	return []Descriptor{
		registry[VariantCountry],
		registry[VariantCounty],
		registry[VariantVoivodeship],
		registry[VariantUSState],
	}
}
