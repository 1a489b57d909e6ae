// game/scoring.go
package game

// Scoring converts a won round's leftover budget into points. Both formulas
// reward efficient play: fewer questions and fewer guesses spent mean more
// points. The quadratic guess bonus heavily favors guessing correctly early;
// the linear form is used for the easier, smaller-budget variant.
type Scoring struct {
	QuestionWeight int
	GuessWeight    int
	Quadratic      bool
}

// Points computes the score awarded for a win with the given budget left.
// A lost round always scores 0 and must not go through this function.
func (sc Scoring) Points(remainingQuestions, remainingGuesses int) int {
	questionPoints := remainingQuestions * sc.QuestionWeight

	guessBonus := remainingGuesses + 1
	if sc.Quadratic {
		guessBonus = guessBonus*guessBonus + 1
	}

	return questionPoints + sc.GuessWeight*guessBonus
}

// NextStreak applies the streak rule at a terminal transition: a win extends
// the streak by exactly one, any completed loss resets it to zero.
func NextStreak(current int, won bool) int {
	if won {
		return current + 1
	}
	return 0
}
