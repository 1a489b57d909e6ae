// game/rules.go
package game

import "fmt"

// Config holds the immutable per-variant budgets.
type Config struct {
	MaxQuestions int
	MaxGuesses   int
}

// State is a value snapshot of one player's progress on one day's round.
// It is derived from persisted counters and never stored directly.
type State struct {
	QuestionsUsed int
	GuessesUsed   int
	IsWon         bool
	IsLost        bool
}

// IsGameOver reports whether the round reached a terminal state.
// IsWon and IsLost are never both true.
func (s State) IsGameOver() bool {
	return s.IsWon || s.IsLost
}

// Derive maps persisted remaining-budget counters onto a State. The stored
// representation is "remaining"; all rule decisions are made on "used"
// counters, which is the canonical representation.
func Derive(cfg Config, remainingQuestions, remainingGuesses int, won, gameOver bool) State {
	return State{
		QuestionsUsed: cfg.MaxQuestions - remainingQuestions,
		GuessesUsed:   cfg.MaxGuesses - remainingGuesses,
		IsWon:         won,
		IsLost:        gameOver && !won,
	}
}

// Rules is the progression engine for one game variant. All methods are pure:
// they never touch persistence and never mutate their receiver or arguments.
type Rules struct {
	Config Config
}

func NewRules(cfg Config) Rules {
	return Rules{Config: cfg}
}

// CanAskQuestion reports whether another question is allowed.
func (r Rules) CanAskQuestion(s State) bool {
	return !s.IsGameOver() && s.QuestionsUsed < r.Config.MaxQuestions
}

// CanMakeGuess reports whether another guess is allowed.
func (r Rules) CanMakeGuess(s State) bool {
	return !s.IsGameOver() && s.GuessesUsed < r.Config.MaxGuesses
}

// ProcessQuestion consumes one question from the budget. Asking a question
// never ends the round. The caller must have checked CanAskQuestion; the
// bound is re-validated here because a question cannot terminate the game
// and an overrun would otherwise go unnoticed.
func (r Rules) ProcessQuestion(s State) (State, error) {
	if s.QuestionsUsed >= r.Config.MaxQuestions {
		return s, fmt.Errorf("%w: %d of %d questions already used",
			ErrIllegalState, s.QuestionsUsed, r.Config.MaxQuestions)
	}
	s.QuestionsUsed++
	return s, nil
}

// ProcessGuess consumes one guess and resolves the round's fate. A correct
// guess wins immediately, even with guesses to spare; an incorrect guess
// only loses the round when it was the last one in the budget. The win
// check runs first so a correct final guess is a win, not a loss.
func (r Rules) ProcessGuess(s State, isCorrect bool) (State, error) {
	if s.GuessesUsed >= r.Config.MaxGuesses {
		return s, fmt.Errorf("%w: %d of %d guesses already used",
			ErrIllegalState, s.GuessesUsed, r.Config.MaxGuesses)
	}
	if s.IsGameOver() {
		return s, fmt.Errorf("%w: round already finished", ErrIllegalState)
	}

	s.GuessesUsed++
	if isCorrect {
		s.IsWon = true
	} else if s.GuessesUsed == r.Config.MaxGuesses {
		s.IsLost = true
	}
	return s, nil
}
