// services/round_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"daily-guess-system/game"
	"daily-guess-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoundService owns daily targets, per-player rounds and the score ledger.
type RoundService struct {
	DB *gorm.DB
}

func NewRoundService(db *gorm.DB) *RoundService {
	return &RoundService{DB: db}
}

// Today returns the current date key. The whole service runs on UTC days;
// every variant rolls over at the same moment.
func (s *RoundService) Today() string {
	return time.Now().UTC().Format(models.DateLayout)
}

// EnsureUser returns the local mirror row for an external user id, creating
// a stub if the sync worker has not delivered the profile yet (idempotent).
func (s *RoundService) EnsureUser(externalID string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("external_id = ?", externalID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		ID:         uuid.NewString(),
		ExternalID: externalID,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		// Lost a creation race — the row exists now.
		if ferr := s.DB.Where("external_id = ?", externalID).First(&user).Error; ferr == nil {
			return &user, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetOrCreateDay returns the day's target for a variant, drawing a random
// entity on first access. Concurrent first access is resolved by the unique
// (variant, date) index: the losing creator re-reads the winner's row.
func (s *RoundService) GetOrCreateDay(desc game.Descriptor, date string) (*models.GameDay, error) {
	var day models.GameDay
	err := s.DB.Preload("Entity").
		Where("variant = ? AND date = ?", string(desc.Variant), date).
		First(&day).Error
	if err == nil {
		return &day, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var entity models.TargetEntity
	if err := s.DB.Where("variant = ?", string(desc.Variant)).
		Order("RANDOM()").Limit(1).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no %s entities in database", desc.Variant)
		}
		return nil, err
	}

	day = models.GameDay{
		ID:       uuid.NewString(),
		Variant:  string(desc.Variant),
		Date:     date,
		EntityID: entity.ID,
	}
	if err := s.DB.Create(&day).Error; err != nil {
		// Unique (variant, date) violation from a concurrent creator.
		var existing models.GameDay
		if ferr := s.DB.Preload("Entity").
			Where("variant = ? AND date = ?", string(desc.Variant), date).
			First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}

	day.Entity = entity
	log.Printf("🎯 New %s target for %s: %s", desc.Variant, date, entity.Name)
	return &day, nil
}

// GetOrCreateRound returns the player's round for the day, defaulting the
// counters from the variant config on first interaction.
func (s *RoundService) GetOrCreateRound(user *models.User, day *models.GameDay, desc game.Descriptor) (*models.Round, error) {
	var round models.Round
	err := s.DB.Where("user_id = ? AND day_id = ?", user.ID, day.ID).First(&round).Error
	if err == nil {
		return &round, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	round = models.Round{
		ID:                 uuid.NewString(),
		UserID:             user.ID,
		DayID:              day.ID,
		RemainingQuestions: desc.Config.MaxQuestions,
		RemainingGuesses:   desc.Config.MaxGuesses,
	}
	if err := s.DB.Create(&round).Error; err != nil {
		var existing models.Round
		if ferr := s.DB.Where("user_id = ? AND day_id = ?", user.ID, day.ID).
			First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &round, nil
}

// ApplyResult books a finished round into the user's lifetime ledger:
// points accumulate, the streak extends on a win and resets on a loss.
// Runs inside the same transaction as the terminal round transition, so it
// can never double-credit — the transition itself is guarded by IsGameOver
// under a row lock.
func (s *RoundService) ApplyResult(tx *gorm.DB, userID string, won bool, points int) error {
	var score models.UserScore
	err := tx.Where("user_id = ?", userID).First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		score = models.UserScore{
			ID:     uuid.NewString(),
			UserID: userID,
		}
		if err := tx.Create(&score).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	score.Streak = game.NextStreak(score.Streak, won)
	score.Points += int64(points)

	return tx.Save(&score).Error
}

// RoundView is the gameplay payload returned on every state read: the
// derived snapshot plus the day's question and guess logs. Entity is only
// populated once the round is over.
type RoundView struct {
	Date      string               `json:"date"`
	State     *models.Round        `json:"state"`
	Questions []models.Question    `json:"questions"`
	Guesses   []models.Guess       `json:"guesses"`
	Entity    *models.TargetEntity `json:"entity,omitempty"`
}

// View assembles the player's current picture of the round. The hidden
// target is revealed only on finished rounds.
func (s *RoundService) View(user *models.User, day *models.GameDay, round *models.Round) (*RoundView, error) {
	var questions []models.Question
	if err := s.DB.Where("user_id = ? AND day_id = ?", user.ID, day.ID).
		Order("created_at ASC").Find(&questions).Error; err != nil {
		return nil, err
	}

	var guesses []models.Guess
	if err := s.DB.Where("user_id = ? AND day_id = ?", user.ID, day.ID).
		Order("created_at ASC").Find(&guesses).Error; err != nil {
		return nil, err
	}

	view := &RoundView{
		Date:      day.Date,
		State:     round,
		Questions: questions,
		Guesses:   guesses,
	}
	if round.IsGameOver {
		entity := day.Entity
		view.Entity = &entity
	}
	return view, nil
}

// LeaderboardEntry is one row of the public leaderboard. Points and streak
// come from the shared lifetime ledger; wins are counted per variant.
type LeaderboardEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
	Streak   int    `json:"streak"`
	Wins     int64  `json:"wins"`
}

// Leaderboard ranks users by points, then wins in this variant, then streak.
func (s *RoundService) Leaderboard(desc game.Descriptor, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var entries []LeaderboardEntry
	err := s.DB.Raw(`
		SELECT u.external_id AS user_id,
		       u.username,
		       COALESCE(us.points, 0) AS points,
		       COALESCE(us.streak, 0) AS streak,
		       COALESCE(w.wins, 0) AS wins
		FROM users u
		LEFT JOIN user_scores us ON us.user_id = u.id
		LEFT JOIN (
			SELECT r.user_id, COUNT(*) AS wins
			FROM rounds r
			INNER JOIN game_days d ON d.id = r.day_id
			WHERE d.variant = ? AND r.won
			GROUP BY r.user_id
		) w ON w.user_id = u.id
		WHERE u.deleted_at IS NULL
		ORDER BY points DESC, wins DESC, streak DESC
		LIMIT ?
	`, string(desc.Variant), limit).Scan(&entries).Error

	return entries, err
}

// HistoryEntry reveals a past day's target.
type HistoryEntry struct {
	Date         string `json:"date"`
	EntityID     string `json:"entity_id"`
	Name         string `json:"name"`
	OfficialName string `json:"official_name,omitempty"`
}

// History lists past targets for a variant, newest first. Today's target is
// excluded — it is still being guessed.
func (s *RoundService) History(desc game.Descriptor) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := s.DB.Raw(`
		SELECT d.date, e.id AS entity_id, e.name, e.official_name
		FROM game_days d
		INNER JOIN target_entities e ON e.id = d.entity_id
		WHERE d.variant = ? AND d.date < ?
		ORDER BY d.date DESC
	`, string(desc.Variant), s.Today()).Scan(&entries).Error

	return entries, err
}

// PlayerStatistics aggregates one user's record in a variant.
type PlayerStatistics struct {
	Points      int64              `json:"points"`
	Streak      int                `json:"streak"`
	Wins        int64              `json:"wins"`
	GamesPlayed int64              `json:"games_played"`
	History     []GameHistoryEntry `json:"history"`
}

// GameHistoryEntry is one finished round in the player's record. The target
// name is masked while that day is still in play.
type GameHistoryEntry struct {
	Date       string `json:"date"`
	Won        bool   `json:"won"`
	Points     int    `json:"points"`
	Attempts   int    `json:"attempts"`
	TargetName string `json:"target_name"`
}

// Statistics builds the per-user summary for one variant.
func (s *RoundService) Statistics(user *models.User, desc game.Descriptor) (*PlayerStatistics, error) {
	var score models.UserScore
	if err := s.DB.Where("user_id = ?", user.ID).First(&score).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	type counts struct {
		Wins        int64
		GamesPlayed int64
	}
	var c counts
	if err := s.DB.Raw(`
		SELECT COALESCE(SUM(CASE WHEN r.won THEN 1 ELSE 0 END), 0) AS wins,
		       COUNT(r.id) AS games_played
		FROM rounds r
		INNER JOIN game_days d ON d.id = r.day_id
		WHERE r.user_id = ? AND d.variant = ?
	`, user.ID, string(desc.Variant)).Scan(&c).Error; err != nil {
		return nil, err
	}

	type historyRow struct {
		Date        string
		Won         bool
		Points      int
		GuessesMade int
		Name        string
	}
	var rows []historyRow
	if err := s.DB.Raw(`
		SELECT d.date, r.won, r.points, r.guesses_made, e.name
		FROM rounds r
		INNER JOIN game_days d ON d.id = r.day_id
		INNER JOIN target_entities e ON e.id = d.entity_id
		WHERE r.user_id = ? AND d.variant = ? AND r.is_game_over
		ORDER BY d.date DESC
	`, user.ID, string(desc.Variant)).Scan(&rows).Error; err != nil {
		return nil, err
	}

	today := s.Today()
	history := make([]GameHistoryEntry, 0, len(rows))
	for _, row := range rows {
		name := row.Name
		if row.Date >= today {
			name = "???"
		}
		history = append(history, GameHistoryEntry{
			Date:       row.Date,
			Won:        row.Won,
			Points:     row.Points,
			Attempts:   row.GuessesMade,
			TargetName: name,
		})
	}

	return &PlayerStatistics{
		Points:      score.Points,
		Streak:      score.Streak,
		Wins:        c.Wins,
		GamesPlayed: c.GamesPlayed,
		History:     history,
	}, nil
}

// Entities lists everything guessable in a variant, for client pickers.
func (s *RoundService) Entities(desc game.Descriptor) ([]models.TargetEntity, error) {
	var entities []models.TargetEntity
	err := s.DB.Where("variant = ?", string(desc.Variant)).
		Order("name ASC").Find(&entities).Error
	return entities, err
}
