// handlers/game_routes.go
package handlers

import (
	"errors"
	"strconv"

	"daily-guess-system/game"
	"daily-guess-system/middleware"
	"daily-guess-system/models"
	"daily-guess-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupGameRoutes registers the gameplay surface once per variant. All four
// games share the same handler closures; only the descriptor differs.
func SetupGameRoutes(app *fiber.App, rounds *services.RoundService, questions *services.QuestionService, guesses *services.GuessService) {
	for _, desc := range game.All() {
		desc := desc
		base := "/" + string(desc.Variant)

		// 🔓 Public routes — no user context, but still behind Gateway auth
		app.Get(base+"/entities", func(c *fiber.Ctx) error {
			entities, err := rounds.Entities(desc)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to list entities",
					"cause": err.Error(),
				})
			}
			return c.JSON(entities)
		})

		app.Get(base+"/history", func(c *fiber.Ctx) error {
			history, err := rounds.History(desc)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to load history",
					"cause": err.Error(),
				})
			}
			return c.JSON(history)
		})

		app.Get(base+"/leaderboard", func(c *fiber.Ctx) error {
			limit, _ := strconv.Atoi(c.Query("limit", "50"))
			entries, err := rounds.Leaderboard(desc, limit)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to load leaderboard",
					"cause": err.Error(),
				})
			}
			return c.JSON(entries)
		})

		// 🔐 Secured routes — require user context from the Gateway
		secured := app.Group(base, middleware.UserContextMiddleware())

		secured.Get("/state", func(c *fiber.Ctx) error {
			user, ok := currentUser(c, rounds)
			if !ok {
				return nil
			}

			day, err := rounds.GetOrCreateDay(desc, rounds.Today())
			if err != nil {
				return serviceError(c, "failed to load today's game", err)
			}
			round, err := rounds.GetOrCreateRound(user, day, desc)
			if err != nil {
				return serviceError(c, "failed to load round", err)
			}

			view, err := rounds.View(user, day, round)
			if err != nil {
				return serviceError(c, "failed to build state", err)
			}
			return c.JSON(view)
		})

		secured.Get("/end/state", func(c *fiber.Ctx) error {
			user, ok := currentUser(c, rounds)
			if !ok {
				return nil
			}

			day, err := rounds.GetOrCreateDay(desc, rounds.Today())
			if err != nil {
				return serviceError(c, "failed to load today's game", err)
			}
			round, err := rounds.GetOrCreateRound(user, day, desc)
			if err != nil {
				return serviceError(c, "failed to load round", err)
			}

			if !round.IsGameOver {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "the player is still playing the game",
				})
			}

			view, err := rounds.View(user, day, round)
			if err != nil {
				return serviceError(c, "failed to build end state", err)
			}
			return c.JSON(view)
		})

		secured.Post("/question", func(c *fiber.Ctx) error {
			user, ok := currentUser(c, rounds)
			if !ok {
				return nil
			}

			type Req struct {
				Question string `json:"question"`
			}
			var req Req
			if err := c.BodyParser(&req); err != nil || req.Question == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "question is required",
				})
			}

			question, err := questions.SubmitQuestion(c.Context(), user, desc, req.Question)
			if err != nil {
				return gameError(c, err)
			}
			return c.JSON(question)
		})

		secured.Post("/guess", func(c *fiber.Ctx) error {
			user, ok := currentUser(c, rounds)
			if !ok {
				return nil
			}

			type Req struct {
				Guess    string  `json:"guess"`
				EntityID *string `json:"entity_id"`
			}
			var req Req
			if err := c.BodyParser(&req); err != nil || (req.Guess == "" && req.EntityID == nil) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "guess or entity_id is required",
				})
			}

			outcome, err := guesses.SubmitGuess(user, desc, req.Guess, req.EntityID)
			if err != nil {
				return gameError(c, err)
			}
			return c.JSON(outcome)
		})

		secured.Get("/statistics", func(c *fiber.Ctx) error {
			user, ok := currentUser(c, rounds)
			if !ok {
				return nil
			}

			stats, err := rounds.Statistics(user, desc)
			if err != nil {
				return serviceError(c, "failed to load statistics", err)
			}
			return c.JSON(stats)
		})
	}
}

// currentUser resolves the gateway-injected external user id to the local
// mirror row. On failure the response has already been written and the
// handler should just return nil.
func currentUser(c *fiber.Ctx, rounds *services.RoundService) (*models.User, bool) {
	externalID, _ := c.Locals("user_id").(string)
	if externalID == "" {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing user context",
		})
		return nil, false
	}

	user, err := rounds.EnsureUser(externalID)
	if err != nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve user",
			"cause": err.Error(),
		})
		return nil, false
	}
	return user, true
}

// gameError maps the engine's error taxonomy onto HTTP statuses. Budget and
// state violations are the player's problem; upstream and judge failures are
// ours, and the raw provider detail stays in the logs.
func gameError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, game.ErrBudgetExceeded):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no questions or guesses left, or the game is over",
		})
	case errors.Is(err, game.ErrIllegalState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "round is not in a state that allows this action",
		})
	case errors.Is(err, game.ErrMalformedJudgeResponse):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "the judge returned an unusable response, please retry",
		})
	case errors.Is(err, game.ErrUpstreamUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "a backing service is unavailable, please retry",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "request failed",
			"cause": err.Error(),
		})
	}
}

func serviceError(c *fiber.Ctx, msg string, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}
