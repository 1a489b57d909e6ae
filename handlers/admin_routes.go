// handlers/admin_routes.go
package handlers

import (
	"os"

	"daily-guess-system/game"
	"daily-guess-system/middleware"
	"daily-guess-system/services"
	"daily-guess-system/utils"
	"daily-guess-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SetupAdminRoutes registers the maintenance surface: entity population,
// corpus ingestion, forced day generation and on-demand snapshot backups.
// Everything here requires the admin role from the Gateway.
func SetupAdminRoutes(app *fiber.App, corpus *services.CorpusService, rounds *services.RoundService, backup *workers.BackupClient) {
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	admin.Post("/:variant/entities", func(c *fiber.Ctx) error {
		desc, ok := variantParam(c)
		if !ok {
			return nil
		}

		type Req struct {
			Name         string `json:"name"`
			OfficialName string `json:"official_name"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil || req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "name is required",
			})
		}

		entity, err := corpus.CreateEntity(desc, req.Name, req.OfficialName)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create entity",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(entity)
	})

	admin.Post("/:variant/entities/:id/document", func(c *fiber.Ctx) error {
		desc, ok := variantParam(c)
		if !ok {
			return nil
		}
		entityID := c.Params("id")

		content := string(c.Body())
		if fileHeader, err := c.FormFile("document"); err == nil {
			// Keep a copy of the raw upload for re-ingestion after
			// embedding-model changes.
			localPath := utils.CorpusUploadPath(uuid.NewString() + ".txt")
			if err := utils.SaveFile(fileHeader, localPath); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to store document",
					"cause": err.Error(),
				})
			}
			data, err := os.ReadFile(localPath)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to read stored document",
					"cause": err.Error(),
				})
			}
			content = string(data)
		}

		if content == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "document content is required (multipart field or raw body)",
			})
		}

		count, err := corpus.IngestDocument(c.Context(), desc, entityID, content)
		if err != nil {
			return gameError(c, err)
		}
		return c.JSON(fiber.Map{
			"entity_id": entityID,
			"fragments": count,
		})
	})

	admin.Post("/:variant/day", func(c *fiber.Ctx) error {
		desc, ok := variantParam(c)
		if !ok {
			return nil
		}

		date := c.Query("date", rounds.Today())
		day, err := rounds.GetOrCreateDay(desc, date)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to generate day",
				"cause": err.Error(),
			})
		}
		return c.JSON(day)
	})

	admin.Post("/backup", func(c *fiber.Ctx) error {
		if err := backup.BackupAllCollections(c.Context()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "backup failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "snapshot backup completed"})
	})
}

// variantParam resolves the :variant path segment, writing a 404 for
// unknown slugs.
func variantParam(c *fiber.Ctx) (game.Descriptor, bool) {
	desc, ok := game.Lookup(game.Variant(c.Params("variant")))
	if !ok {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown game variant",
		})
		return game.Descriptor{}, false
	}
	return desc, true
}
