package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"receivingapi/internal/service"
)

// PreviewImport handles POST /imports/preview (multipart/form-data, field
// name: file). Parsing only, nothing is persisted.
func PreviewImport(svc service.ImportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := requireActor(c); !ok {
			return nil
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		preview, err := svc.Preview(c.UserContext(), data)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(preview)
	}
}

// ConfirmImport handles POST /imports/confirm: the preview payload
// re-submitted as JSON, committed in a single transaction.
func ConfirmImport(svc service.ImportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		var in service.ConfirmImportInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		doc, err := svc.Confirm(c.UserContext(), in, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}
