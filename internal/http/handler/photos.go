package handler

import (
	"github.com/gofiber/fiber/v2"

	"receivingapi/internal/service"
)

// UploadReceivingPhoto handles POST /receivings/:id/photos
// (multipart/form-data, field name: photo; optional item_id and caption
// form values).
func UploadReceivingPhoto(svc service.PhotoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		fh, err := c.FormFile("photo")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "photo is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		in := service.UploadPhotoInput{
			DocumentID:       c.Params("id"),
			OriginalFilename: fh.Filename,
			ContentType:      ct,
			Size:             fh.Size,
		}
		if v := c.FormValue("item_id"); v != "" {
			in.ItemID = &v
		}
		if v := c.FormValue("caption"); v != "" {
			in.Caption = &v
		}

		photo, err := svc.Upload(c.UserContext(), actor, in, f)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	}
}

// ListReceivingPhotos handles GET /receivings/:id/photos.
func ListReceivingPhotos(svc service.PhotoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		photos, err := svc.List(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(photos)
	}
}
