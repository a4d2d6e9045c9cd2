package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"receivingapi/internal/http/middleware"
	"receivingapi/internal/model"
	"receivingapi/internal/service"
)

// actorFromCtx returns the actor stored by middleware.ActorContext.
func actorFromCtx(c *fiber.Ctx) (model.Actor, bool) {
	a, ok := c.Locals(middleware.ActorLocalKey).(model.Actor)
	return a, ok && a.ID != ""
}

// requireActor writes a 401 when the gateway did not supply an actor.
func requireActor(c *fiber.Ctx) (model.Actor, bool) {
	a, ok := actorFromCtx(c)
	if !ok {
		_ = writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "actor identity is required")
	}
	return a, ok
}

// CreateReceiving handles POST /receivings.
func CreateReceiving(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		var in service.CreateDocumentInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		doc, err := svc.Create(c.UserContext(), in, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListReceivings handles GET /receivings with limit/offset and optional
// status / assigned_to filters.
func ListReceivings(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		q := service.ListQuery{
			Limit:      limit,
			Offset:     offset,
			AssignedTo: c.Query("assigned_to"),
		}
		if raw := c.Query("status"); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				q.Statuses = append(q.Statuses, model.DocumentStatus(strings.ToUpper(strings.TrimSpace(s))))
			}
		}

		res, err := svc.List(c.UserContext(), q)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetReceiving handles GET /receivings/:id.
func GetReceiving(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// StartReceiving handles POST /receivings/:id/start.
func StartReceiving(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		var body struct {
			AssigneeID string `json:"assignee_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		doc, err := svc.Start(c.UserContext(), c.Params("id"), body.AssigneeID, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// HoldReceiving handles POST /receivings/:id/hold.
func HoldReceiving(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		var body struct {
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		doc, err := svc.Hold(c.UserContext(), c.Params("id"), body.Reason, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// ReleaseReceiving handles POST /receivings/:id/release.
func ReleaseReceiving(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		doc, err := svc.Release(c.UserContext(), c.Params("id"), actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// ReassignReceiving handles POST /receivings/:id/reassign.
func ReassignReceiving(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		var body struct {
			AssigneeID string `json:"assignee_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		doc, err := svc.Reassign(c.UserContext(), c.Params("id"), body.AssigneeID, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// CompleteReceiving handles both PATCH and POST /receivings/:id/complete —
// two external bindings of one internal operation.
func CompleteReceiving(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		doc, err := svc.Complete(c.UserContext(), c.Params("id"), actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteReceiving handles DELETE /receivings/:id.
func DeleteReceiving(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		if err := svc.Delete(c.UserContext(), c.Params("id"), actor); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// BulkDeleteReceivings handles POST /receivings/bulk-delete with
// partial-failure reporting.
func BulkDeleteReceivings(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if len(body.IDs) == 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "ids must not be empty")
		}
		res, err := svc.DeleteBulk(c.UserContext(), body.IDs, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// AddReceivingItem handles POST /receivings/:id/items.
func AddReceivingItem(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		var in service.AddItemInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		item, err := svc.AddItem(c.UserContext(), c.Params("id"), in, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// UpdateReceivingItem handles PATCH /receivings/:id/items/:itemID.
func UpdateReceivingItem(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		var in service.UpdateItemInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		item, err := svc.UpdateItem(c.UserContext(), c.Params("itemID"), in, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(item)
	}
}

// DeleteReceivingItem handles DELETE /receivings/:id/items/:itemID.
func DeleteReceivingItem(svc service.ReceivingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		if err := svc.DeleteItem(c.UserContext(), c.Params("itemID"), actor); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RecommendLocation handles GET /locations/recommendation?item_id=...
func RecommendLocation(rec service.Recommender) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := requireActor(c)
		if !ok {
			return nil
		}
		itemID := c.Query("item_id")
		if itemID == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "item_id query parameter is required")
		}
		r, err := rec.Recommend(c.UserContext(), itemID, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(r)
	}
}
