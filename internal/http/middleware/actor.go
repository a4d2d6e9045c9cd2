package middleware

import (
	"github.com/gofiber/fiber/v2"

	"receivingapi/internal/model"
)

const (
	// ActorIDHeader and ActorRoleHeader are set by the API gateway after
	// verifying the auth token. This service performs authorization only.
	ActorIDHeader   = "X-Actor-Id"
	ActorRoleHeader = "X-Actor-Role"
	// ActorLocalKey is the key used to store the actor in Fiber's context locals.
	ActorLocalKey = "actor"
)

// ActorContext extracts the authenticated actor from the gateway headers and
// stores it in context locals. Routes that require an actor reject requests
// without one; read-only routes work anonymously.
func ActorContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(ActorIDHeader)
		if id != "" {
			c.Locals(ActorLocalKey, model.Actor{
				ID:   id,
				Role: model.NormalizeRole(c.Get(ActorRoleHeader)),
			})
		}
		return c.Next()
	}
}
