package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"receivingapi/internal/service"
)

// Services bundles the injected service layer for route registration.
type Services struct {
	Receiving   service.ReceivingService
	Imports     service.ImportService
	Photos      service.PhotoService
	Dashboard   service.DashboardService
	Recommender service.Recommender
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; they parse, delegate and
// translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, svcs Services) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Static segments must be registered before /receivings/:id.
	app.Get("/receivings/active", ActiveReceivings(svcs.Dashboard))
	app.Post("/receivings/bulk-delete", BulkDeleteReceivings(svcs.Receiving))

	app.Post("/receivings", CreateReceiving(svcs.Receiving))
	app.Get("/receivings", ListReceivings(svcs.Receiving))
	app.Get("/receivings/:id", GetReceiving(svcs.Receiving))
	app.Delete("/receivings/:id", DeleteReceiving(svcs.Receiving))

	app.Post("/receivings/:id/start", StartReceiving(svcs.Receiving))
	app.Post("/receivings/:id/hold", HoldReceiving(svcs.Receiving))
	app.Post("/receivings/:id/release", ReleaseReceiving(svcs.Receiving))
	app.Post("/receivings/:id/reassign", ReassignReceiving(svcs.Receiving))
	// Completion keeps two external bindings of the same operation.
	app.Patch("/receivings/:id/complete", CompleteReceiving(svcs.Receiving))
	app.Post("/receivings/:id/complete", CompleteReceiving(svcs.Receiving))

	app.Post("/receivings/:id/items", AddReceivingItem(svcs.Receiving))
	app.Patch("/receivings/:id/items/:itemID", UpdateReceivingItem(svcs.Receiving))
	app.Delete("/receivings/:id/items/:itemID", DeleteReceivingItem(svcs.Receiving))

	app.Get("/locations/recommendation", RecommendLocation(svcs.Recommender))

	app.Post("/imports/preview", PreviewImport(svcs.Imports))
	app.Post("/imports/confirm", ConfirmImport(svcs.Imports))

	app.Post("/receivings/:id/photos", UploadReceivingPhoto(svcs.Photos))
	app.Get("/receivings/:id/photos", ListReceivingPhotos(svcs.Photos))

	app.Get("/dashboard", DashboardSnapshot(svcs.Dashboard))
	app.Get("/stats", ReceivingStats(svcs.Dashboard))
	app.Get("/stats/today", TodayReceivingStats(svcs.Dashboard))
}
