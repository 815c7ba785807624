package app

import (
	"billtrack/internal/handlers"
	u "billtrack/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"
)

// SetupApp creates and configures a new Fiber app instance
func SetupApp(cfg u.Config, redis *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			u.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	RegisterMiddleware(app, cfg)
	RegisterRoutes(app, cfg, redis)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app
func RegisterRoutes(app *fiber.App, cfg u.Config, redis *redis.Client) {
	v1 := app.Group("/v1")

	// One shared service instance so every route shares the same Chrome
	// pool and print-fit controller.
	svc := handlers.NewBillService(cfg, redis)

	v1.Get("/bills", svc.HandleList)
	v1.Post("/bills", svc.HandleCreate)
	v1.Get("/bills/:id", svc.HandleGet)
	v1.Put("/bills/:id", svc.HandleUpdate)
	v1.Get("/bills/:id/receipt", svc.HandleReceiptHTML)
	v1.Get("/bills/:id/receipt.pdf", svc.HandleReceiptPDF)

	v1.Post("/receipts/print", svc.HandlePrint)

	v1.Get("/vendors", svc.HandleListVendors)
	v1.Post("/vendors", svc.HandleCreateVendor)

	v1.Get("/chrome/stats", svc.HandleChromeStats)

	v1.Get("/monitor", monitor.New())
}
