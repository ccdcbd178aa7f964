package main

import (
	"queryly/internal/config"
	"queryly/internal/handler"
	"queryly/internal/middleware"
	"queryly/internal/web"

	_ "queryly/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

func newApp(cfg config.ServerConfig, chatHandler *handler.ChatHandler) *fiber.App {
	bodyLimit := cfg.BodyLimitMB * 1024 * 1024
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}
	app := fiber.New(fiber.Config{
		AppName:      "queryly",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    bodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/health", handler.Health)
	app.Get("/swagger/*", swagger.HandlerDefault)
	chatHandler.RegisterRoutes(app.Group("/api"))
	web.Register(app)

	return app
}
