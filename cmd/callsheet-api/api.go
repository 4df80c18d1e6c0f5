// Package main provides the Callsheet API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/orchestrator"
	"github.com/callsheet/callsheet/pkg/tasks"
	"github.com/callsheet/callsheet/pkg/web"
)

type API struct {
	logger       *slog.Logger
	orchestrator *orchestrator.Orchestrator
	store        checkpoint.Store
	registry     *tasks.Registry
	validate     *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	orch *orchestrator.Orchestrator,
	store checkpoint.Store,
	registry *tasks.Registry,
) *API {
	return &API{
		logger:       logger,
		orchestrator: orch,
		store:        store,
		registry:     registry,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.orchestrator, a.store, a.registry, a.validate)

	return web.NewApp(handlers)
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
