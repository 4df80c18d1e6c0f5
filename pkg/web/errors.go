package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/ingest"
	"github.com/callsheet/callsheet/pkg/transform"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func unsupportedMediaType(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(415).
		WithInstance(c.Path()).
		WithType("unsupported_format").
		WithDetail(detail)

	return c.Status(fiber.StatusUnsupportedMediaType).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleRunError maps typed domain errors onto problem responses.
func handleRunError(c fiber.Ctx, err error) error {
	switch {
	case ingest.IsScriptTooShort(err):
		return badRequest(c, err.Error())

	case ingest.IsUnsupportedFormat(err):
		return unsupportedMediaType(c, err.Error())

	case checkpoint.IsThreadNotFound(err):
		return notFound(c, "analysis thread not found")

	case errors.Is(err, transform.ErrSceneNotFound):
		return notFound(c, err.Error())

	case errors.Is(err, transform.ErrUnknownDepartment):
		return badRequest(c, err.Error())

	default:
		return internalError(c, err)
	}
}
