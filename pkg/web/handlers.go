package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/ingest"
	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/orchestrator"
	"github.com/callsheet/callsheet/pkg/tasks"
	"github.com/callsheet/callsheet/pkg/transform"
)

type APIHandlers struct {
	orchestrator *orchestrator.Orchestrator
	store        checkpoint.Store
	registry     *tasks.Registry
	validator    *validator.Validate
}

func NewAPIHandlers(
	orch *orchestrator.Orchestrator,
	store checkpoint.Store,
	registry *tasks.Registry,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		orchestrator: orch,
		store:        store,
		registry:     registry,
		validator:    validate,
	}
}

// AnalyzeScript starts a run from raw text and responds with the full
// analysis once the graph ends or pauses for review.
func (h *APIHandlers) AnalyzeScript(c fiber.Ctx) error {
	var req AnalyzeScriptRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return h.runAndRespond(c, ingest.Normalize(req.ScriptContent))
}

// AnalyzeScriptFile starts a run from an uploaded .txt or .fountain file.
func (h *APIHandlers) AnalyzeScriptFile(c fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "A script file upload named 'file' is required")
	}

	upload, err := header.Open()
	if err != nil {
		return internalError(c, err)
	}

	defer func() {
		_ = upload.Close()
	}()

	body, err := io.ReadAll(upload)
	if err != nil {
		return internalError(c, err)
	}

	content, err := ingest.ReadUpload(header.Filename, body)
	if err != nil {
		return handleRunError(c, err)
	}

	return h.runAndRespond(c, content)
}

func (h *APIHandlers) runAndRespond(c fiber.Ctx, content string) error {
	state, err := h.orchestrator.Start(c.Context(), content)
	if err != nil && !errors.Is(err, orchestrator.ErrStepLimitExceeded) {
		return handleRunError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(transform.FromState(state))
}

// SubmitFeedback applies reviewer feedback to a paused run. Flagging no
// category approves the analysis; otherwise the revision loop runs before
// the response is built.
func (h *APIHandlers) SubmitFeedback(c fiber.Ctx) error {
	threadID := c.Params("threadID")
	if threadID == "" {
		return badRequest(c, "Thread ID is required")
	}

	var req FeedbackRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	feedback := make(map[models.Category]string, len(req.Feedback))

	for name, text := range req.Feedback {
		category := models.Category(name)
		if !models.ValidCategory(category) {
			return badRequest(c, "Unknown analysis category: "+name)
		}

		feedback[category] = text
	}

	needsRevision := make(map[models.Category]bool, len(req.NeedsRevision))

	for name, flagged := range req.NeedsRevision {
		category := models.Category(name)
		if !models.ValidCategory(category) {
			return badRequest(c, "Unknown analysis category: "+name)
		}

		needsRevision[category] = flagged
	}

	state, err := h.orchestrator.ApplyFeedback(c.Context(), threadID, feedback, needsRevision)
	if err != nil {
		return handleRunError(c, err)
	}

	if state.Stage == models.StageExtraction {
		state, err = h.orchestrator.Resume(c.Context(), threadID)
		if err != nil && !errors.Is(err, orchestrator.ErrStepLimitExceeded) {
			return handleRunError(c, err)
		}
	}

	return c.JSON(transform.FromState(state))
}

// GetAnalysis returns the current state of a run in response form. It works
// mid-run, after completion and after failure.
func (h *APIHandlers) GetAnalysis(c fiber.Ctx) error {
	threadID := c.Params("threadID")
	if threadID == "" {
		return badRequest(c, "Thread ID is required")
	}

	state, err := h.orchestrator.GetState(c.Context(), threadID)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(transform.FromState(state))
}

// GetScene returns the combined per-scene record across all analyses.
func (h *APIHandlers) GetScene(c fiber.Ctx) error {
	threadID := c.Params("threadID")

	sceneNumber, err := strconv.Atoi(c.Params("sceneID"))
	if err != nil {
		return badRequest(c, "Scene ID must be an integer")
	}

	state, err := h.orchestrator.GetState(c.Context(), threadID)
	if err != nil {
		return handleRunError(c, err)
	}

	view, err := transform.SceneView(state, sceneNumber)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(view)
}

// GetDepartment returns one department's view of the analysis.
func (h *APIHandlers) GetDepartment(c fiber.Ctx) error {
	threadID := c.Params("threadID")
	department := c.Params("department")

	state, err := h.orchestrator.GetState(c.Context(), threadID)
	if err != nil {
		return handleRunError(c, err)
	}

	view, err := transform.DepartmentView(state, department)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	storeCheck := "ok"
	storeOk := true

	if err := h.store.HealthCheck(c.Context()); err != nil {
		storeCheck = err.Error()
		storeOk = false
	}

	status := "unhealthy"
	message := "Callsheet API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && storeOk {
		status = "healthy"
		message = "Callsheet API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"checkpoint": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
