package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/waflow/waflow/pkg/services"
	"github.com/waflow/waflow/pkg/wire"
)

type APIHandlers struct {
	flowService       *services.Flow
	publishingService *services.Publishing
	mapper            *wire.Mapper
	validator         *validator.Validate
}

func NewAPIHandlers(
	flowService *services.Flow,
	publishingService *services.Publishing,
	mapper *wire.Mapper,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		flowService:       flowService,
		publishingService: publishingService,
		mapper:            mapper,
		validator:         validator,
	}
}

// Register mounts all flow routes on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/flows", h.ListFlows)
	app.Post("/flows", h.CreateFlow)
	app.Get("/flows/:id", h.GetFlow)
	app.Put("/flows/:id", h.UpdateFlow)
	app.Delete("/flows/:id", h.DeleteFlow)
	app.Post("/flows/:id/publish", h.PublishFlow)
	app.Get("/flows/:id/usage", h.GetFlowUsage)
	app.Post("/flows/:id/fork", h.ForkFlow)
}

func (h *APIHandlers) ListFlows(c fiber.Ctx) error {
	flows, err := h.flowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	summaries := make([]FlowSummary, 0, len(flows))
	for _, flow := range flows {
		summaries = append(summaries, NewFlowSummary(flow))
	}

	return c.JSON(fiber.Map{
		"flows":       summaries,
		"total_count": len(summaries),
	})
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.flowService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(h.mapper.Outbound(flow))
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var payload wire.FlowPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(payload); err != nil {
		return badRequest(c, err.Error())
	}

	flow, err := h.mapper.Inbound("", payload)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.flowService.Create(c.Context(), flow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(wire.CreateFlowResponse{FlowID: created.ID})
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	var payload wire.FlowPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(payload); err != nil {
		return badRequest(c, err.Error())
	}

	flow, err := h.mapper.Inbound(id, payload)
	if err != nil {
		return badRequest(c, err.Error())
	}

	_, needsRepublish, err := h.flowService.Update(c.Context(), id, flow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(wire.UpdateFlowResponse{NeedsRepublish: needsRepublish})
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	if err := h.flowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PublishFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	published, err := h.publishingService.Publish(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(NewFlowSummary(published))
}

func (h *APIHandlers) GetFlowUsage(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	campaigns, err := h.flowService.Usage(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(UsageResponse{Campaigns: campaigns})
}

func (h *APIHandlers) ForkFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	fork, err := h.publishingService.Fork(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(wire.ForkFlowResponse{FlowID: fork.ID})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.flowService.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
