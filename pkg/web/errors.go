package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/services"
)

// conflictProblem is an RFC 7807 problem extended with the campaigns holding
// the usage lock, so clients can render the fork prompt without another
// round trip.
type conflictProblem struct {
	problems.Problem
	Campaigns []models.CampaignRef `json:"campaigns"`
}

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

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

func usageConflict(c fiber.Ctx, conflict *services.UsageConflictError) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("usage_locked").
		WithDetail(conflict.Error())

	return c.Status(fiber.StatusConflict).JSON(conflictProblem{
		Problem:   *problem,
		Campaigns: conflict.Campaigns,
	})
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	var conflict *services.UsageConflictError

	switch {
	case errors.As(err, &conflict):
		return usageConflict(c, conflict)

	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case errors.Is(err, services.ErrFlowNotFound):
		return notFound(c, "flow not found")

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
