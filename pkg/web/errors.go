package web

import (
	"errors"

	"github.com/dukex/flowbuilder/pkg/services"
	"github.com/dukex/flowbuilder/pkg/validation"
	"github.com/dukex/flowbuilder/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// issuesProblem is a problem document listing the validation issues that block execution.
type issuesProblem struct {
	*problems.Problem

	Issues []validation.Issue `json:"issues"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
// Decode errors are matched first: an integrity violation wraps the
// structural error that caused it.
func handleServiceError(c fiber.Ctx, err error) error {
	var notExecutable *workflow.NotExecutableError

	switch {
	case errors.As(err, &notExecutable):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("not_executable").
			WithDetail(notExecutable.Result.Summary())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(issuesProblem{
			Problem: problem,
			Issues:  notExecutable.Result.Issues,
		})

	case services.IsUnprocessableError(err):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("serialization_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case services.IsNotFoundError(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("not_found").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
