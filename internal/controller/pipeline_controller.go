package controller

import (
	"errors"

	"ml-segregation-be/internal/dto"
	"ml-segregation-be/internal/handler"
	"ml-segregation-be/internal/pkg/serverutils"
	"ml-segregation-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPipelineController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	Report(ctx *fiber.Ctx) error
	SubmitDecision(ctx *fiber.Ctx) error
	ListDecisions(ctx *fiber.Ctx) error
	ListDispatches(ctx *fiber.Ctx) error
	Logs(ctx *fiber.Ctx) error
}

type pipelineController struct {
	pipelineService service.IPipelineService
	feedHandler     *handler.FeedHandler
}

func NewPipelineController(pipelineService service.IPipelineService, feedHandler *handler.FeedHandler) IPipelineController {
	return &pipelineController{
		pipelineService: pipelineService,
		feedHandler:     feedHandler,
	}
}

func (c *pipelineController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/pipeline/v1")
	// Feed handshake carries its own token (query param), so it stays
	// outside the header middleware.
	c.feedHandler.RegisterRoutes(h)

	h.Use(serverutils.JwtMiddleware)
	h.Get("status", c.Status)
	h.Get("report/:gate", c.Report)
	h.Post("decision/:gate", c.SubmitDecision)
	h.Get("decisions", c.ListDecisions)
	h.Get("dispatches", c.ListDispatches)
	h.Get("logs", c.Logs)
}

func (c *pipelineController) Status(ctx *fiber.Ctx) error {
	res, err := c.pipelineService.Status(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get pipeline status", res))
}

func (c *pipelineController) Report(ctx *fiber.Ctx) error {
	gate := ctx.Params("gate")

	res, err := c.pipelineService.Report(ctx.Context(), gate)
	if err != nil {
		return mapPipelineError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get gate report", res))
}

func (c *pipelineController) SubmitDecision(ctx *fiber.Ctx) error {
	gate := ctx.Params("gate")

	var req dto.SubmitDecisionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.pipelineService.SubmitDecision(ctx.Context(), gate, &req)
	if err != nil {
		return mapPipelineError(err)
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Success submit gate decision", res))
}

func (c *pipelineController) ListDecisions(ctx *fiber.Ctx) error {
	gate := ctx.Query("gate", "")
	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.pipelineService.ListDecisions(ctx.Context(), gate, limit, offset)
	if err != nil {
		return mapPipelineError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list gate decisions", res))
}

func (c *pipelineController) ListDispatches(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.pipelineService.ListDispatches(ctx.Context(), limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list dispatch records", res))
}

func (c *pipelineController) Logs(ctx *fiber.Ctx) error {
	level := ctx.Query("level", "")
	limit := ctx.QueryInt("limit", 100)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.pipelineService.Logs(level, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get logs", res))
}

func mapPipelineError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownGate):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrReportNotReady):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGateNotAwaiting):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDecisionConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}
