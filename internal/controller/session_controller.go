package controller

import (
	"errors"

	"ml-segregation-be/internal/dto"
	"ml-segregation-be/internal/pkg/serverutils"
	"ml-segregation-be/internal/repository/contract"
	"ml-segregation-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Store(ctx *fiber.Ctx) error
	Count(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
	threshold      int
}

func NewSessionController(sessionService service.ISessionService, threshold int) ISessionController {
	return &sessionController{
		sessionService: sessionService,
		threshold:      threshold,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	// Ingestion is machine-to-machine from the preparation system; only
	// the count endpoint sits behind the analyst login.
	h.Post("", c.Store)
	h.Get("count", serverutils.JwtMiddleware, c.Count)
}

func (c *sessionController) Store(ctx *fiber.Ctx) error {
	var req dto.StoreSessionsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sessionService.Store(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, contract.ErrDuplicateSession) {
			return fiber.NewError(fiber.StatusConflict, "one or more sessions already stored")
		}
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success store sessions", res))
}

func (c *sessionController) Count(ctx *fiber.Ctx) error {
	res, err := c.sessionService.Counts(ctx.Context(), c.threshold)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success count sessions", res))
}
