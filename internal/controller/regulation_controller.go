package controller

import (
	"legal-assist-be/internal/pkg/serverutils"
	"legal-assist-be/pkg/regulation"

	"github.com/gofiber/fiber/v2"
)

type IRegulationController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	CheckCompliance(ctx *fiber.Ctx) error
	BusinessSetup(ctx *fiber.Ctx) error
}

// regulationController passes typed requests through to the regulation
// backend; no domain logic lives here.
type regulationController struct {
	client *regulation.Client
}

func NewRegulationController(client *regulation.Client) IRegulationController {
	return &regulationController{client: client}
}

func (c *regulationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/regulation/v1")
	h.Get("", c.List)
	h.Get("/:id", c.Show)
	h.Post("/compliance-check", c.CheckCompliance)
	h.Post("/business-setup", c.BusinessSetup)
}

func (c *regulationController) List(ctx *fiber.Ctx) error {
	res, err := c.client.ListRegulations(ctx.Context(), ctx.Query("q"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get regulations", res))
}

func (c *regulationController) Show(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if id == "" {
		return &serverutils.ValidationError{Message: "missing regulation id"}
	}

	res, err := c.client.GetRegulation(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get regulation detail", res))
}

func (c *regulationController) CheckCompliance(ctx *fiber.Ctx) error {
	var req regulation.ComplianceCheckRequest
	if err := ctx.BodyParser(&req); err != nil {
		return &serverutils.ValidationError{Message: "invalid request body"}
	}
	if req.BusinessType == "" {
		return &serverutils.ValidationError{Message: "business_type is required"}
	}

	res, err := c.client.CheckCompliance(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success check compliance", res))
}

func (c *regulationController) BusinessSetup(ctx *fiber.Ctx) error {
	var req regulation.BusinessSetupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return &serverutils.ValidationError{Message: "invalid request body"}
	}
	if req.BusinessType == "" {
		return &serverutils.ValidationError{Message: "business_type is required"}
	}

	res, err := c.client.BusinessSetupGuidance(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get business setup guidance", res))
}
