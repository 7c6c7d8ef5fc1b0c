package controller

import (
	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/pkg/serverutils"
	"legal-assist-be/internal/service"
	ws "legal-assist-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendChat(ctx *fiber.Ctx) error
	AskDirect(ctx *fiber.Ctx) error
	CreateConversation(ctx *fiber.Ctx) error
	ListConversations(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	SelectConversation(ctx *fiber.Ctx) error
	DeleteConversation(ctx *fiber.Ctx) error
	CancelStream(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService         service.IChatService
	conversationService service.IConversationService
	hub                 *ws.Hub
}

func NewChatController(
	chatService service.IChatService,
	conversationService service.IConversationService,
	hub *ws.Hub,
) IChatController {
	return &chatController{
		chatService:         chatService,
		conversationService: conversationService,
		hub:                 hub,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("", c.SendChat)
	h.Post("/ask", c.AskDirect)
	h.Get("/conversations", c.ListConversations)
	h.Post("/conversations", c.CreateConversation)
	h.Get("/conversations/:id/history", c.GetHistory)
	h.Post("/conversations/:id/select", c.SelectConversation)
	h.Post("/conversations/:id/cancel", c.CancelStream)
	h.Delete("/conversations/:id", c.DeleteConversation)

	// Live stream updates per conversation.
	h.Use("/conversations/:id/ws", func(ctx *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("/conversations/:id/ws", fiberws.New(func(conn *fiberws.Conn) {
		conversationId, err := uuid.Parse(conn.Params("id"))
		if err != nil {
			conn.Close()
			return
		}
		ws.ServeWs(c.hub, conn, conversationId)
	}))
}

func (c *chatController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return &serverutils.ValidationError{Message: "invalid request body"}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) AskDirect(ctx *fiber.Ctx) error {
	var req dto.AskDirectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return &serverutils.ValidationError{Message: "invalid request body"}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.AskDirect(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ask question", res))
}

func (c *chatController) CreateConversation(ctx *fiber.Ctx) error {
	res, err := c.conversationService.Create(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create conversation", res))
}

func (c *chatController) ListConversations(ctx *fiber.Ctx) error {
	query := ctx.Query("q")

	res, err := c.conversationService.ListGrouped(ctx.Context(), query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversations", res))
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	conversationId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.conversationService.GetHistory(ctx.Context(), conversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatController) SelectConversation(ctx *fiber.Ctx) error {
	conversationId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.conversationService.Select(ctx.Context(), clientKey(ctx), conversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select conversation", res))
}

func (c *chatController) DeleteConversation(ctx *fiber.Ctx) error {
	conversationId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.conversationService.Delete(ctx.Context(), conversationId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete conversation", nil))
}

func (c *chatController) CancelStream(ctx *fiber.Ctx) error {
	conversationId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	cancelled := c.chatService.CancelStream(ctx.Context(), conversationId)
	return ctx.JSON(serverutils.SuccessResponse("Success cancel stream", fiber.Map{"cancelled": cancelled}))
}

func parseIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, &serverutils.ValidationError{Message: "invalid conversation id"}
	}
	return id, nil
}

// clientKey identifies the caller's UI session for ephemeral state like the
// active conversation selection.
func clientKey(ctx *fiber.Ctx) string {
	if key := ctx.Get("X-Client-Id"); key != "" {
		return key
	}
	return ctx.IP()
}
