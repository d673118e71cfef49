package controller

import (
	"support-chat-be/internal/dto"
	"support-chat-be/internal/pkg/serverutils"
	"support-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IMessageController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	MarkRead(ctx *fiber.Ctx) error
	MarkChatRead(ctx *fiber.Ctx) error
}

type messageController struct {
	messageService service.IMessageService
}

func NewMessageController(messageService service.IMessageService) IMessageController {
	return &messageController{
		messageService: messageService,
	}
}

func (c *messageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post(":id/message", c.Send)
	h.Get(":id/message", c.List)
	h.Put(":id/message/read", c.MarkChatRead)
	h.Put("message/:messageId/read", c.MarkRead)
}

func (c *messageController) Send(ctx *fiber.Ctx) error {
	senderId, _ := actorFromLocals(ctx)

	chatId, _ := uuid.Parse(ctx.Params("id"))

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.messageService.SendMessage(ctx.Context(), chatId, senderId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success send message", res))
}

// List returns the chat history oldest-first and marks the other side's
// messages as read for the requester.
func (c *messageController) List(ctx *fiber.Ctx) error {
	requesterId, _ := actorFromLocals(ctx)

	chatId, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.messageService.GetMessages(ctx.Context(), chatId, requesterId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list messages", res))
}

func (c *messageController) MarkRead(ctx *fiber.Ctx) error {
	messageId, _ := uuid.Parse(ctx.Params("messageId"))

	if err := c.messageService.MarkMessageAsRead(ctx.Context(), messageId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success mark message read", nil))
}

func (c *messageController) MarkChatRead(ctx *fiber.Ctx) error {
	viewerId, _ := actorFromLocals(ctx)

	chatId, _ := uuid.Parse(ctx.Params("id"))

	if err := c.messageService.MarkChatMessagesAsRead(ctx.Context(), chatId, viewerId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success mark chat read", nil))
}
