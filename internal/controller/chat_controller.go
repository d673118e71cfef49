package controller

import (
	"support-chat-be/internal/dto"
	"support-chat-be/internal/entity"
	"support-chat-be/internal/pkg/serverutils"
	"support-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Assign(ctx *fiber.Ctx) error
	Transfer(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Post(":id/assign", c.Assign)
	h.Post(":id/transfer", c.Transfer)
	h.Post(":id/close", c.Close)
}

func actorFromLocals(ctx *fiber.Ctx) (uuid.UUID, entity.UserRole) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	roleStr, _ := ctx.Locals("user_role").(string)
	return userId, entity.UserRole(roleStr)
}

func (c *chatController) Create(ctx *fiber.Ctx) error {
	clientId, _ := actorFromLocals(ctx)

	var req dto.CreateChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.CreateChat(ctx.Context(), clientId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create chat", res))
}

func (c *chatController) Show(ctx *fiber.Ctx) error {
	actorId, actorRole := actorFromLocals(ctx)

	chatId, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.chatService.GetChatById(ctx.Context(), chatId, actorId, actorRole)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat", res))
}

func (c *chatController) List(ctx *fiber.Ctx) error {
	actorId, actorRole := actorFromLocals(ctx)

	res, err := c.chatService.ListChats(ctx.Context(), actorId, actorRole)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list chats", res))
}

// Assign claims a pending chat for an advisor. The advisor id comes from the
// body so a director can assign on someone's behalf; absent a body it
// defaults to the caller.
func (c *chatController) Assign(ctx *fiber.Ctx) error {
	actorId, _ := actorFromLocals(ctx)

	chatId, _ := uuid.Parse(ctx.Params("id"))

	var req dto.AssignAdvisorRequest
	if err := ctx.BodyParser(&req); err != nil || req.AdvisorId == uuid.Nil {
		req.AdvisorId = actorId
	}

	if err := c.chatService.AssignAdvisor(ctx.Context(), chatId, req.AdvisorId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success assign advisor", nil))
}

func (c *chatController) Transfer(ctx *fiber.Ctx) error {
	actorId, actorRole := actorFromLocals(ctx)

	chatId, _ := uuid.Parse(ctx.Params("id"))

	var req dto.TransferChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// An advisor can only transfer chats it owns; a director may omit the
	// current advisor to force the move.
	currentAdvisorId := req.CurrentAdvisorId
	if actorRole == entity.UserRoleAdvisor {
		currentAdvisorId = &actorId
	}

	res, err := c.chatService.TransferChat(ctx.Context(), chatId, currentAdvisorId, req.NewAdvisorId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success transfer chat", res))
}

func (c *chatController) Close(ctx *fiber.Ctx) error {
	actorId, actorRole := actorFromLocals(ctx)

	chatId, _ := uuid.Parse(ctx.Params("id"))

	if err := c.chatService.CloseChat(ctx.Context(), chatId, actorId, actorRole); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success close chat", nil))
}
